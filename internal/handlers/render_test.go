package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postRender(t *testing.T, payload string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewRenderHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/render", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRenderMarkdown(t *testing.T) {
	rec := postRender(t, `{"markdown": "# Deposits\n\nA landlord **must** return it."}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp RenderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !strings.Contains(resp.HTML, "<h1") || !strings.Contains(resp.HTML, "<strong>must</strong>") {
		t.Errorf("HTML = %q", resp.HTML)
	}
}

func TestRenderEscapesRawHTML(t *testing.T) {
	rec := postRender(t, `{"markdown": "hello <script>alert(1)</script>"}`)

	var resp RenderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if strings.Contains(resp.HTML, "<script>") {
		t.Errorf("raw HTML passed through: %q", resp.HTML)
	}
}

func TestRenderInvalidBody(t *testing.T) {
	rec := postRender(t, "{broken")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRenderMethodNotAllowed(t *testing.T) {
	h := NewRenderHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/render", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
