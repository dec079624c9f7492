package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"legalrag-ai/internal/contextutil"
)

// RenderHandler converts markdown answers to HTML for clients without their
// own markdown renderer.
type RenderHandler struct {
	parser goldmark.Markdown
}

// NewRenderHandler creates a new RenderHandler. Raw HTML passthrough stays
// disabled because the input is model output.
func NewRenderHandler() *RenderHandler {
	return &RenderHandler{
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Strikethrough,
				extension.Linkify,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// RenderRequest represents the HTTP request payload for rendering.
type RenderRequest struct {
	Markdown string `json:"markdown"`
}

// RenderResponse represents the rendered HTML.
type RenderResponse struct {
	HTML string `json:"html"`
}

// ServeHTTP renders a markdown document to HTML.
func (h *RenderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var buf bytes.Buffer
	if err := h.parser.Convert([]byte(req.Markdown), &buf); err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to render markdown")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RenderResponse{HTML: buf.String()})
}

// writeError writes an error response.
func (h *RenderHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
