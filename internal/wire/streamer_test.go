package wire

import (
	"net/http/httptest"
	"strings"
	"testing"

	"legalrag-ai/internal/rag"
)

func TestStreamerFullLifecycle(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewStreamer(rec)

	sources := []rag.UsedPassage{{ID: "p1"}}
	if err := s.WritePreamble(sources, "q", testTime); err != nil {
		t.Fatalf("WritePreamble() unexpected error: %v", err)
	}
	if err := s.WriteChunk("part one "); err != nil {
		t.Fatalf("WriteChunk() unexpected error: %v", err)
	}
	if err := s.WriteChunk("part two"); err != nil {
		t.Fatalf("WriteChunk() unexpected error: %v", err)
	}
	if err := s.WriteTrailer(); err != nil {
		t.Fatalf("WriteTrailer() unexpected error: %v", err)
	}

	if s.State() != StateCompleted {
		t.Errorf("State() = %d, want completed", s.State())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-transform") {
		t.Errorf("Cache-Control = %q", cc)
	}

	got := decodeWhole(rec.Body.String())
	if got.Prose != "part one part two" {
		t.Errorf("Prose = %q", got.Prose)
	}
	if got.SourceCount != 1 {
		t.Errorf("SourceCount = %d, trailer must use the preamble-time count", got.SourceCount)
	}
}

func TestStreamerSecondPreambleRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewStreamer(rec)

	if err := s.WritePreamble(nil, "q", testTime); err != nil {
		t.Fatalf("WritePreamble() unexpected error: %v", err)
	}
	if err := s.WritePreamble(nil, "q", testTime); err == nil {
		t.Error("second WritePreamble() must fail")
	}
}

func TestStreamerChunkBeforePreambleRejected(t *testing.T) {
	s := NewStreamer(httptest.NewRecorder())

	if err := s.WriteChunk("too early"); err == nil {
		t.Error("WriteChunk() before the preamble must fail")
	}
	if err := s.WriteTrailer(); err == nil {
		t.Error("WriteTrailer() before the preamble must fail")
	}
}

func TestStreamerErrorMarkerTerminates(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewStreamer(rec)

	if err := s.WritePreamble(nil, "q", testTime); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteChunk("partial"); err != nil {
		t.Fatal(err)
	}
	s.WriteErrorMarker("generation failed")

	if s.State() != StateErrored {
		t.Errorf("State() = %d, want errored", s.State())
	}
	if err := s.WriteChunk("after error"); err == nil {
		t.Error("writes after the error marker must fail")
	}
	if err := s.WriteTrailer(); err == nil {
		t.Error("trailer after the error marker must fail")
	}

	got := decodeWhole(rec.Body.String())
	if got.StreamError != "generation failed" {
		t.Errorf("StreamError = %q", got.StreamError)
	}
}

func TestStreamerAbortStopsWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	s := NewStreamer(rec)

	if err := s.WritePreamble(nil, "q", testTime); err != nil {
		t.Fatal(err)
	}
	s.Abort()

	before := rec.Body.Len()
	if err := s.WriteChunk("ignored"); err == nil {
		t.Error("WriteChunk() after Abort must fail")
	}
	s.WriteErrorMarker("ignored")
	if rec.Body.Len() != before {
		t.Error("no bytes may be written after Abort")
	}
}
