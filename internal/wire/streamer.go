package wire

import (
	"fmt"
	"net/http"
	"time"

	"legalrag-ai/internal/rag"
)

// State tracks the streamer through the response lifecycle.
type State int

const (
	StateInit State = iota
	StateHeadersSent
	StateCitationsSent
	StateStreaming
	StateCompleted
	StateAborted
	StateErrored
)

// Streamer writes a citation-protocol response to an http.ResponseWriter.
//
// Backpressure comes from the transport: each Write blocks until the sink
// accepts the bytes, and the explicit Flush after every chunk keeps
// intermediate buffers from batching the stream. It is used for both
// streaming and single-shot responses; the single-shot path simply performs
// the same transitions synchronously.
type Streamer struct {
	w           http.ResponseWriter
	flusher     http.Flusher // nil when the writer cannot flush
	state       State
	sourceCount int
}

// NewStreamer wraps a response writer. The writer does not have to support
// flushing; without it chunks are delivered at the transport's discretion.
func NewStreamer(w http.ResponseWriter) *Streamer {
	flusher, _ := w.(http.Flusher)
	return &Streamer{
		w:       w,
		flusher: flusher,
		state:   StateInit,
	}
}

// State returns the current lifecycle state.
func (s *Streamer) State() State {
	return s.state
}

// SendHeaders emits the plain-text response headers. Calling it more than
// once is a no-op; the cache and buffering directives keep proxies from
// batching chunks.
func (s *Streamer) SendHeaders() {
	if s.state != StateInit {
		return
	}
	header := s.w.Header()
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Cache-Control", "no-cache, no-transform")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.state = StateHeadersSent
}

// WritePreamble sends headers if needed and writes the citation preamble.
// Exactly one preamble is written per response.
func (s *Streamer) WritePreamble(sources []rag.UsedPassage, query string, issuedAt time.Time) error {
	s.SendHeaders()
	if s.state != StateHeadersSent {
		return fmt.Errorf("preamble already written (state %d)", s.state)
	}

	preamble, err := EncodePreamble(sources, query, issuedAt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(s.w, preamble); err != nil {
		s.state = StateAborted
		return err
	}
	s.sourceCount = len(sources)
	s.state = StateCitationsSent
	s.flush()
	return nil
}

// WriteChunk forwards one prose chunk. Chunk boundaries carry no meaning for
// decoders. The blocking write is the drain point that couples generation
// pace to the consumer.
func (s *Streamer) WriteChunk(text string) error {
	if s.state != StateCitationsSent && s.state != StateStreaming {
		return fmt.Errorf("chunk written out of order (state %d)", s.state)
	}
	if _, err := fmt.Fprint(s.w, text); err != nil {
		s.state = StateAborted
		return err
	}
	s.state = StateStreaming
	s.flush()
	return nil
}

// WriteTrailer writes the trailer comment with the source count recorded at
// preamble time and completes the response.
func (s *Streamer) WriteTrailer() error {
	if s.state != StateCitationsSent && s.state != StateStreaming {
		return fmt.Errorf("trailer written out of order (state %d)", s.state)
	}
	if _, err := fmt.Fprint(s.w, EncodeTrailer(s.sourceCount)); err != nil {
		s.state = StateAborted
		return err
	}
	s.state = StateCompleted
	s.flush()
	return nil
}

// WriteErrorMarker signals a mid-stream failure in-band. Once streaming has
// begun the status code cannot change, so this marker and channel close are
// all a client gets.
func (s *Streamer) WriteErrorMarker(message string) {
	if s.state != StateCitationsSent && s.state != StateStreaming {
		return
	}
	_, _ = fmt.Fprint(s.w, EncodeErrorMarker(message))
	s.state = StateErrored
	s.flush()
}

// Abort marks the sink as closed by the client. No further writes are
// attempted, including the trailer.
func (s *Streamer) Abort() {
	s.state = StateAborted
}

func (s *Streamer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
