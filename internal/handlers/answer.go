package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"legalrag-ai/internal/apperr"
	"legalrag-ai/internal/contextutil"
	"legalrag-ai/internal/service"
	"legalrag-ai/internal/wire"
)

// AnswerHandler handles HTTP requests for the question-answering pipeline.
type AnswerHandler struct {
	service service.AnswerService
	now     func() time.Time
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(answerService service.AnswerService) *AnswerHandler {
	return &AnswerHandler{
		service: answerService,
		now:     time.Now,
	}
}

// AnswerRequest represents the HTTP request payload for a question.
type AnswerRequest struct {
	Prompt string `json:"prompt"`
	// Stream selects the delivery mode; omitted means streaming.
	Stream  *bool         `json:"stream,omitempty"`
	History []TurnRequest `json:"history,omitempty"`
	// HistoryLimit caps the history turns used; capped server-side.
	HistoryLimit int `json:"historyLimit,omitempty"`
}

// TurnRequest is one conversation turn in the request history.
type TurnRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorResponse represents a structured error response. It is only ever sent
// before response headers; mid-stream failures are signaled in-band instead.
type ErrorResponse struct {
	Error string         `json:"error"`
	Data  map[string]any `json:"data,omitempty"`
}

// ServeHTTP runs the pipeline for one question and writes the citation-
// protocol response, streaming by default.
func (h *AnswerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	history := make([]service.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, service.Turn{Role: turn.Role, Content: turn.Content})
	}

	reply, err := h.service.Prepare(ctx, service.AnswerRequest{
		Prompt:       req.Prompt,
		History:      history,
		HistoryLimit: req.HistoryLimit,
	})
	if err != nil {
		h.handleServiceError(w, ctx, err)
		return
	}

	if req.Stream == nil || *req.Stream {
		h.respondStreaming(w, r, reply)
		return
	}
	h.respondComplete(w, r, reply)
}

// respondStreaming drives the streaming state machine: headers and preamble,
// forwarded generation chunks, then the trailer. A client disconnect cancels
// the upstream call and suppresses the trailer; a generation failure after
// headers is signaled with the in-band error marker.
func (h *AnswerHandler) respondStreaming(w http.ResponseWriter, r *http.Request, reply *service.Reply) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	streamer := wire.NewStreamer(w)
	if err := streamer.WritePreamble(reply.Sources, reply.Query, h.now()); err != nil {
		logger.ErrorContext(ctx, "failed to write citation preamble", "error", err)
		return
	}

	if reply.Templated() {
		if err := streamer.WriteChunk(reply.Text); err != nil {
			logger.InfoContext(ctx, "client disconnected during templated reply", "error", err)
			return
		}
		if err := streamer.WriteTrailer(); err != nil {
			logger.InfoContext(ctx, "client disconnected before trailer", "error", err)
		}
		return
	}

	err := reply.StreamFn(ctx, streamer.WriteChunk)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			// The sink is gone; cancellation has already propagated upstream
			// through ctx. No trailer is attempted.
			streamer.Abort()
			logger.InfoContext(ctx, "client disconnected mid-stream")
			return
		}
		logger.ErrorContext(ctx, "generation failed mid-stream", "error", err)
		streamer.WriteErrorMarker("generation failed")
		return
	}

	if err := streamer.WriteTrailer(); err != nil {
		logger.InfoContext(ctx, "client disconnected before trailer", "error", err)
	}
}

// respondComplete produces the whole envelope in one synchronous sequence.
func (h *AnswerHandler) respondComplete(w http.ResponseWriter, r *http.Request, reply *service.Reply) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	text := reply.Text
	if !reply.Templated() {
		var err error
		text, err = reply.CompleteFn(ctx)
		if err != nil {
			// Headers are not sent yet in single-shot mode, so this can
			// still surface as a structured error.
			logger.ErrorContext(ctx, "generation failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
	}

	streamer := wire.NewStreamer(w)
	if err := streamer.WritePreamble(reply.Sources, reply.Query, h.now()); err != nil {
		logger.ErrorContext(ctx, "failed to write citation preamble", "error", err)
		return
	}
	if err := streamer.WriteChunk(text); err != nil {
		logger.InfoContext(ctx, "client disconnected", "error", err)
		return
	}
	if err := streamer.WriteTrailer(); err != nil {
		logger.InfoContext(ctx, "client disconnected before trailer", "error", err)
	}
}

// handleServiceError maps pipeline errors to HTTP status codes. UserErrors
// are safe to return verbatim; everything else is a generic 500 with the
// detail logged only.
func (h *AnswerHandler) handleServiceError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var userErr *apperr.UserError
	if errors.As(err, &userErr) {
		logger.WarnContext(ctx, "request rejected", "error", userErr.Message)
		h.writeError(w, http.StatusBadRequest, userErr.Message, userErr.Data)
		return
	}

	logger.ErrorContext(ctx, "pipeline error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal server error", nil)
}

// writeError writes a structured error response.
func (h *AnswerHandler) writeError(w http.ResponseWriter, statusCode int, message string, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Data:  data,
	})
}
