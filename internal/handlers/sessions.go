package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"legalrag-ai/internal/contextutil"
	"legalrag-ai/internal/storage"
)

// SessionsHandler persists and restores conversation state. Each session is
// one keyed slot holding the full message list, citation metadata included.
type SessionsHandler struct {
	sessions storage.SessionStore
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(sessions storage.SessionStore) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

// SessionResponse represents a stored session.
type SessionResponse struct {
	ID        string          `json:"id"`
	Messages  json.RawMessage `json:"messages"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// saveSessionRequest is the payload for creating or replacing a session.
type saveSessionRequest struct {
	Messages json.RawMessage `json:"messages"`
}

// Create allocates a new session ID, optionally storing an initial message list.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	messages, ok := h.decodeMessages(w, r)
	if !ok {
		return
	}

	id := uuid.NewString()
	if err := h.sessions.Save(ctx, id, string(messages)); err != nil {
		logger.ErrorContext(ctx, "failed to create session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// Get returns the stored message list for a session.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	record, err := h.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		logger.ErrorContext(ctx, "failed to load session", "session_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(SessionResponse{
		ID:        record.ID,
		Messages:  json.RawMessage(record.Messages),
		UpdatedAt: record.UpdatedAt,
	})
}

// Put replaces the stored message list for a session.
func (h *SessionsHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	messages, ok := h.decodeMessages(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Save(ctx, id, string(messages)); err != nil {
		logger.ErrorContext(ctx, "failed to save session", "session_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a session.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(ctx, id); err != nil {
		logger.ErrorContext(ctx, "failed to delete session", "session_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeMessages parses and validates the message list payload. The slot
// stores a JSON array; anything else is rejected.
func (h *SessionsHandler) decodeMessages(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if len(req.Messages) == 0 {
		req.Messages = json.RawMessage("[]")
	}

	var probe []json.RawMessage
	if err := json.Unmarshal(req.Messages, &probe); err != nil {
		h.writeError(w, http.StatusBadRequest, "messages must be a JSON array")
		return nil, false
	}

	return req.Messages, true
}

// writeError writes an error response.
func (h *SessionsHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
