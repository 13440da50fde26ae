package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/larkhq/lark/internal/chat"
	"github.com/larkhq/lark/internal/model"
	"github.com/larkhq/lark/internal/store"
)

// Sender runs one conversation exchange, streaming assistant text into the
// sink.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, userID uuid.UUID, text string, sink chat.Sink) (*chat.Result, error)
}

type chatHandler struct {
	sender Sender
	logger *slog.Logger
}

// httpSink streams assistant text fragments as a chunked plain-text
// response. The response status is committed on the first fragment.
type httpSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newHTTPSink(w http.ResponseWriter) *httpSink {
	flusher, _ := w.(http.Flusher)
	return &httpSink{w: w, flusher: flusher}
}

func (s *httpSink) Write(_ context.Context, chunk string) error {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if _, err := s.w.Write([]byte(chunk)); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// send handles POST /api/v1/conversations/{id}/messages: it streams the
// assistant's reply as raw text chunks.
//
// Errors before the first streamed byte map to JSON status responses.
// Failures after streaming has begun abort the chunked response, which the
// client observes as a truncated body; there is no structured error channel
// on a raw text stream.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", h.logger)
		return
	}

	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "conversation ID must be a UUID", h.logger)
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", h.logger)
		return
	}

	sink := newHTTPSink(w)
	result, err := h.sender.SendMessage(r.Context(), conversationID, userID, body.Message, sink)
	if err != nil {
		h.handleSendError(w, sink, conversationID, result, err)
		return
	}

	// A reply with no text is still a successful (empty) response.
	if !sink.started {
		sink.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		sink.w.WriteHeader(http.StatusOK)
	}
}

func (h *chatHandler) handleSendError(w http.ResponseWriter, sink *httpSink, conversationID uuid.UUID, result *chat.Result, err error) {
	// The caller is gone; nothing left to write. Partial output has
	// already been persisted by the orchestrator.
	if errors.Is(err, chat.ErrClientDisconnected) {
		h.logger.Info("client disconnected",
			"conversation_id", conversationID,
			"persisted", result != nil && result.Persisted)
		return
	}

	if sink.started {
		// Mid-stream failure on a committed raw text response: abort the
		// connection so the client sees a truncated body instead of a
		// silently complete one.
		h.logger.Error("generation failed mid-stream",
			"conversation_id", conversationID, "error", err)
		panic(http.ErrAbortHandler)
	}

	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		WriteError(w, http.StatusBadRequest, "empty_message", "message must not be empty", h.logger)
	case errors.Is(err, store.ErrConversationNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
	case errors.Is(err, store.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "user not found", h.logger)
	case errors.Is(err, chat.ErrConversationBusy):
		WriteError(w, http.StatusConflict, "conversation_busy", "a response is already being generated for this conversation", h.logger)
	case errors.Is(err, chat.ErrVenueSearchUnavailable):
		WriteError(w, http.StatusBadGateway, "venue_search_unavailable", "venue search is temporarily unavailable", h.logger)
	case errors.Is(err, model.ErrTimeout):
		WriteError(w, http.StatusGatewayTimeout, "model_timeout", "the model took too long to respond", h.logger)
	case errors.Is(err, model.ErrUnavailable),
		errors.Is(err, model.ErrMalformedOutput),
		errors.Is(err, model.ErrInvalidToolArgs):
		WriteError(w, http.StatusBadGateway, "model_error", "the model could not produce a response", h.logger)
	default:
		h.logger.Error("send failed", "conversation_id", conversationID, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
	}
}
