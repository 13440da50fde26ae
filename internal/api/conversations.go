package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/larkhq/lark/internal/store"
)

// conversationStore is the slice of the store the conversation handlers need.
type conversationStore interface {
	CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*store.Conversation, error)
	ConversationByID(ctx context.Context, id uuid.UUID) (*store.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*store.Conversation, error)
	Messages(ctx context.Context, conversationID uuid.UUID) ([]*store.Message, error)
}

type conversationHandler struct {
	store  conversationStore
	logger *slog.Logger
}

type conversationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type conversationDetailResponse struct {
	conversationResponse
	Messages []messageResponse `json:"messages"`
}

func toConversationResponse(c *store.Conversation) conversationResponse {
	return conversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// create handles POST /api/v1/conversations.
func (h *conversationHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", h.logger)
		return
	}

	var body struct {
		Title string `json:"title"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", h.logger)
			return
		}
	}

	conv, err := h.store.CreateConversation(r.Context(), userID, body.Title)
	if err != nil {
		h.logger.Error("creating conversation", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "could not create conversation", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, toConversationResponse(conv))
}

// list handles GET /api/v1/conversations.
func (h *conversationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", h.logger)
		return
	}

	conversations, err := h.store.ListConversations(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing conversations", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "could not list conversations", h.logger)
		return
	}

	out := make([]conversationResponse, 0, len(conversations))
	for _, c := range conversations {
		out = append(out, toConversationResponse(c))
	}
	WriteJSON(w, http.StatusOK, out)
}

// get handles GET /api/v1/conversations/{id}: the conversation plus its
// full message transcript in order.
func (h *conversationHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "conversation ID must be a UUID", h.logger)
		return
	}

	conv, err := h.store.ConversationByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
			return
		}
		h.logger.Error("getting conversation", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "could not load conversation", h.logger)
		return
	}
	if conv.UserID != userID {
		WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
		return
	}

	msgs, err := h.store.Messages(r.Context(), id)
	if err != nil {
		h.logger.Error("getting messages", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "could not load messages", h.logger)
		return
	}

	detail := conversationDetailResponse{
		conversationResponse: toConversationResponse(conv),
		Messages:             make([]messageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		detail.Messages = append(detail.Messages, messageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, detail)
}
