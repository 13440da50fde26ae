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

// userStore is the slice of the store the user handlers need.
type userStore interface {
	UserByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	UpdateUserPreferences(ctx context.Context, id uuid.UUID, preferences map[string]any) (*store.User, error)
}

type userHandler struct {
	store  userStore
	logger *slog.Logger
}

type userResponse struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toUserResponse(u *store.User) userResponse {
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Preferences: prefs,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// me handles GET /api/v1/users/me.
func (h *userHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", h.logger)
		return
	}

	user, err := h.store.UserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "user not found", h.logger)
			return
		}
		h.logger.Error("getting user", "id", userID, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "could not load user", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// updatePreferences handles PATCH /api/v1/users/me/preferences. Keys in the
// body are merged into the stored preferences.
func (h *userHandler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", h.logger)
		return
	}

	var preferences map[string]any
	if err := json.NewDecoder(r.Body).Decode(&preferences); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "body must be a JSON object", h.logger)
		return
	}

	user, err := h.store.UpdateUserPreferences(r.Context(), userID, preferences)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "user not found", h.logger)
			return
		}
		h.logger.Error("updating preferences", "id", userID, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "could not update preferences", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, toUserResponse(user))
}
