package store

import "errors"

// Sentinel errors for store operations, checked with errors.Is().
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrConversationNotFound indicates the requested conversation does not
	// exist. Also returned when a conversation exists but belongs to a
	// different user, so callers cannot probe for foreign conversation IDs.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmailTaken indicates a user with the given email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidRole indicates an attempt to persist a message with a role
	// other than user or assistant.
	ErrInvalidRole = errors.New("invalid message role")
)
