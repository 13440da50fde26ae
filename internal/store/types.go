// Package store provides persistence for users, conversations and messages.
//
// Two implementations share the same method set: Postgres (production, pgx
// connection pool) and Memory (unit tests and --dev serving). Consumers
// declare the subset they need as their own interface.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message. Only user and assistant turns are
// ever persisted; system prompts are rebuilt per request and never stored.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the persistable roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// User is an account in the system. Preferences is free-form JSON collected
// by the client (dietary restrictions, favorite cuisines and so on) and is
// interpolated into the system prompt.
type User struct {
	ID          uuid.UUID
	Email       string
	Name        string
	Preferences map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Conversation is a single chat thread owned by a user.
type Conversation struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn of a conversation. Seq is assigned by the store and is
// strictly increasing within a conversation; ordering by Seq reconstructs
// the transcript exactly.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           Role
	Content        string
	Seq            int64
	CreatedAt      time.Time
}
