package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory store with the same method set as Postgres.
// It backs unit tests and the --dev serving mode.
// Safe for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*User
	usersByEmail  map[string]uuid.UUID
	conversations map[uuid.UUID]*Conversation
	messages      map[uuid.UUID][]*Message // keyed by conversation ID
	nextSeq       map[uuid.UUID]int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:         make(map[uuid.UUID]*User),
		usersByEmail:  make(map[string]uuid.UUID),
		conversations: make(map[uuid.UUID]*Conversation),
		messages:      make(map[uuid.UUID][]*Message),
		nextSeq:       make(map[uuid.UUID]int64),
	}
}

// CreateUser inserts a new user. Preferences may be nil.
func (m *Memory) CreateUser(_ context.Context, email, name string, preferences map[string]any) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.usersByEmail[email]; ok {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	now := time.Now()
	u := &User{
		ID:          uuid.New(),
		Email:       email,
		Name:        name,
		Preferences: clonePreferences(preferences),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.users[u.ID] = u
	m.usersByEmail[email] = u.ID
	return cloneUser(u), nil
}

// UserByID retrieves a user by ID.
func (m *Memory) UserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return cloneUser(u), nil
}

// UserByEmail retrieves a user by email.
func (m *Memory) UserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return cloneUser(m.users[id]), nil
}

// UpdateUserPreferences merges the given preferences into the user's existing
// ones.
func (m *Memory) UpdateUserPreferences(_ context.Context, id uuid.UUID, preferences map[string]any) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if u.Preferences == nil {
		u.Preferences = make(map[string]any)
	}
	maps.Copy(u.Preferences, preferences)
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

// CreateConversation creates a new conversation for the user.
func (m *Memory) CreateConversation(_ context.Context, userID uuid.UUID, title string) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	c := &Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.conversations[c.ID] = c
	m.nextSeq[c.ID] = 1
	cc := *c
	return &cc, nil
}

// ConversationByID retrieves a conversation by ID.
func (m *Memory) ConversationByID(_ context.Context, id uuid.UUID) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	cc := *c
	return &cc, nil
}

// ListConversations lists the user's conversations, most recently updated
// first.
func (m *Memory) ListConversations(_ context.Context, userID uuid.UUID) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var conversations []*Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			cc := *c
			conversations = append(conversations, &cc)
		}
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// Messages returns every message of the conversation in transcript order.
func (m *Memory) Messages(_ context.Context, conversationID uuid.UUID) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	out := make([]*Message, len(msgs))
	for i, msg := range msgs {
		mm := *msg
		out[i] = &mm
	}
	return out, nil
}

// History returns the most recent limit messages in transcript order.
func (m *Memory) History(_ context.Context, conversationID uuid.UUID, limit int) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*Message, len(msgs))
	for i, msg := range msgs {
		mm := *msg
		out[i] = &mm
	}
	return out, nil
}

// AppendMessage appends one turn to the conversation.
func (m *Memory) AppendMessage(_ context.Context, conversationID uuid.UUID, role Role, content string) (*Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	seq := m.nextSeq[conversationID]
	m.nextSeq[conversationID] = seq + 1

	now := time.Now()
	msg := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Seq:            seq,
		CreatedAt:      now,
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	c.UpdatedAt = now

	mm := *msg
	return &mm, nil
}

func cloneUser(u *User) *User {
	cu := *u
	cu.Preferences = clonePreferences(u.Preferences)
	return &cu
}

func clonePreferences(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	maps.Copy(out, p)
	return out
}
