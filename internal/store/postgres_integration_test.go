//go:build integration
// +build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/larkhq/lark/internal/log"
	"github.com/larkhq/lark/internal/store"
	"github.com/larkhq/lark/internal/testutil"
)

func setupPostgres(t *testing.T) *store.Postgres {
	t.Helper()
	pool := testutil.SetupTestDB(t)
	return store.NewPostgres(pool, log.NewNop())
}

func TestPostgresUsers(t *testing.T) {
	pg := setupPostgres(t)
	ctx := context.Background()

	u, err := pg.CreateUser(ctx, "alice@example.com", "Alice", map[string]any{"cuisine": "thai"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID == uuid.Nil {
		t.Error("CreateUser() returned zero ID")
	}

	if _, err := pg.CreateUser(ctx, "alice@example.com", "Alice 2", nil); !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}

	got, err := pg.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID() error = %v", err)
	}
	if got.Email != "alice@example.com" || got.Preferences["cuisine"] != "thai" {
		t.Errorf("user = %+v", got)
	}

	if _, err := pg.UserByID(ctx, uuid.New()); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("missing user error = %v, want ErrUserNotFound", err)
	}

	updated, err := pg.UpdateUserPreferences(ctx, u.ID, map[string]any{"budget": "luxury"})
	if err != nil {
		t.Fatalf("UpdateUserPreferences() error = %v", err)
	}
	if updated.Preferences["cuisine"] != "thai" || updated.Preferences["budget"] != "luxury" {
		t.Errorf("preferences should merge, got %v", updated.Preferences)
	}
}

func TestPostgresConversationsAndMessages(t *testing.T) {
	pg := setupPostgres(t)
	ctx := context.Background()

	u, err := pg.CreateUser(ctx, "bob@example.com", "Bob", nil)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	c, err := pg.CreateConversation(ctx, u.ID, "Anniversary planning")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	untitled, err := pg.CreateConversation(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if untitled.Title != "" {
		t.Errorf("untitled conversation Title = %q", untitled.Title)
	}

	first, err := pg.AppendMessage(ctx, c.ID, store.RoleUser, "any ideas?")
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	second, err := pg.AppendMessage(ctx, c.ID, store.RoleAssistant, "plenty!")
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if second.Seq <= first.Seq {
		t.Errorf("seq not monotonic: %d then %d", first.Seq, second.Seq)
	}

	if _, err := pg.AppendMessage(ctx, uuid.New(), store.RoleUser, "hi"); !errors.Is(err, store.ErrConversationNotFound) {
		t.Errorf("append to missing conversation error = %v, want ErrConversationNotFound", err)
	}

	msgs, err := pg.Messages(ctx, c.ID)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "any ideas?" || msgs[1].Content != "plenty!" {
		t.Errorf("messages = %+v", msgs)
	}

	// Appending touched c's updated_at, so it lists before the untitled one.
	list, err := pg.ListConversations(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != c.ID {
		t.Errorf("ListConversations() order wrong: %+v", list)
	}
}

func TestPostgresHistoryWindow(t *testing.T) {
	pg := setupPostgres(t)
	ctx := context.Background()

	u, err := pg.CreateUser(ctx, "carol@example.com", "Carol", nil)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	c, err := pg.CreateConversation(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	for i := 1; i <= 25; i++ {
		role := store.RoleUser
		if i%2 == 0 {
			role = store.RoleAssistant
		}
		if _, err := pg.AppendMessage(ctx, c.ID, role, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("AppendMessage(%d) error = %v", i, err)
		}
	}

	history, err := pg.History(ctx, c.ID, 20)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 20 {
		t.Fatalf("History() returned %d, want 20", len(history))
	}
	if history[0].Content != "message 6" || history[19].Content != "message 25" {
		t.Errorf("window = [%q .. %q], want [message 6 .. message 25]",
			history[0].Content, history[19].Content)
	}
	for i := 1; i < len(history); i++ {
		if history[i].Seq <= history[i-1].Seq {
			t.Fatalf("history out of order at %d", i)
		}
	}
}

func TestPostgresRoleConstraint(t *testing.T) {
	pg := setupPostgres(t)
	ctx := context.Background()

	u, err := pg.CreateUser(ctx, "dave@example.com", "Dave", nil)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	c, err := pg.CreateConversation(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	if _, err := pg.AppendMessage(ctx, c.ID, store.Role("system"), "nope"); !errors.Is(err, store.ErrInvalidRole) {
		t.Errorf("AppendMessage(system) error = %v, want ErrInvalidRole", err)
	}
}
