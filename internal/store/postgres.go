package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// Postgres is the production store backed by a pgx connection pool.
// It is safe for concurrent use by multiple goroutines.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres store on an existing pool.
// The pool's lifecycle belongs to the caller.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

// CreateUser inserts a new user. Preferences may be nil.
func (p *Postgres) CreateUser(ctx context.Context, email, name string, preferences map[string]any) (*User, error) {
	prefs, err := marshalPreferences(preferences)
	if err != nil {
		return nil, err
	}

	u := &User{}
	err = p.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, preferences)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, preferences, created_at, updated_at`,
		email, name, prefs,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Preferences, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	p.logger.Debug("created user", "id", u.ID, "email", u.Email)
	return u, nil
}

// UserByID retrieves a user by ID.
func (p *Postgres) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u := &User{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, email, name, preferences, created_at, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Preferences, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return u, nil
}

// UserByEmail retrieves a user by email.
func (p *Postgres) UserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, email, name, preferences, created_at, updated_at
		FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Preferences, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUserPreferences merges the given preferences into the user's existing
// ones. Keys present in preferences overwrite stored keys; other stored keys
// are preserved.
func (p *Postgres) UpdateUserPreferences(ctx context.Context, id uuid.UUID, preferences map[string]any) (*User, error) {
	prefs, err := marshalPreferences(preferences)
	if err != nil {
		return nil, err
	}

	u := &User{}
	err = p.pool.QueryRow(ctx, `
		UPDATE users
		SET preferences = COALESCE(preferences, '{}'::jsonb) || $2::jsonb,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, email, name, preferences, created_at, updated_at`,
		id, prefs,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Preferences, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("updating preferences for %s: %w", id, err)
	}

	p.logger.Debug("updated user preferences", "id", id)
	return u, nil
}

// CreateConversation creates a new conversation for the user.
func (p *Postgres) CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*Conversation, error) {
	c := &Conversation{}
	var titlePtr *string
	if title != "" {
		titlePtr = &title
	}

	err := p.pool.QueryRow(ctx, `
		INSERT INTO conversations (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, COALESCE(title, ''), created_at, updated_at`,
		userID, titlePtr,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	p.logger.Debug("created conversation", "id", c.ID, "user_id", userID)
	return c, nil
}

// ConversationByID retrieves a conversation by ID.
func (p *Postgres) ConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	c := &Conversation{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, user_id, COALESCE(title, ''), created_at, updated_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return c, nil
}

// ListConversations lists the user's conversations, most recently updated
// first.
func (p *Postgres) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, COALESCE(title, ''), created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		c := &Conversation{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return conversations, nil
}

// Messages returns every message of the conversation in transcript order.
func (p *Postgres) Messages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, seq, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("getting messages for %s: %w", conversationID, err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// History returns the most recent limit messages of the conversation in
// transcript order (oldest of the window first).
func (p *Postgres) History(ctx context.Context, conversationID uuid.UUID, limit int) ([]*Message, error) {
	// The window is the tail of the transcript, so select descending with
	// a limit and flip the result back to ascending.
	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, seq, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq DESC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("getting history for %s: %w", conversationID, err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// AppendMessage appends one turn to the conversation and bumps the
// conversation's updated_at. The sequence number is assigned by the database.
func (p *Postgres) AppendMessage(ctx context.Context, conversationID uuid.UUID, role Role, content string) (*Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			p.logger.Debug("transaction rollback", "error", err)
		}
	}()

	m := &Message{}
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, role, content, seq, created_at`,
		conversationID, role, content,
	).Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Seq, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("appending message to %s: %w", conversationID, err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("touching conversation %s: %w", conversationID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}

	p.logger.Debug("appended message",
		"conversation_id", conversationID, "role", role, "seq", m.Seq)
	return m, nil
}

func scanMessages(rows pgx.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	return messages, nil
}

func marshalPreferences(preferences map[string]any) ([]byte, error) {
	if preferences == nil {
		preferences = map[string]any{}
	}
	data, err := json.Marshal(preferences)
	if err != nil {
		return nil, fmt.Errorf("marshaling preferences: %w", err)
	}
	return data, nil
}
