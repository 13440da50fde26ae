// Package chat contains the conversation orchestrator: it builds prompts
// from persisted history, drives a streaming generation, executes the tool
// calls the model requests, relays text fragments to the caller, and
// persists both sides of the exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/larkhq/lark/internal/model"
	"github.com/larkhq/lark/internal/store"
	"github.com/larkhq/lark/internal/tools"
)

// Repository is the slice of the store the orchestrator needs.
type Repository interface {
	UserByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	ConversationByID(ctx context.Context, id uuid.UUID) (*store.Conversation, error)
	History(ctx context.Context, conversationID uuid.UUID, limit int) ([]*store.Message, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, role store.Role, content string) (*store.Message, error)
}

// Sink receives assistant text fragments as they are generated. A Write
// error means the caller is gone; the orchestrator stops generating but
// still persists what was produced.
type Sink interface {
	Write(ctx context.Context, chunk string) error
}

// ToolExchange records one completed tool round trip, for observability and
// tests.
type ToolExchange struct {
	Name   string
	Args   map[string]any
	Output any
	Err    error // in-band error reported to the model, if any
}

// Result is the outcome of one SendMessage run. It is returned even on
// failure so callers can see what was streamed and persisted before the
// error.
type Result struct {
	AssistantText string
	Persisted     bool
	ToolCalls     []ToolExchange
}

// Config holds the orchestrator's dependencies.
type Config struct {
	Repo     Repository
	Registry *tools.Registry
	Model    model.Client
	Logger   *slog.Logger
}

func (c *Config) validate() error {
	if c.Repo == nil {
		return fmt.Errorf("chat: Repo is required")
	}
	if c.Registry == nil {
		return fmt.Errorf("chat: Registry is required")
	}
	if c.Model == nil {
		return fmt.Errorf("chat: Model is required")
	}
	return nil
}

// Orchestrator coordinates one generation run per conversation.
// Safe for concurrent use; per-conversation exclusivity is enforced
// internally.
type Orchestrator struct {
	repo     Repository
	registry *tools.Registry
	model    model.Client
	logger   *slog.Logger
	guard    guard
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		repo:     cfg.Repo,
		registry: cfg.Registry,
		model:    cfg.Model,
		logger:   logger,
	}, nil
}

// SendMessage runs one full exchange: persist the user turn, generate the
// assistant's reply while streaming it to sink, execute any tool calls, and
// persist the reply.
//
// The user turn is persisted before generation starts and survives any
// later failure. The assistant turn is persisted with whatever text was
// accumulated, even when generation fails or the caller disconnects; an
// empty accumulation persists nothing.
func (o *Orchestrator) SendMessage(ctx context.Context, conversationID, userID uuid.UUID, text string, sink Sink) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	if !o.guard.acquire(conversationID) {
		return nil, fmt.Errorf("%w: %s", ErrConversationBusy, conversationID)
	}
	defer o.guard.release(conversationID)

	conv, err := o.repo.ConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	// Ownership mismatch is indistinguishable from absence to the caller.
	if conv.UserID != userID {
		return nil, fmt.Errorf("%w: %s", store.ErrConversationNotFound, conversationID)
	}

	user, err := o.repo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := o.repo.History(ctx, conversationID, HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	prompt := BuildPrompt(user, history, text)

	if _, err := o.repo.AppendMessage(ctx, conversationID, store.RoleUser, text); err != nil {
		return nil, fmt.Errorf("persisting user turn: %w", err)
	}

	stream, err := o.model.Generate(ctx, prompt, o.registry.Describe())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUnavailable, err)
	}
	defer stream.Close()

	result, runErr := o.relay(ctx, conversationID, stream, sink)

	if result.AssistantText != "" {
		if err := o.commitAssistantTurn(ctx, conversationID, result.AssistantText); err != nil {
			o.logger.Error("failed to persist assistant turn",
				"conversation_id", conversationID, "error", err)
			if runErr == nil {
				runErr = err
			}
		} else {
			result.Persisted = true
		}
	}

	return result, runErr
}

// relay pulls events from the stream until a terminal event, forwarding
// text to the sink and dispatching tool calls.
func (o *Orchestrator) relay(ctx context.Context, conversationID uuid.UUID, stream model.Stream, sink Sink) (*Result, error) {
	result := &Result{}

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				o.logger.Info("client disconnected mid-stream",
					"conversation_id", conversationID,
					"accumulated", len(result.AssistantText))
				return result, ErrClientDisconnected
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return result, fmt.Errorf("%w: %w", model.ErrTimeout, err)
			}
			return result, err
		}

		switch ev.Kind {
		case model.KindText:
			// Deliver before accumulating: the persisted turn must be
			// exactly the fragments the caller received.
			if err := sink.Write(ctx, ev.Text); err != nil {
				o.logger.Info("sink write failed, treating as disconnect",
					"conversation_id", conversationID, "error", err)
				return result, ErrClientDisconnected
			}
			result.AssistantText += ev.Text

		case model.KindToolCall:
			exchange, err := o.dispatch(ctx, stream, ev.Call)
			result.ToolCalls = append(result.ToolCalls, exchange)
			if err != nil {
				return result, err
			}

		case model.KindToolResult:
			o.logger.Debug("tool result delivered", "conversation_id", conversationID)

		case model.KindCompleted:
			return result, nil

		case model.KindFailed:
			return result, ev.Err

		default:
			return result, fmt.Errorf("%w: unexpected event kind %v", model.ErrMalformedOutput, ev.Kind)
		}
	}
}

// commitAssistantTurn persists the accumulated assistant text. The request
// context may already be canceled (disconnect path), so the write runs on a
// detached context: the caller saw this text, it must not be lost.
func (o *Orchestrator) commitAssistantTurn(ctx context.Context, conversationID uuid.UUID, text string) error {
	_, err := o.repo.AppendMessage(context.WithoutCancel(ctx), conversationID, store.RoleAssistant, text)
	return err
}
