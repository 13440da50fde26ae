// Package model defines the generative model capability: a pull-based event
// stream that can suspend on tool calls and resume once the caller has
// executed them.
//
// The orchestrator in internal/chat owns the tool loop; this package only
// translates between the provider's wire protocol and the event taxonomy.
package model

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
)

// Fixed sampling parameters. These are product constants, not configuration:
// every generation uses the same temperature and output budget.
const (
	Temperature     float32 = 0.7
	MaxOutputTokens int32   = 1000
)

// Sentinel errors for generation failures, checked with errors.Is().
var (
	// ErrUnavailable indicates the upstream model could not be reached or
	// rejected the request.
	ErrUnavailable = errors.New("model unavailable")

	// ErrTimeout indicates the generation exceeded its deadline.
	ErrTimeout = errors.New("model timeout")

	// ErrInvalidToolArgs indicates the model emitted a tool call whose
	// arguments were not a JSON object. It is part of the Client contract
	// for adapters whose wire format can carry non-object arguments; the
	// Gemini SDK types arguments as a map, so its adapter never produces
	// it. Schema violations inside a valid object are handled in-band and
	// do not produce this error.
	ErrInvalidToolArgs = errors.New("invalid tool call arguments")

	// ErrMalformedOutput indicates the upstream response could not be
	// interpreted as either text or a tool call.
	ErrMalformedOutput = errors.New("malformed model output")
)

// Role identifies the author of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the prompt sent to the model.
type Message struct {
	Role    Role
	Content string
}

// ToolDef declares a callable tool to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// ToolCall is the model's request to invoke a tool. ID correlates the
// eventual result with this call; providers that do not issue IDs get the
// tool name as the ID.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// EventKind discriminates stream events.
type EventKind int

const (
	// KindText carries an incremental text fragment.
	KindText EventKind = iota

	// KindToolCall reports that generation is suspended on a tool call.
	// The caller must execute it and call Resume before pulling again.
	KindToolCall

	// KindToolResult echoes a delivered tool result back into the event
	// sequence, for observation only.
	KindToolResult

	// KindCompleted marks successful end of generation.
	KindCompleted

	// KindFailed marks abnormal termination; Err carries the cause.
	KindFailed
)

// String returns the kind's wire name.
func (k EventKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindToolCall:
		return "tool_call"
	case KindToolResult:
		return "tool_result"
	case KindCompleted:
		return "completed"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one element of a generation stream. Exactly one of Text, Call,
// Output or Err is meaningful, selected by Kind.
type Event struct {
	Kind   EventKind
	Text   string    // KindText
	Call   *ToolCall // KindToolCall
	Output any       // KindToolResult
	Err    error     // KindFailed
}

// Stream is a pull-based generation in progress.
//
// Next blocks until the next event is available. After a KindToolCall event
// the stream is suspended: the caller must invoke Resume with the call's
// result before the next Next. A KindCompleted or KindFailed event is final;
// further Next calls return the same terminal event.
//
// Streams are not safe for concurrent use.
type Stream interface {
	Next(ctx context.Context) (Event, error)
	Resume(ctx context.Context, callID string, output any) error
	Close()
}

// Client starts generations. Implementations map provider failures onto the
// package's sentinel errors.
type Client interface {
	Generate(ctx context.Context, messages []Message, tools []ToolDef) (Stream, error)
}
