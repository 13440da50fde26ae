// Package testutil provides hand-rolled test doubles for the orchestrator
// and HTTP tests: a scripted model stream and a recording sink.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/larkhq/lark/internal/model"
)

// ResumedCall records one Resume delivered to a scripted stream.
type ResumedCall struct {
	CallID string
	Output any
}

// ScriptedModel is a model.Client whose streams replay a fixed event
// script. A KindToolCall event suspends the stream until Resume, exactly
// like the real adapter; Resume injects a KindToolResult event and
// continues the script.
type ScriptedModel struct {
	mu sync.Mutex

	// Script is the event sequence to replay. If it does not end in a
	// terminal event, KindCompleted is appended implicitly.
	Script []model.Event

	// GenerateErr, when set, makes Generate fail without a stream.
	GenerateErr error

	// Recorded inputs for assertions.
	Prompts [][]model.Message
	Tools   [][]model.ToolDef
	Streams []*ScriptedStream
}

// Generate records the prompt and returns a stream over the script.
func (m *ScriptedModel) Generate(_ context.Context, messages []model.Message, tools []model.ToolDef) (model.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, messages)
	m.Tools = append(m.Tools, tools)

	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}

	s := &ScriptedStream{script: append([]model.Event(nil), m.Script...)}
	m.Streams = append(m.Streams, s)
	return s, nil
}

// LastPrompt returns the most recent prompt passed to Generate.
func (m *ScriptedModel) LastPrompt() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return nil
	}
	return m.Prompts[len(m.Prompts)-1]
}

// ScriptedStream replays a script. Not safe for concurrent use, matching
// the Stream contract.
type ScriptedStream struct {
	script   []model.Event
	pos      int
	pending  *model.ToolCall
	terminal *model.Event
	closed   bool

	Resumed []ResumedCall
}

// Next returns the next scripted event.
func (s *ScriptedStream) Next(ctx context.Context) (model.Event, error) {
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}
	if s.terminal != nil {
		return *s.terminal, nil
	}
	if s.pending != nil {
		return model.Event{}, fmt.Errorf("stream suspended on tool call %q, Resume first", s.pending.Name)
	}

	if s.pos >= len(s.script) {
		s.terminal = &model.Event{Kind: model.KindCompleted}
		return *s.terminal, nil
	}

	ev := s.script[s.pos]
	s.pos++

	switch ev.Kind {
	case model.KindToolCall:
		s.pending = ev.Call
	case model.KindCompleted, model.KindFailed:
		s.terminal = &ev
	}
	return ev, nil
}

// Resume delivers a tool result and unblocks the script.
func (s *ScriptedStream) Resume(ctx context.Context, callID string, output any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.pending == nil {
		return fmt.Errorf("no pending tool call")
	}
	if s.pending.ID != callID {
		return fmt.Errorf("unknown tool call ID %q (pending %q)", callID, s.pending.ID)
	}

	s.Resumed = append(s.Resumed, ResumedCall{CallID: callID, Output: output})
	s.pending = nil

	// Mirror the real adapter: the delivered result echoes back as an
	// observation event before the script continues.
	rest := append([]model.Event{{Kind: model.KindToolResult, Output: output}}, s.script[s.pos:]...)
	s.script = rest
	s.pos = 0
	return nil
}

// Close marks the stream closed.
func (s *ScriptedStream) Close() {
	s.closed = true
}

// Closed reports whether Close was called.
func (s *ScriptedStream) Closed() bool {
	return s.closed
}
