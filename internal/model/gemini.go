package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Gemini is a Client backed by the Gemini API.
type Gemini struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Gemini, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Gemini{client: client, modelName: modelName, logger: logger}, nil
}

// Generate starts a streaming generation over the given prompt.
func (g *Gemini) Generate(ctx context.Context, messages []Message, tools []ToolDef) (Stream, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(Temperature),
		MaxOutputTokens: MaxOutputTokens,
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			// System messages become the system instruction; they are
			// never part of the turn sequence.
			config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			return nil, fmt.Errorf("%w: unsupported role %q", ErrMalformedOutput, msg.Role)
		}
	}

	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	s := &geminiStream{
		client:    g.client,
		modelName: g.modelName,
		config:    config,
		contents:  contents,
		logger:    g.logger,
	}
	s.start(ctx)
	return s, nil
}

// geminiStream adapts the SDK's push iterator to the pull-based Stream
// contract. The Gemini API is stateless, so Resume re-issues the request
// with the function response appended to the accumulated contents; to the
// caller this is one logical generation.
type geminiStream struct {
	client    *genai.Client
	modelName string
	config    *genai.GenerateContentConfig
	contents  []*genai.Content
	logger    *slog.Logger

	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	queue    []Event
	pending  *ToolCall
	turnText strings.Builder
	emitted  bool
	terminal *Event
}

func (s *geminiStream) start(ctx context.Context) {
	seq := s.client.Models.GenerateContentStream(ctx, s.modelName, s.contents, s.config)
	s.next, s.stop = iter.Pull2(seq)
}

// Next returns the next generation event.
func (s *geminiStream) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if s.terminal != nil {
		return *s.terminal, nil
	}
	if s.pending != nil {
		return Event{}, fmt.Errorf("stream suspended on tool call %q, Resume first", s.pending.Name)
	}

	for len(s.queue) == 0 {
		resp, err, ok := s.next()
		if !ok {
			return s.finish(), nil
		}
		if err != nil {
			// Cancellation belongs to the caller's context, not the
			// generation outcome.
			if errors.Is(err, context.Canceled) {
				return Event{}, err
			}
			return s.fail(classify(err)), nil
		}
		s.translate(resp)
	}

	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, nil
}

// translate converts one response chunk into queued events.
func (s *geminiStream) translate(resp *genai.GenerateContentResponse) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			s.emitted = true
			s.turnText.WriteString(part.Text)
			s.queue = append(s.queue, Event{Kind: KindText, Text: part.Text})
		}
		if part.FunctionCall != nil {
			s.suspend(part.FunctionCall)
			return
		}
	}
}

// suspend records the pending tool call and appends the model's turn so far
// (text plus the call itself) to the contents for the eventual resume.
func (s *geminiStream) suspend(fc *genai.FunctionCall) {
	id := fc.ID
	if id == "" {
		id = fc.Name
	}
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	s.pending = &ToolCall{ID: id, Name: fc.Name, Args: args}

	var parts []*genai.Part
	if s.turnText.Len() > 0 {
		parts = append(parts, genai.NewPartFromText(s.turnText.String()))
	}
	parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
		ID:   fc.ID,
		Name: fc.Name,
		Args: args,
	}})
	s.contents = append(s.contents, genai.NewContentFromParts(parts, genai.RoleModel))
	s.turnText.Reset()

	s.emitted = true
	s.stop()
	s.next, s.stop = nil, nil
	s.queue = append(s.queue, Event{Kind: KindToolCall, Call: s.pending})
}

// Resume delivers a tool result and restarts generation.
func (s *geminiStream) Resume(ctx context.Context, callID string, output any) error {
	if s.terminal != nil {
		return fmt.Errorf("stream already terminated")
	}
	if s.pending == nil {
		return fmt.Errorf("no pending tool call")
	}
	if s.pending.ID != callID {
		return fmt.Errorf("unknown tool call ID %q (pending %q)", callID, s.pending.ID)
	}

	response, err := toResponseMap(output)
	if err != nil {
		return fmt.Errorf("encoding tool result for %q: %w", s.pending.Name, err)
	}

	part := genai.NewPartFromFunctionResponse(s.pending.Name, response)
	part.FunctionResponse.ID = s.pending.ID
	s.contents = append(s.contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))

	s.queue = append(s.queue, Event{Kind: KindToolResult, Output: output})
	s.pending = nil
	s.start(ctx)
	return nil
}

// Close releases the underlying iterator. Safe to call multiple times.
func (s *geminiStream) Close() {
	if s.stop != nil {
		s.stop()
		s.stop, s.next = nil, nil
	}
}

func (s *geminiStream) finish() Event {
	if !s.emitted {
		// The provider closed the stream without producing anything
		// usable.
		return s.fail(fmt.Errorf("%w: empty response", ErrMalformedOutput))
	}
	s.terminal = &Event{Kind: KindCompleted}
	return *s.terminal
}

func (s *geminiStream) fail(err error) Event {
	s.logger.Debug("generation failed", "error", err)
	s.terminal = &Event{Kind: KindFailed, Err: err}
	s.Close()
	return *s.terminal
}

// classify maps provider errors onto the package sentinels.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// toResponseMap shapes a tool result as the JSON object the function
// response part requires. Non-object results are wrapped under "result".
func toResponseMap(output any) (map[string]any, error) {
	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		return m, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return map[string]any{"result": v}, nil
}
