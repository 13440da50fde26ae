package model

import (
	"context"
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	if err := classify(context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Errorf("classify(DeadlineExceeded) = %v, want ErrTimeout", err)
	}

	provider := errors.New("HTTP 503 from upstream")
	if err := classify(provider); !errors.Is(err, ErrUnavailable) {
		t.Errorf("classify(provider error) = %v, want ErrUnavailable", err)
	}
	if err := classify(provider); !errors.Is(err, provider) {
		t.Error("classify() should keep the original error in the chain")
	}
}

func TestToResponseMap(t *testing.T) {
	tests := []struct {
		name   string
		output any
		check  func(t *testing.T, m map[string]any)
	}{
		{
			name:   "object passes through",
			output: map[string]any{"temperature": 72},
			check: func(t *testing.T, m map[string]any) {
				if m["temperature"] != float64(72) {
					t.Errorf("m = %v", m)
				}
			},
		},
		{
			name: "struct becomes object",
			output: struct {
				Name string `json:"name"`
			}{Name: "Pier 39"},
			check: func(t *testing.T, m map[string]any) {
				if m["name"] != "Pier 39" {
					t.Errorf("m = %v", m)
				}
			},
		},
		{
			name:   "slice wrapped under result",
			output: []string{"a", "b"},
			check: func(t *testing.T, m map[string]any) {
				if _, ok := m["result"].([]any); !ok {
					t.Errorf("m = %v, want slice under result", m)
				}
			},
		},
		{
			name:   "scalar wrapped under result",
			output: "done",
			check: func(t *testing.T, m map[string]any) {
				if m["result"] != "done" {
					t.Errorf("m = %v", m)
				}
			},
		},
		{
			name:   "nil wrapped under result",
			output: nil,
			check: func(t *testing.T, m map[string]any) {
				if _, ok := m["result"]; !ok {
					t.Errorf("m = %v, want result key", m)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := toResponseMap(tt.output)
			if err != nil {
				t.Fatalf("toResponseMap() error = %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestToResponseMapUnserializable(t *testing.T) {
	if _, err := toResponseMap(func() {}); err == nil {
		t.Error("toResponseMap() should fail on unserializable output")
	}
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{KindText, "text"},
		{KindToolCall, "tool_call"},
		{KindToolResult, "tool_result"},
		{KindCompleted, "completed"},
		{KindFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
