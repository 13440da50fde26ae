// Package tools provides tool registration and dispatch for the assistant.
//
// A tool is a named operation the model may invoke mid-generation. Each tool
// declares a JSON schema for its arguments; arguments that violate the
// schema are answered in-band with a ToolError so the model can correct
// itself rather than aborting the conversation.
package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolError defines a structured error format for model consumption.
// It allows tools to return specific error types and messages that the
// model can understand and correct.
type ToolError struct {
	ErrorType string `json:"error_type"` // e.g., "InvalidArguments", "ExecutionFailed"
	Message   string `json:"message"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return "<nil ToolError>"
	}
	if e.ErrorType == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.ErrorType
	}
	return e.ErrorType + ": " + e.Message
}

// FatalError marks a tool failure that must terminate the generation
// instead of being reported back to the model. Executors wrap collaborator
// outages in it; everything else stays in-band.
type FatalError struct {
	Err error
}

// Fatal wraps err as a FatalError.
func Fatal(err error) *FatalError {
	return &FatalError{Err: err}
}

func (e *FatalError) Error() string {
	return "fatal tool error: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Executor runs a tool against already-validated arguments. The returned
// value must be JSON-serializable.
type Executor func(ctx context.Context, args map[string]any) (any, error)

// Descriptor is a registered tool: its declaration to the model plus the
// executor that backs it.
type Descriptor struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Execute     Executor

	resolved *jsonschema.Resolved
}

// resolve compiles the parameter schema for validation. Called once at
// registration.
func (d *Descriptor) resolve() error {
	if d.Parameters == nil {
		return fmt.Errorf("tool %q has no parameter schema", d.Name)
	}
	resolved, err := d.Parameters.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolving schema for tool %q: %w", d.Name, err)
	}
	d.resolved = resolved
	return nil
}

// ValidateArgs checks the arguments against the declared schema.
func (d *Descriptor) ValidateArgs(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	if err := d.resolved.Validate(args); err != nil {
		return &ToolError{ErrorType: "InvalidArguments", Message: err.Error()}
	}
	return nil
}
