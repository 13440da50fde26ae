package tools

import (
	"errors"
	"fmt"

	"github.com/larkhq/lark/internal/model"
)

// Sentinel errors for registry operations.
var (
	// ErrDuplicateTool indicates a second registration under an existing name.
	ErrDuplicateTool = errors.New("duplicate tool name")

	// ErrUnknownTool indicates a lookup for a name that was never registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// Registry holds the tools available to a generation. Registration happens
// at startup; after that the registry is read-only, which makes it safe for
// concurrent use without locking.
type Registry struct {
	order  []string
	byName map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a tool. Names must be unique and non-empty, and the
// parameter schema must resolve.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("tool descriptor must have a name")
	}
	if d.Execute == nil {
		return fmt.Errorf("tool %q has no executor", d.Name)
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}
	if err := d.resolve(); err != nil {
		return err
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Resolve looks up a tool by name.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return d, nil
}

// Describe returns the tool declarations in registration order, for
// inclusion in a generation request.
func (r *Registry) Describe() []model.ToolDef {
	defs := make([]model.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		d := r.byName[name]
		defs = append(defs, model.ToolDef{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return defs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.order)
}
