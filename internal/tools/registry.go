// Package tools holds the static tool registry and the invoker that turns a
// parsed directive into a normalized ToolOutcome.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/breezebot/breezebot/internal/core"
)

// ErrDuplicateTool is returned when a name is registered twice.
var ErrDuplicateTool = errors.New("duplicate tool")

// Descriptor describes one callable tool: its unique name and the JSON Schema
// of its arguments. Immutable after registration.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"parameters"`
}

// Registry is the process-wide tool catalog. It is populated once at startup
// from the tool server's listing and read-only afterwards, so lookups need no
// synchronization.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, core.NewError(core.KindUnknownTool, "tool not found: %s", name)
	}
	return d, nil
}

// List returns all descriptors in registration order, the order they are
// presented to the model.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}
