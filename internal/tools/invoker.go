package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/breezebot/breezebot/internal/core"
	"github.com/breezebot/breezebot/pkg/log"
)

// Caller executes a named tool on the external tool server. Implementations
// must be stateless between calls so independent sessions can invoke
// concurrently.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Invoker resolves, validates and executes tool calls. Failures come back as
// ToolOutcome values; the only way out of Invoke is a normalized outcome.
type Invoker struct {
	registry *Registry
	caller   Caller
	timeout  time.Duration
}

func NewInvoker(registry *Registry, caller Caller, timeout time.Duration) *Invoker {
	return &Invoker{
		registry: registry,
		caller:   caller,
		timeout:  timeout,
	}
}

// Invoke runs the named tool with the given arguments. Argument validation
// happens before the tool server is contacted; a schema violation never
// reaches the wire.
func (i *Invoker) Invoke(ctx context.Context, name string, args map[string]any) core.ToolOutcome {
	desc, err := i.registry.Lookup(name)
	if err != nil {
		return core.ToolOutcome{Name: name, Err: core.NewError(core.KindUnknownTool, "tool not found: %s", name)}
	}

	if violations := validateArgs(desc.Schema, args); len(violations) > 0 {
		return core.ToolOutcome{Name: name, Err: core.NewError(
			core.KindInvalidArguments, "invalid arguments for %s: %s", name, strings.Join(violations, "; "),
		)}
	}

	if i.caller == nil {
		return core.ToolOutcome{Name: name, Err: core.NewError(core.KindToolInvocationFailed, "tool server unavailable")}
	}

	tCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	log.FromCtx(ctx).Info().Str("tool", name).Msg("invoking tool")

	payload, err := i.caller.CallTool(tCtx, name, args)
	if err != nil {
		return core.ToolOutcome{Name: name, Err: core.NewError(core.KindToolInvocationFailed, "%s: %v", name, err)}
	}
	return core.ToolOutcome{Name: name, Payload: payload}
}

// parameterSchema is the subset of JSON Schema the registry carries: an
// object with typed properties and a required list.
type parameterSchema struct {
	Type       string `json:"type"`
	Properties map[string]struct {
		Type string `json:"type"`
	} `json:"properties"`
	Required []string `json:"required"`
}

// validateArgs returns one message per violating field, in stable order.
func validateArgs(raw json.RawMessage, args map[string]any) []string {
	if len(raw) == 0 {
		return nil
	}
	var schema parameterSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		// A descriptor with an unreadable schema should not block the call;
		// the tool server validates authoritatively.
		return nil
	}

	var violations []string
	for _, field := range schema.Required {
		if _, ok := args[field]; !ok {
			violations = append(violations, fmt.Sprintf("%s: missing required field", field))
		}
	}

	fields := make([]string, 0, len(args))
	for field := range args {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		prop, ok := schema.Properties[field]
		if !ok || prop.Type == "" {
			continue
		}
		if err := checkType(args[field], prop.Type); err != nil {
			violations = append(violations, fmt.Sprintf("%s: %v", field, err))
		}
	}
	return violations
}

func checkType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		switch value.(type) {
		case float64, float32, int, int64:
			return nil
		}
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return nil
		case float64:
			if v == float64(int64(v)) {
				return nil
			}
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	default:
		return nil
	}
	return fmt.Errorf("expected %s, got %T", expected, value)
}
