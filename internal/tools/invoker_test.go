package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezebot/breezebot/internal/core"
)

const weatherSchema = `{
  "type": "object",
  "properties": {
    "location": {"type": "string"},
    "units": {"type": "string"}
  },
  "required": ["location"]
}`

type fakeCaller struct {
	payload string
	err     error
	block   bool

	gotName string
	gotArgs map[string]any
}

func (f *fakeCaller) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	f.gotName = name
	f.gotArgs = args
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.payload, f.err
}

func newTestInvoker(caller Caller) *Invoker {
	r := NewRegistry()
	if err := r.Register(Descriptor{Name: "weather", Schema: json.RawMessage(weatherSchema)}); err != nil {
		panic(err)
	}
	return NewInvoker(r, caller, time.Second)
}

func TestInvoker_Success(t *testing.T) {
	caller := &fakeCaller{payload: "72F, sunny"}
	inv := newTestInvoker(caller)

	out := inv.Invoke(context.Background(), "weather", map[string]any{"location": "Paris, FR"})
	require.True(t, out.OK())
	assert.Equal(t, "72F, sunny", out.Payload)
	assert.Equal(t, "weather", caller.gotName)
	assert.Equal(t, "Paris, FR", caller.gotArgs["location"])
}

func TestInvoker_UnknownTool(t *testing.T) {
	caller := &fakeCaller{}
	inv := newTestInvoker(caller)

	out := inv.Invoke(context.Background(), "stocks", map[string]any{})
	require.False(t, out.OK())
	assert.Equal(t, core.KindUnknownTool, out.Err.Kind)
	assert.Empty(t, caller.gotName, "caller must not be reached")
}

func TestInvoker_InvalidArguments(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		wantMention string
	}{
		{
			name:        "missing_required",
			args:        map[string]any{},
			wantMention: "location",
		},
		{
			name:        "wrong_type",
			args:        map[string]any{"location": 42.0},
			wantMention: "location",
		},
		{
			name:        "valid_plus_wrong_optional",
			args:        map[string]any{"location": "Paris, FR", "units": true},
			wantMention: "units",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &fakeCaller{}
			inv := newTestInvoker(caller)

			out := inv.Invoke(context.Background(), "weather", tt.args)
			require.False(t, out.OK())
			assert.Equal(t, core.KindInvalidArguments, out.Err.Kind)
			assert.Contains(t, out.Err.Message, tt.wantMention)
			assert.Empty(t, caller.gotName, "validation failure must not call the tool")
		})
	}
}

func TestInvoker_CallerFailure(t *testing.T) {
	caller := &fakeCaller{err: errors.New("provider exploded")}
	inv := newTestInvoker(caller)

	out := inv.Invoke(context.Background(), "weather", map[string]any{"location": "Paris, FR"})
	require.False(t, out.OK())
	assert.Equal(t, core.KindToolInvocationFailed, out.Err.Kind)
	assert.Contains(t, out.Err.Message, "provider exploded")
}

func TestInvoker_Timeout(t *testing.T) {
	caller := &fakeCaller{block: true}
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{Name: "weather", Schema: json.RawMessage(weatherSchema)}))
	inv := NewInvoker(r, caller, 20*time.Millisecond)

	out := inv.Invoke(context.Background(), "weather", map[string]any{"location": "Paris, FR"})
	require.False(t, out.OK())
	assert.Equal(t, core.KindToolInvocationFailed, out.Err.Kind)
}

func TestInvoker_NoCaller(t *testing.T) {
	inv := newTestInvoker(nil)

	out := inv.Invoke(context.Background(), "weather", map[string]any{"location": "Paris, FR"})
	require.False(t, out.OK())
	assert.Equal(t, core.KindToolInvocationFailed, out.Err.Kind)
}

func TestValidateArgs_UnparseableSchemaIsPermissive(t *testing.T) {
	violations := validateArgs(json.RawMessage(`not json`), map[string]any{"x": 1})
	assert.Empty(t, violations)
}
