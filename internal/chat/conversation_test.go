package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezebot/breezebot/internal/core"
)

func TestConversation_SingleOpenTurn(t *testing.T) {
	c := NewConversation()
	c.AppendUser("hi")

	require.NoError(t, c.BeginAssistant())
	assert.ErrorIs(t, c.BeginAssistant(), ErrTurnInProgress)

	require.NoError(t, c.AppendContent("hello"))
	turn, err := c.FinalizeAssistant(false)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, turn.Role)
	assert.Equal(t, "hello", turn.Content)
	assert.False(t, c.InProgress())

	// Finalizing twice is a programming error, not a silent no-op.
	_, err = c.FinalizeAssistant(false)
	assert.ErrorIs(t, err, ErrNoTurnInProgress)
}

func TestConversation_ContentRequiresOpenTurn(t *testing.T) {
	c := NewConversation()
	assert.ErrorIs(t, c.AppendContent("x"), ErrNoTurnInProgress)
}

func TestConversation_ToolCallTurn(t *testing.T) {
	c := NewConversation()
	c.AppendUser("weather in paris?")

	require.NoError(t, c.BeginAssistant())
	require.NoError(t, c.AppendContent("Let me check. "))

	call := core.ToolCall{Name: "weather", Arguments: map[string]any{"location": "Paris, FR"}}
	turn, err := c.FinalizeToolCall(call)
	require.NoError(t, err)
	assert.Equal(t, "Let me check. ", turn.Content)
	require.NotNil(t, turn.ToolCall)
	assert.Equal(t, "weather", turn.ToolCall.Name)

	c.AppendToolResult(core.ToolOutcome{Name: "weather", Payload: "72F, sunny"})

	turns := c.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, core.RoleTool, turns[2].Role)
	assert.Equal(t, "72F, sunny", turns[2].Content)
}

func TestConversation_ToolErrorBecomesToolTurn(t *testing.T) {
	c := NewConversation()
	c.AppendToolResult(core.ToolOutcome{
		Name: "weather",
		Err:  core.NewError(core.KindToolInvocationFailed, "timeout"),
	})

	turns := c.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, core.RoleTool, turns[0].Role)
	assert.Contains(t, turns[0].Content, "ToolInvocationFailed")
	require.NotNil(t, turns[0].ToolResult)
	assert.False(t, turns[0].ToolResult.OK())
}

func TestConversation_TruncatedFinalize(t *testing.T) {
	c := NewConversation()
	require.NoError(t, c.BeginAssistant())
	require.NoError(t, c.AppendContent("partial ans"))

	turn, err := c.FinalizeAssistant(true)
	require.NoError(t, err)
	assert.True(t, turn.Truncated)
	assert.Equal(t, "partial ans", turn.Content)
}

func TestConversation_SnapshotIsCopy(t *testing.T) {
	c := NewConversation()
	c.AppendUser("hi")

	snap := c.Turns()
	snap[0].Content = "mutated"
	assert.Equal(t, "hi", c.Turns()[0].Content)
}

func TestConversation_SeedAndReset(t *testing.T) {
	c := NewConversation()
	c.Seed([]core.Turn{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	})
	assert.Equal(t, 2, c.Len())

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.InProgress())
}
