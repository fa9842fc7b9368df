package llm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezebot/breezebot/internal/core"
	"github.com/breezebot/breezebot/internal/tools"
)

func TestLoadSystemPrompt(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system_prompt: |\n  Custom prompt.\n"), 0644))
	assert.Equal(t, "Custom prompt.\n", LoadSystemPrompt(path))

	assert.Equal(t, defaultSystemPrompt, LoadSystemPrompt(filepath.Join(dir, "missing.yaml")))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":[not yaml"), 0644))
	assert.Equal(t, defaultSystemPrompt, LoadSystemPrompt(bad))
}

func TestPromptBuilder_Template(t *testing.T) {
	b := NewPromptBuilder("Be brief.", nil, nil)

	prompt := b.Build([]core.Turn{
		{Role: core.RoleUser, Content: "Hi"},
		{Role: core.RoleAssistant, Content: "Hello!"},
		{Role: core.RoleUser, Content: "How are you?"},
	}, false)

	assert.True(t, strings.HasPrefix(prompt, "<bos><start_of_turn>system\n"))
	assert.Contains(t, prompt, "Be brief.")
	assert.Contains(t, prompt, "<start_of_turn>user\nHi<end_of_turn>\n")
	assert.Contains(t, prompt, "<start_of_turn>model\nHello!<end_of_turn>\n")
	assert.True(t, strings.HasSuffix(prompt, "<start_of_turn>model\n"))
}

func TestPromptBuilder_ToolCatalogWhenEnabled(t *testing.T) {
	descriptors := []tools.Descriptor{
		{Name: "weather", Description: "Current weather", Schema: json.RawMessage(`{"type":"object"}`)},
	}
	b := NewPromptBuilder("", descriptors, nil)

	prompt := b.Build(nil, true)
	assert.Contains(t, prompt, "<tool_call>")
	assert.Contains(t, prompt, "- weather: Current weather")
	assert.NotContains(t, prompt, "Tools are disabled")

	disabled := b.Build(nil, false)
	assert.Contains(t, disabled, "Tools are disabled")
	assert.NotContains(t, disabled, "- weather:")
}

func TestPromptBuilder_RendersToolCallTurnInWireForm(t *testing.T) {
	b := NewPromptBuilder("", nil, nil)

	prompt := b.Build([]core.Turn{
		{Role: core.RoleUser, Content: "Weather in Paris?"},
		{
			Role:     core.RoleAssistant,
			Content:  "Checking. ",
			ToolCall: &core.ToolCall{Name: "weather", Arguments: map[string]any{"location": "Paris, FR"}},
		},
		{Role: core.RoleTool, Content: "72F, sunny"},
	}, false)

	assert.Contains(t, prompt, `Checking. <tool_call>{"arguments":{"location":"Paris, FR"},"name":"weather"}</tool_call>`)
	assert.Contains(t, prompt, "<start_of_turn>tool\n72F, sunny<end_of_turn>\n")
}
