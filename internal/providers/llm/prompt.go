package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/breezebot/breezebot/internal/core"
	"github.com/breezebot/breezebot/internal/tools"
)

const defaultSystemPrompt = "You are a helpful AI assistant."

const toolGrammarInstructions = `You can call tools. To call one, reply with a single block of the form:
<tool_call>{"name": "<tool name>", "arguments": {<arguments object>}}</tool_call>
Emit the block exactly once, with valid JSON, and nothing else inside it.
After the tool result arrives as a tool turn, answer the user in natural language.

Available tools:`

const toolsDisabledAddendum = "\n\nIMPORTANT: Tools are disabled for this conversation. Answer normally without calling functions."

// LoadSystemPrompt reads the system prompt from a YAML file with a
// "system_prompt" key, falling back to a default when missing or unreadable.
func LoadSystemPrompt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultSystemPrompt
	}
	var doc struct {
		SystemPrompt string `yaml:"system_prompt"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil || doc.SystemPrompt == "" {
		return defaultSystemPrompt
	}
	return doc.SystemPrompt
}

// PromptBuilder renders a transcript into the Gemma chat template, with the
// tool catalog and call grammar woven into the system turn.
type PromptBuilder struct {
	system      string
	descriptors []tools.Descriptor
	window      *Window
}

func NewPromptBuilder(system string, descriptors []tools.Descriptor, window *Window) *PromptBuilder {
	if system == "" {
		system = defaultSystemPrompt
	}
	return &PromptBuilder{
		system:      system,
		descriptors: descriptors,
		window:      window,
	}
}

func (b *PromptBuilder) Build(turns []core.Turn, toolsEnabled bool) string {
	system := b.system
	if toolsEnabled && len(b.descriptors) > 0 {
		system += "\n\n" + toolGrammarInstructions + "\n" + renderToolCatalog(b.descriptors)
	} else {
		system += toolsDisabledAddendum
	}

	if b.window != nil {
		turns = b.window.Trim(turns)
	}

	var sb strings.Builder
	sb.WriteString("<bos><start_of_turn>system\n")
	sb.WriteString(system)
	sb.WriteString("<end_of_turn>\n")

	for _, turn := range turns {
		sb.WriteString("<start_of_turn>")
		sb.WriteString(templateRole(turn.Role))
		sb.WriteString("\n")
		sb.WriteString(renderTurn(turn))
		sb.WriteString("<end_of_turn>\n")
	}

	sb.WriteString("<start_of_turn>model\n")
	return sb.String()
}

func templateRole(role core.Role) string {
	// Gemma's template names the assistant side "model".
	if role == core.RoleAssistant {
		return "model"
	}
	return string(role)
}

// renderTurn reproduces a turn as the model should see it in context. A
// tool-call turn renders its directive back in wire form so the model has a
// faithful record of its own call.
func renderTurn(turn core.Turn) string {
	if turn.ToolCall != nil {
		body, err := json.Marshal(map[string]any{
			"name":      turn.ToolCall.Name,
			"arguments": turn.ToolCall.Arguments,
		})
		if err != nil {
			return turn.Content
		}
		directive := fmt.Sprintf("<tool_call>%s</tool_call>", body)
		if turn.Content == "" {
			return directive
		}
		return turn.Content + directive
	}
	return turn.Content
}

func renderToolCatalog(descriptors []tools.Descriptor) string {
	var sb strings.Builder
	for _, d := range descriptors {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", d.Name, d.Description))
		if len(d.Schema) > 0 {
			sb.WriteString(fmt.Sprintf("  arguments schema: %s\n", string(d.Schema)))
		}
	}
	return sb.String()
}
