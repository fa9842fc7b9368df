package core

const (
	AppName    = "BreezeBot"
	AppVersion = "0.1.0"
)

// Role tags a transcript entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is the parsed intent of an assistant turn that requests a tool.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolOutcome is the normalized result of invoking a tool. Invocation
// failures are values, not Go errors: the conversation keeps going.
type ToolOutcome struct {
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
	Err     *Error `json:"error,omitempty"`
}

func (o ToolOutcome) OK() bool {
	return o.Err == nil
}

// Turn is one entry in a conversation transcript. A turn is append-only once
// finalized; only the in-progress assistant turn owned by the orchestrator is
// mutable.
type Turn struct {
	Role       Role         `json:"role"`
	Content    string       `json:"content"`
	ToolCall   *ToolCall    `json:"tool_call,omitempty"`
	ToolResult *ToolOutcome `json:"tool_result,omitempty"`
	Truncated  bool         `json:"truncated,omitempty"`
}
