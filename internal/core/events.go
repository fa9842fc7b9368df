package core

// EventType discriminates the framed messages on the response stream.
type EventType string

const (
	EventContent     EventType = "content"
	EventToolInvoked EventType = "tool_invoked"
	EventToolResult  EventType = "tool_result"
	EventError       EventType = "error"
	EventDone        EventType = "done"
)

// StreamEvent is one unit of the ordered output sequence delivered to the
// protocol boundary. Events are emitted in strict production order within a
// session and framed one per line by the gateway.
type StreamEvent struct {
	Type      EventType      `json:"type"`
	Text      string         `json:"text,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Payload   string         `json:"payload,omitempty"`
	Kind      ErrorKind      `json:"kind,omitempty"`
	Message   string         `json:"message,omitempty"`
	Truncated bool           `json:"truncated,omitempty"`
}

func ContentEvent(text string) StreamEvent {
	return StreamEvent{Type: EventContent, Text: text}
}

func ToolInvokedEvent(call ToolCall) StreamEvent {
	return StreamEvent{Type: EventToolInvoked, Name: call.Name, Arguments: call.Arguments}
}

func ToolResultEvent(outcome ToolOutcome) StreamEvent {
	return StreamEvent{Type: EventToolResult, Name: outcome.Name, Payload: outcome.Payload}
}

func ErrorEvent(err *Error) StreamEvent {
	return StreamEvent{Type: EventError, Kind: err.Kind, Message: err.Message}
}

func DoneEvent(truncated bool) StreamEvent {
	return StreamEvent{Type: EventDone, Truncated: truncated}
}
