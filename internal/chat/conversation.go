// Package chat holds the per-session conversation transcript.
//
// A Conversation has exactly one mutator: the orchestrator that owns the
// session. It is deliberately unsynchronized; concurrency safety comes from
// the one-writer-per-session rule, not from locking.
package chat

import (
	"errors"

	"github.com/breezebot/breezebot/internal/core"
)

var (
	ErrTurnInProgress   = errors.New("a turn is already in progress")
	ErrNoTurnInProgress = errors.New("no turn in progress")
)

// Conversation is an ordered sequence of finalized turns plus at most one
// in-progress assistant turn. Finalized turns are never reopened.
type Conversation struct {
	turns []core.Turn
	open  *core.Turn
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Seed replays an externally supplied history into an empty conversation.
// Used once, when the gateway first sees a session.
func (c *Conversation) Seed(turns []core.Turn) {
	c.turns = append(c.turns[:0], turns...)
}

// AppendUser records a finalized user turn.
func (c *Conversation) AppendUser(content string) {
	c.turns = append(c.turns, core.Turn{Role: core.RoleUser, Content: content})
}

// AppendToolResult records a finalized tool-role turn holding the outcome of
// an invocation, success or failure alike.
func (c *Conversation) AppendToolResult(outcome core.ToolOutcome) core.Turn {
	content := outcome.Payload
	if outcome.Err != nil {
		content = outcome.Err.Error()
	}
	turn := core.Turn{
		Role:       core.RoleTool,
		Content:    content,
		ToolResult: &outcome,
	}
	c.turns = append(c.turns, turn)
	return turn
}

// BeginAssistant opens the in-progress assistant turn. At most one turn may
// be in progress at a time.
func (c *Conversation) BeginAssistant() error {
	if c.open != nil {
		return ErrTurnInProgress
	}
	c.open = &core.Turn{Role: core.RoleAssistant}
	return nil
}

// AppendContent extends the in-progress assistant turn.
func (c *Conversation) AppendContent(text string) error {
	if c.open == nil {
		return ErrNoTurnInProgress
	}
	c.open.Content += text
	return nil
}

// FinalizeAssistant closes the in-progress turn as a plain answer.
func (c *Conversation) FinalizeAssistant(truncated bool) (core.Turn, error) {
	if c.open == nil {
		return core.Turn{}, ErrNoTurnInProgress
	}
	c.open.Truncated = truncated
	turn := *c.open
	c.turns = append(c.turns, turn)
	c.open = nil
	return turn, nil
}

// FinalizeToolCall closes the in-progress turn as a tool-call record. Prose
// the model emitted before the directive stays on the turn; the directive
// text itself is never part of the content.
func (c *Conversation) FinalizeToolCall(call core.ToolCall) (core.Turn, error) {
	if c.open == nil {
		return core.Turn{}, ErrNoTurnInProgress
	}
	c.open.ToolCall = &call
	turn := *c.open
	c.turns = append(c.turns, turn)
	c.open = nil
	return turn, nil
}

// InProgress reports whether an assistant turn is open.
func (c *Conversation) InProgress() bool {
	return c.open != nil
}

// Turns returns a snapshot copy of the finalized transcript.
func (c *Conversation) Turns() []core.Turn {
	out := make([]core.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of finalized turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Reset discards the transcript and any in-progress turn.
func (c *Conversation) Reset() {
	c.turns = nil
	c.open = nil
}
