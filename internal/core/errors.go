package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for the protocol boundary. Tool-scoped kinds
// are recovered inside the generation loop; GeneratorFailure ends the turn;
// Busy and SessionNotFound are rejected before any state machine work begins.
type ErrorKind string

const (
	KindUnknownTool          ErrorKind = "UnknownTool"
	KindInvalidArguments     ErrorKind = "InvalidArguments"
	KindToolInvocationFailed ErrorKind = "ToolInvocationFailed"
	KindInvalidDirective     ErrorKind = "InvalidDirective"
	KindToolLoopExceeded     ErrorKind = "ToolLoopExceeded"
	KindGeneratorFailure     ErrorKind = "GeneratorFailure"
	KindBusy                 ErrorKind = "Busy"
	KindSessionNotFound      ErrorKind = "SessionNotFound"
)

// Error is a kind-tagged error that survives the trip onto the event stream.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or empty when err carries no kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
