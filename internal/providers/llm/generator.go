// Package llm adapts a llama.cpp server into the generator contract the
// orchestrator consumes: prompt assembly, context windowing, and a lazy,
// finite, non-restartable stream of text increments.
package llm

import (
	"context"

	"github.com/breezebot/breezebot/internal/core"
)

// TokenStream is one generation pass. Next blocks for the next increment and
// returns io.EOF when the model signals end-of-output. A stream cannot be
// restarted; Close releases the underlying connection.
type TokenStream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Generator produces a token stream for the given transcript.
type Generator interface {
	Stream(ctx context.Context, turns []core.Turn, toolsEnabled bool) (TokenStream, error)
	Health(ctx context.Context) error
}
