package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/breezebot/breezebot/internal/core"
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

// perTurnOverhead approximates the template tokens wrapped around each turn.
const perTurnOverhead = 8

// Window trims a transcript to the token budget left for history once the
// reply allowance and prompt scaffolding are accounted for.
type Window struct {
	budget int
}

// NewWindow derives the history budget from the model context size and the
// reply token allowance.
func NewWindow(contextSize, replyBudget int) *Window {
	const scaffolding = 512 // system turn, tool catalog, template markers
	budget := contextSize - replyBudget - scaffolding
	if budget < 256 {
		budget = 256
	}
	return &Window{budget: budget}
}

// Trim drops the oldest turns until the transcript fits the budget. The most
// recent turn always survives, even oversized, so generation has something to
// answer.
func (w *Window) Trim(turns []core.Turn) []core.Turn {
	if len(turns) == 0 {
		return turns
	}

	total := 0
	costs := make([]int, len(turns))
	for i, turn := range turns {
		costs[i] = countTokens(renderTurn(turn)) + perTurnOverhead
		total += costs[i]
	}

	start := 0
	for start < len(turns)-1 && total > w.budget {
		total -= costs[start]
		start++
	}
	return turns[start:]
}

// countTokens measures text with the cl100k_base encoding, falling back to a
// bytes/4 estimate when the encoding cannot be loaded (e.g. offline).
func countTokens(text string) int {
	enc := getTokenizer()
	if enc == nil {
		return len(text)/4 + 1
	}
	return len(enc.Encode(text, nil, nil))
}

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tk = enc
		}
	})
	return tk
}
