package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/breezebot/breezebot/internal/config"
	"github.com/breezebot/breezebot/internal/core"
)

// stop sequences for the Gemma chat template.
var stopSequences = []string{"<end_of_turn>", "<start_of_turn>"}

// LlamaCpp streams completions from a llama.cpp server's /completion
// endpoint. One instance serves all sessions; each Stream call opens its own
// request bound to the caller's context.
type LlamaCpp struct {
	client           *http.Client
	baseURL          string
	temperature      float64
	maxTokens        int
	incrementTimeout time.Duration
	prompts          *PromptBuilder
}

func NewLlamaCpp(cfg *config.ModelConfig, prompts *PromptBuilder) *LlamaCpp {
	return &LlamaCpp{
		// No client timeout: a generation pass can legitimately outlive any
		// fixed budget. Stalls are caught per increment instead.
		client:           &http.Client{},
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		temperature:      cfg.Temperature,
		maxTokens:        cfg.MaxTokens,
		incrementTimeout: cfg.IncrementTimeout,
		prompts:          prompts,
	}
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	Stream      bool     `json:"stream"`
	Stop        []string `json:"stop"`
	CachePrompt bool     `json:"cache_prompt"`
}

type completionChunk struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

func (l *LlamaCpp) Stream(ctx context.Context, turns []core.Turn, toolsEnabled bool) (TokenStream, error) {
	payload := completionRequest{
		Prompt:      l.prompts.Build(turns, toolsEnabled),
		NPredict:    l.maxTokens,
		Temperature: l.temperature,
		Stream:      true,
		Stop:        stopSequences,
		CachePrompt: true,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, l.baseURL+"/completion", bytes.NewReader(data))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := l.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("completion http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	ts := &tokenStream{
		pieces:     make(chan piece, 16),
		quit:       make(chan struct{}),
		pumpDone:   make(chan struct{}),
		cancel:     cancel,
		gapTimeout: l.incrementTimeout,
	}
	go ts.pump(resp.Body)
	return ts, nil
}

// Health checks llama-server reachability without touching generation.
func (l *LlamaCpp) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("llama server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llama server returned status %d", resp.StatusCode)
	}
	return nil
}

type piece struct {
	text string
	err  error
}

type tokenStream struct {
	pieces     chan piece
	quit       chan struct{}
	pumpDone   chan struct{}
	cancel     context.CancelFunc
	gapTimeout time.Duration
	done       bool
	stopOnce   sync.Once
}

// pump reads SSE-framed lines off the response body and forwards increments.
// It owns the body and always closes it. Every send races quit so the pump
// exits even when the consumer abandons the stream mid-generation.
func (t *tokenStream) pump(body io.ReadCloser) {
	defer close(t.pumpDone)
	defer body.Close()
	defer close(t.pieces)

	send := func(p piece) bool {
		select {
		case t.pieces <- p:
			return true
		case <-t.quit:
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var chunk completionChunk
		if err := json.Unmarshal([]byte(line[len("data: "):]), &chunk); err != nil {
			send(piece{err: fmt.Errorf("decode completion chunk: %w", err)})
			return
		}
		if chunk.Content != "" && !send(piece{text: chunk.Content}) {
			return
		}
		if chunk.Stop {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		send(piece{err: fmt.Errorf("read completion stream: %w", err)})
	}
}

// stop cancels the underlying request and releases the pump goroutine.
func (t *tokenStream) stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		close(t.quit)
	})
}

func (t *tokenStream) Next(ctx context.Context) (string, error) {
	if t.done {
		return "", io.EOF
	}

	var gap <-chan time.Time
	if t.gapTimeout > 0 {
		timer := time.NewTimer(t.gapTimeout)
		defer timer.Stop()
		gap = timer.C
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-gap:
		t.stop()
		return "", fmt.Errorf("generator stalled: no increment within %s", t.gapTimeout)
	case p, ok := <-t.pieces:
		if !ok {
			t.done = true
			return "", io.EOF
		}
		if p.err != nil {
			t.done = true
			return "", p.err
		}
		return p.text, nil
	}
}

func (t *tokenStream) Close() error {
	t.stop()
	return nil
}
