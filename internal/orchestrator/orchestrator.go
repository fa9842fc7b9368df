// Package orchestrator drives one conversation: it pulls increments from the
// generator, classifies them, suspends generation to run tool calls, folds
// results back into the transcript, and emits the ordered event stream.
package orchestrator

import (
	"context"
	"errors"
	"io"

	"github.com/breezebot/breezebot/internal/chat"
	"github.com/breezebot/breezebot/internal/core"
	"github.com/breezebot/breezebot/internal/directive"
	"github.com/breezebot/breezebot/internal/providers/llm"
	"github.com/breezebot/breezebot/pkg/log"
)

// State of the per-session machine. Generation and tool invocation are
// sequential stages; a session is never in two states at once.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateToolPending
	StateFinalizing
)

// Invoker executes one tool call and always comes back with a normalized
// outcome.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) core.ToolOutcome
}

// Journal records finalized turns out-of-band. Failures are logged and
// swallowed; the in-memory transcript stays authoritative.
type Journal interface {
	AppendTurn(ctx context.Context, sessionID string, turn core.Turn) error
}

// EmitFunc delivers one event to the protocol boundary. Events arrive in
// strict production order; a non-nil error aborts the turn (the client went
// away).
type EmitFunc func(core.StreamEvent) error

type Orchestrator struct {
	sessionID     string
	conv          *chat.Conversation
	gen           llm.Generator
	invoker       Invoker
	journal       Journal
	maxToolRounds int
	state         State
}

func New(sessionID string, conv *chat.Conversation, gen llm.Generator, invoker Invoker, journal Journal, maxToolRounds int) *Orchestrator {
	if maxToolRounds <= 0 {
		maxToolRounds = 1
	}
	return &Orchestrator{
		sessionID:     sessionID,
		conv:          conv,
		gen:           gen,
		invoker:       invoker,
		journal:       journal,
		maxToolRounds: maxToolRounds,
	}
}

func (o *Orchestrator) State() State {
	return o.state
}

// Conversation exposes the transcript for read-only snapshots.
func (o *Orchestrator) Conversation() *chat.Conversation {
	return o.conv
}

// segmentResult is what one generation pass ended with.
type segmentResult struct {
	call      *core.ToolCall // a well-formed directive was recognized
	malformed string         // directive markers present but invalid
	genErr    error          // the generator failed mid-stream
	canceled  bool
}

// Run processes one user turn to completion. An accepted turn always ends in
// exactly one Done event, whatever went wrong in between.
func (o *Orchestrator) Run(ctx context.Context, input string, toolsEnabled bool, emit EmitFunc) error {
	logger := log.FromCtx(ctx)

	o.state = StateGenerating
	defer func() { o.state = StateIdle }()

	o.conv.AppendUser(input)
	o.record(ctx, core.Turn{Role: core.RoleUser, Content: input})

	rounds := 0
	for {
		stream, err := o.gen.Stream(ctx, o.conv.Turns(), toolsEnabled)
		if err != nil {
			logger.Error().Err(err).Msg("generator refused to start")
			o.emit(emit, core.ErrorEvent(core.NewError(core.KindGeneratorFailure, "%v", err)))
			o.finishTurn(ctx, emit, true)
			return err
		}

		var parser *directive.Parser
		if toolsEnabled {
			parser = directive.NewParser()
		}

		if err := o.conv.BeginAssistant(); err != nil {
			return err
		}

		res := o.runSegment(ctx, stream, parser, emit)
		_ = stream.Close()

		switch {
		case res.canceled:
			logger.Info().Msg("generation canceled")
			o.finishTurn(ctx, emit, true)
			return ctx.Err()

		case res.genErr != nil:
			logger.Error().Err(res.genErr).Msg("generator failed mid-stream")
			o.emit(emit, core.ErrorEvent(core.NewError(core.KindGeneratorFailure, "%v", res.genErr)))
			o.finishTurn(ctx, emit, true)
			return res.genErr

		case res.call != nil:
			rounds++
			if rounds > o.maxToolRounds {
				logger.Warn().Int("rounds", rounds).Msg("tool loop limit exceeded")
				o.emit(emit, core.ErrorEvent(core.NewError(
					core.KindToolLoopExceeded, "tool round-trip limit (%d) exceeded", o.maxToolRounds,
				)))
				o.finishTurn(ctx, emit, false)
				return nil
			}

			turn, err := o.conv.FinalizeToolCall(*res.call)
			if err != nil {
				return err
			}
			o.record(ctx, turn)

			o.state = StateToolPending
			o.emit(emit, core.ToolInvokedEvent(*res.call))

			outcome := o.invoker.Invoke(ctx, res.call.Name, res.call.Arguments)
			toolTurn := o.conv.AppendToolResult(outcome)
			o.record(ctx, toolTurn)

			if ctx.Err() != nil {
				o.emit(emit, core.DoneEvent(true))
				return ctx.Err()
			}
			if outcome.OK() {
				o.emit(emit, core.ToolResultEvent(outcome))
			} else {
				o.emit(emit, core.ErrorEvent(outcome.Err))
			}

			o.state = StateGenerating
			continue

		case res.malformed != "":
			rounds++
			if rounds > o.maxToolRounds {
				o.emit(emit, core.ErrorEvent(core.NewError(
					core.KindToolLoopExceeded, "tool round-trip limit (%d) exceeded", o.maxToolRounds,
				)))
				o.finishTurn(ctx, emit, false)
				return nil
			}

			logger.Warn().Str("raw", res.malformed).Msg("malformed tool directive")
			o.emit(emit, core.ErrorEvent(core.NewError(core.KindInvalidDirective, "malformed tool directive")))

			turn, err := o.conv.FinalizeAssistant(false)
			if err != nil {
				return err
			}
			o.record(ctx, turn)

			// Record the failure as a tool turn so the model can see what
			// happened and recover on the next pass.
			outcome := core.ToolOutcome{Err: core.NewError(core.KindInvalidDirective, "tool directive could not be parsed")}
			toolTurn := o.conv.AppendToolResult(outcome)
			o.record(ctx, toolTurn)
			continue

		default:
			// Clean end of output with no pending directive.
			o.finishTurn(ctx, emit, false)
			return nil
		}
	}
}

// runSegment consumes one generation pass until end-of-output, a recognized
// directive, or failure. With a nil parser everything is content.
func (o *Orchestrator) runSegment(ctx context.Context, stream llm.TokenStream, parser *directive.Parser, emit EmitFunc) segmentResult {
	handle := func(ds []directive.Directive) (segmentResult, bool) {
		for _, d := range ds {
			switch d.Kind {
			case directive.KindContent:
				if d.Text == "" {
					continue
				}
				_ = o.conv.AppendContent(d.Text)
				o.emit(emit, core.ContentEvent(d.Text))
			case directive.KindToolCall:
				call := d.Call
				return segmentResult{call: &call}, true
			case directive.KindMalformed:
				return segmentResult{malformed: d.Raw}, true
			}
		}
		return segmentResult{}, false
	}

	for {
		text, err := stream.Next(ctx)
		if err == io.EOF {
			if parser == nil {
				return segmentResult{}
			}
			if res, stop := handle(parser.Flush()); stop {
				return res
			}
			return segmentResult{}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return segmentResult{canceled: true}
			}
			return segmentResult{genErr: err}
		}

		var ds []directive.Directive
		if parser != nil {
			ds = parser.Feed(text)
		} else {
			ds = []directive.Directive{directive.Content(text)}
		}
		if res, stop := handle(ds); stop {
			// The remainder of the pass is discarded: generation resumes
			// on a fresh pass once the tool outcome is in the transcript.
			return res
		}
	}
}

// finishTurn closes any in-progress assistant turn and emits the terminal
// Done event. Every turn ending, clean or not, passes through Finalizing.
func (o *Orchestrator) finishTurn(ctx context.Context, emit EmitFunc, truncated bool) {
	o.state = StateFinalizing
	if o.conv.InProgress() {
		turn, err := o.conv.FinalizeAssistant(truncated)
		if err == nil {
			o.record(ctx, turn)
		}
	}
	o.emit(emit, core.DoneEvent(truncated))
}

func (o *Orchestrator) emit(emit EmitFunc, ev core.StreamEvent) {
	if err := emit(ev); err != nil {
		// The consumer is gone; keep the state machine consistent and let
		// context cancellation end the run.
		log.FromCtx(context.Background()).Debug().Err(err).Msg("emit failed")
	}
}

func (o *Orchestrator) record(ctx context.Context, turn core.Turn) {
	if o.journal == nil {
		return
	}
	if err := o.journal.AppendTurn(ctx, o.sessionID, turn); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to journal turn")
	}
}
