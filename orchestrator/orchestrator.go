// Package orchestrator drives turn generation: given a meeting, a newly
// posted message, and either one target persona or the full crew, it emits
// exactly one reply message or a typed failure. It holds no state across
// calls; concurrent turns on different meetings never interfere, and
// ordering of interleaved turns on the same meeting is the store's
// per-meeting append-serialization contract.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/boardroom/crew"
	"github.com/BaSui01/boardroom/internal/telemetry"
	"github.com/BaSui01/boardroom/llm"
	"github.com/BaSui01/boardroom/prompt"
	"github.com/BaSui01/boardroom/store"
	"github.com/BaSui01/boardroom/types"
)

// Mode selects how a reply is produced.
type Mode string

const (
	// ModeSingle produces a reply from one target persona.
	ModeSingle Mode = "single"
	// ModeCrew produces one collaborative reply from the whole roster.
	ModeCrew Mode = "crew"
)

// Request parameterizes one turn.
type Request struct {
	MeetingID string
	Mode      Mode
	// PersonaID is required in ModeSingle and ignored in ModeCrew.
	PersonaID string
}

// TurnMetrics records turn outcomes. Implemented by internal/metrics.
type TurnMetrics interface {
	ObserveTurn(mode, state string, duration time.Duration)
}

// Orchestrator is the turn-generation state machine.
type Orchestrator struct {
	store     store.Store
	registry  *llm.Registry
	assembler *crew.Assembler
	runner    crew.Runner
	policy    llm.GenerationPolicy
	metrics   TurnMetrics
	tracer    trace.Tracer
	logger    *zap.Logger
}

// Option configures optional orchestrator collaborators.
type Option func(*Orchestrator)

// WithMetrics wires a turn-metrics sink.
func WithMetrics(m TurnMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator over its collaborators.
func New(s store.Store, registry *llm.Registry, assembler *crew.Assembler, runner crew.Runner, policy llm.GenerationPolicy, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		store:     s,
		registry:  registry,
		assembler: assembler,
		runner:    runner,
		policy:    policy,
		tracer:    otel.Tracer("boardroom/orchestrator"),
		logger:    logger.With(zap.String("component", "orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond drives one turn to Completed or Failed. On success exactly one
// reply message has been appended; on failure none has.
func (o *Orchestrator) Respond(ctx context.Context, req Request) (*types.Message, error) {
	start := time.Now()
	turn := &Turn{State: StateIdle, Mode: req.Mode, MeetingID: req.MeetingID, PersonaID: req.PersonaID}

	ctx, span := o.tracer.Start(ctx, "turn.respond", trace.WithAttributes(
		telemetry.MeetingID(req.MeetingID),
		telemetry.TurnMode(string(req.Mode)),
	))
	if req.Mode == ModeSingle {
		span.SetAttributes(telemetry.PersonaID(req.PersonaID))
	}
	defer span.End()

	msg, err := o.respond(ctx, turn)

	if o.metrics != nil {
		o.metrics.ObserveTurn(string(req.Mode), string(turn.State), time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		o.logger.Warn("turn failed",
			zap.String("meeting_id", req.MeetingID),
			zap.String("mode", string(req.Mode)),
			zap.String("state", string(turn.State)),
			zap.Error(err))
		return nil, err
	}
	o.logger.Info("turn completed",
		zap.String("meeting_id", req.MeetingID),
		zap.String("mode", string(req.Mode)),
		zap.String("message_id", msg.ID),
		zap.Duration("duration", time.Since(start)))
	return msg, nil
}

func (o *Orchestrator) respond(ctx context.Context, turn *Turn) (*types.Message, error) {
	turn.advance(StateValidating)

	meeting, err := o.store.GetMeeting(ctx, turn.MeetingID)
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}

	switch turn.Mode {
	case ModeSingle:
		persona, err := o.store.GetPersona(ctx, turn.PersonaID)
		if err != nil {
			turn.advance(StateFailed)
			return nil, err
		}
		turn.advance(StateSinglePersona)
		return o.respondSingle(ctx, turn, persona)

	case ModeCrew:
		roster, err := o.store.ListActivePersonas(ctx, meeting.PersonaIDs)
		if err != nil {
			turn.advance(StateFailed)
			return nil, err
		}
		if len(roster) == 0 {
			turn.advance(StateFailed)
			return nil, types.NotFound("no active personas found for this meeting")
		}
		history, err := o.store.ListMessages(ctx, turn.MeetingID)
		if err != nil {
			turn.advance(StateFailed)
			return nil, err
		}
		if len(history) == 0 {
			// an employee cannot respond to silence
			turn.advance(StateFailed)
			return nil, types.PreconditionFailed("no conversation history found for this meeting")
		}
		turn.advance(StateCrewMode)
		return o.respondCrew(ctx, turn, meeting, roster, history)

	default:
		turn.advance(StateFailed)
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown turn mode: %s", turn.Mode)).WithHTTPStatus(400)
	}
}

// respondSingle completes one persona's reply. A provider failure becomes
// the reply content so the conversation still advances; configuration
// errors and cancellation abort the turn with nothing written.
func (o *Orchestrator) respondSingle(ctx context.Context, turn *Turn, persona *types.Persona) (*types.Message, error) {
	history, err := o.store.ListMessages(ctx, turn.MeetingID)
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}

	systemPrompt := persona.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompt.Synthesize(*persona)
	}

	provider, err := o.registry.Resolve(string(persona.Provider))
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(telemetry.UpstreamProvider(provider.Name()))

	resp, err := provider.Completion(ctx, &llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		PersonaName:  persona.Name,
		Model:        persona.Model,
		History:      history,
		Policy:       o.policy,
	})

	var content string
	switch {
	case err == nil:
		content = resp.Content
	case ctx.Err() != nil:
		// cancelled or timed out: all-or-nothing, append nothing
		turn.advance(StateFailed)
		return nil, types.ProviderFailure(string(persona.Provider), ctx.Err())
	case types.IsCode(err, types.ErrConfiguration):
		turn.advance(StateFailed)
		return nil, err
	default:
		// surface the failure as reply content rather than dropping the
		// user's message without response
		content = fmt.Sprintf("Error generating response: %s", err.Error())
	}

	msg, err := o.store.AppendMessage(ctx, store.MessageAppend{
		MeetingID:  turn.MeetingID,
		Content:    content,
		SenderKind: types.SenderPersona,
		SenderID:   persona.ID,
		SenderName: persona.Name,
	})
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}
	turn.advance(StateCompleted)
	return msg, nil
}

// respondCrew assembles the roster into a hierarchical crew, builds a task
// from the most recent message, and executes it. Execution errors abort
// the turn: a partially delegated answer is never persisted as complete.
func (o *Orchestrator) respondCrew(ctx context.Context, turn *Turn, meeting *types.Meeting, roster []types.Persona, history []types.Message) (*types.Message, error) {
	c, err := o.assembler.Assemble(roster)
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}

	newest := history[len(history)-1]
	task, err := o.assembler.BuildTask(meeting, &newest)
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}

	answer, err := o.runner.Run(ctx, c, task)
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}
	if ctx.Err() != nil {
		turn.advance(StateFailed)
		return nil, types.ProviderFailure("crew", ctx.Err())
	}

	msg, err := o.store.AppendMessage(ctx, store.MessageAppend{
		MeetingID:  turn.MeetingID,
		Content:    answer,
		SenderKind: types.SenderPersona,
		SenderID:   types.CrewSenderID,
		SenderName: types.CrewSenderName,
	})
	if err != nil {
		turn.advance(StateFailed)
		return nil, err
	}
	turn.advance(StateCompleted)
	return msg, nil
}
