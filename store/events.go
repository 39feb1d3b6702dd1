package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventType identifies a domain event.
type EventType string

const (
	// EventPersonaDeactivated fires after a persona soft-delete commits.
	EventPersonaDeactivated EventType = "persona_deactivated"
)

// Event is a domain event emitted by the store.
type Event interface {
	Type() EventType
}

// PersonaDeactivated signals that a persona was soft-deleted and must be
// retracted from any meeting roster that still references it.
type PersonaDeactivated struct {
	PersonaID string
}

func (PersonaDeactivated) Type() EventType { return EventPersonaDeactivated }

// EventHandler consumes one event. Dispatch is synchronous so that the
// deletion operation and its side effects stay in one causal order; a
// panicking handler is recovered and logged, never propagated.
type EventHandler func(ctx context.Context, event Event)

// EventBus is a minimal synchronous pub/sub for store domain events.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
	logger   *zap.Logger
}

// NewEventBus creates an event bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
		logger:   logger.With(zap.String("component", "event_bus")),
	}
}

// Subscribe registers a handler for an event type.
func (b *EventBus) Subscribe(t EventType, h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish dispatches an event to all subscribed handlers, in order.
func (b *EventBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type()]
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked",
						zap.String("event", string(event.Type())),
						zap.Any("recover", r))
				}
			}()
			h(ctx, event)
		}()
	}
}

// RosterJanitor keeps meeting rosters consistent with persona lifecycle:
// when a persona is deactivated, its id is scrubbed from every roster.
// Separated from the delete operation itself so both stay independently
// testable.
type RosterJanitor struct {
	meetings MeetingStore
	logger   *zap.Logger
}

// NewRosterJanitor creates a janitor over the given meeting store.
func NewRosterJanitor(meetings MeetingStore, logger *zap.Logger) *RosterJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterJanitor{
		meetings: meetings,
		logger:   logger.With(zap.String("component", "roster_janitor")),
	}
}

// Bind subscribes the janitor to persona-deactivation events.
func (j *RosterJanitor) Bind(bus *EventBus) {
	bus.Subscribe(EventPersonaDeactivated, func(ctx context.Context, event Event) {
		e, ok := event.(PersonaDeactivated)
		if !ok {
			return
		}
		if err := j.meetings.RemovePersonaFromRosters(ctx, e.PersonaID); err != nil {
			j.logger.Error("roster scrub failed",
				zap.String("persona_id", e.PersonaID),
				zap.Error(err))
			return
		}
		j.logger.Info("scrubbed persona from rosters", zap.String("persona_id", e.PersonaID))
	})
}
