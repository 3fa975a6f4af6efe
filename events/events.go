package events

import (
	"context"
	"sync"

	"seraphina/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeCreditChange EventType = "credit_change"
	EventTypeUserSeeded   EventType = "user_seeded"
	EventTypeJobFinished  EventType = "job_finished"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// CreditChangeEvent represents a credit mutation that occurred
type CreditChangeEvent struct {
	UserID        string
	CreditsBefore int64
	CreditsAfter  int64
	ChangeAmount  int64
	Reason        models.ChangeReason
}

func (e CreditChangeEvent) Type() EventType {
	return EventTypeCreditChange
}

// UserSeededEvent represents a user being lazily created with the
// default starting balance
type UserSeededEvent struct {
	UserID          string
	StartingCredits int64
}

func (e UserSeededEvent) Type() EventType {
	return EventTypeUserSeeded
}

// JobFinishedEvent represents a capability job completing, successfully
// or not, after delivery was attempted
type JobFinishedEvent struct {
	JobID      string
	UserID     string
	Capability models.Capability
	Success    bool
}

func (e JobFinishedEvent) Type() EventType {
	return EventTypeJobFinished
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and
// forwards them to the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events outlive the transaction context.
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
