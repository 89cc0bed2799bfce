// Package testutil holds fakes and helpers shared by the dealer backend tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EventRecorder subscribes to an event bus and keeps what it receives
type EventRecorder struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
}

// NewEventRecorder listens to the given types; none means every type
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{types: eventTypes}
}

func (r *EventRecorder) EventTypes() []string { return r.types }

func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

// FailWith makes Handle return err after recording the event
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Types lists received event types in arrival order
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

// ForAggregate returns the received events raised by one deal
func (r *EventRecorder) ForAggregate(id uuid.UUID) []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range r.events {
		if e.AggregateID() == id {
			out = append(out, e)
		}
	}
	return out
}

// Count is the number of events received so far
func (r *EventRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// ForeignEvent is an event no deal handler knows about
type ForeignEvent struct {
	shared.BaseDomainEvent
}

// NewForeignEvent builds an event of an arbitrary type for tenantID
func NewForeignEvent(eventType string, tenantID uuid.UUID) *ForeignEvent {
	return &ForeignEvent{BaseDomainEvent: shared.BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		TenantIDValue: tenantID,
		Timestamp:     time.Now(),
		AggID:         uuid.New(),
		AggType:       "Unknown",
	}}
}

// WaitForCondition polls condition until it holds or timeout passes
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}

// WaitForEvents waits until the recorder holds at least n events
func WaitForEvents(t *testing.T, r *EventRecorder, n int, timeout time.Duration) bool {
	t.Helper()
	return WaitForCondition(t, func() bool { return r.Count() >= n }, timeout, 10*time.Millisecond)
}
