package event

import (
	"testing"

	"github.com/dealer/backend/internal/domain/deal"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newRecordingHandler()

	registry.Register(handler, deal.EventTypeDealCompleted, deal.EventTypeDealCancelled)
	registry.Register(handler, deal.EventTypeDealCompleted)

	assert.Len(t, registry.GetHandlers(deal.EventTypeDealCompleted), 1)
	assert.Len(t, registry.GetHandlers(deal.EventTypeDealCancelled), 1)
	assert.Empty(t, registry.GetHandlers(deal.EventTypeDealCreated))
}

func TestHandlerRegistry_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(typed, deal.EventTypeDealInvoiced)
	registry.Register(wildcard)

	handlers := registry.GetHandlers(deal.EventTypeDealInvoiced)
	assert.Len(t, handlers, 2)
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	assert.Len(t, registry.GetHandlers(deal.EventTypeDealDelivered), 1)
}

func TestHandlerRegistry_WildcardAlsoTyped(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newRecordingHandler()

	registry.Register(handler, deal.EventTypeDealCreated)
	registry.Register(handler)

	assert.Len(t, registry.GetHandlers(deal.EventTypeDealCreated), 1)
	assert.Len(t, registry.GetAllHandlers(), 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newRecordingHandler()
	b := newRecordingHandler()

	registry.Register(a, deal.EventTypeDealCreated, deal.EventTypeDealCompleted)
	registry.Register(b, deal.EventTypeDealCreated)
	registry.Register(a)

	registry.Unregister(a)

	assert.Len(t, registry.GetHandlers(deal.EventTypeDealCreated), 1)
	assert.Empty(t, registry.GetHandlers(deal.EventTypeDealCompleted))
	assert.Len(t, registry.GetAllHandlers(), 1)
}
