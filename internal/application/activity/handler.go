// Package activity writes the deal timeline from deal events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dealer/backend/internal/domain/activity"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DealActivityHandler records every deal event as a timeline entry
type DealActivityHandler struct {
	repo   activity.Repository
	logger *zap.Logger
}

// NewDealActivityHandler creates a new handler for deal events
func NewDealActivityHandler(repo activity.Repository, logger *zap.Logger) *DealActivityHandler {
	return &DealActivityHandler{repo: repo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *DealActivityHandler) EventTypes() []string {
	return []string{
		deal.EventTypeDealCreated,
		deal.EventTypeDealDepositTaken,
		deal.EventTypeDealInvoiced,
		deal.EventTypeDealDelivered,
		deal.EventTypeDealCompleted,
		deal.EventTypeDealCancelled,
	}
}

// Handle stores the event on the deal's timeline
func (h *DealActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	dealID, summary, err := describe(event)
	if err != nil {
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
			zap.Error(err),
		)
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.EventType(), err)
	}

	entry := &activity.Entry{
		ID:         uuid.New(),
		TenantID:   event.TenantID(),
		DealID:     dealID,
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		Summary:    summary,
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	}
	if err := h.repo.Append(ctx, entry); err != nil {
		h.logger.Warn("failed to record deal activity",
			zap.String("deal_id", dealID.String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return fmt.Errorf("append activity: %w", err)
	}

	h.logger.Debug("deal activity recorded",
		zap.String("deal_id", dealID.String()),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

func describe(event shared.DomainEvent) (uuid.UUID, string, error) {
	switch e := event.(type) {
	case *deal.DealCreatedEvent:
		summary := "Deal opened"
		if e.TakenBy != "" {
			summary += " by " + e.TakenBy
		}
		return e.DealID, summary, nil
	case *deal.DepositTakenEvent:
		summary := fmt.Sprintf("%s payment of £%s taken", strings.ToLower(string(e.Method)), e.Amount.StringFixed(2))
		if e.TakenBy != "" {
			summary += " by " + e.TakenBy
		}
		return e.DealID, summary, nil
	case *deal.StatusChangedEvent:
		return e.DealID, fmt.Sprintf("Status changed from %s to %s", e.FromStatus, e.ToStatus), nil
	case *deal.DealCompletedEvent:
		summary := "Deal completed"
		if e.BalanceDue.IsPositive() {
			summary += fmt.Sprintf(" with £%s outstanding", e.BalanceDue.StringFixed(2))
		}
		return e.DealID, summary, nil
	case *deal.DealCancelledEvent:
		return e.DealID, fmt.Sprintf("Deal cancelled: %s", e.Reason), nil
	}
	return uuid.Nil, "", fmt.Errorf("unsupported event %T", event)
}

var _ shared.EventHandler = (*DealActivityHandler)(nil)
