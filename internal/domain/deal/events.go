package deal

import (
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeDeal = "Deal"

// Event type constants
const (
	EventTypeDealCreated      = "deal.created"
	EventTypeDealDepositTaken = "deal.deposit_taken"
	EventTypeDealInvoiced     = "deal.invoiced"
	EventTypeDealDelivered    = "deal.delivered"
	EventTypeDealCompleted    = "deal.completed"
	EventTypeDealCancelled    = "deal.cancelled"
)

// DealCreatedEvent is raised when a draft deal is opened on a vehicle
type DealCreatedEvent struct {
	shared.BaseDomainEvent
	DealID    uuid.UUID `json:"deal_id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	VATScheme VATScheme `json:"vat_scheme"`
	TakenBy   string    `json:"taken_by"`
}

// NewDealCreatedEvent creates a new DealCreatedEvent
func NewDealCreatedEvent(d *Deal) *DealCreatedEvent {
	return &DealCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealCreated, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		VehicleID:       d.VehicleID,
		VATScheme:       d.VATScheme,
		TakenBy:         d.TakenBy,
	}
}

// DepositTakenEvent is raised for every payment taken on a deal
type DepositTakenEvent struct {
	shared.BaseDomainEvent
	DealID     uuid.UUID       `json:"deal_id"`
	VehicleID  uuid.UUID       `json:"vehicle_id"`
	FromStatus Status          `json:"from_status"`
	ToStatus   Status          `json:"to_status"`
	PaymentID  uuid.UUID       `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method"`
	TakenBy    string          `json:"taken_by"`
}

// NewDepositTakenEvent creates a new DepositTakenEvent
func NewDepositTakenEvent(d *Deal, from Status, p Payment) *DepositTakenEvent {
	return &DepositTakenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealDepositTaken, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		VehicleID:       d.VehicleID,
		FromStatus:      from,
		ToStatus:        d.Status,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		Method:          p.Method,
		TakenBy:         p.TakenBy,
	}
}

// StatusChangedEvent covers the plain forward moves (invoiced, delivered)
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	DealID     uuid.UUID `json:"deal_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
}

// NewStatusChangedEvent creates a StatusChangedEvent of the given type
func NewStatusChangedEvent(eventType string, d *Deal, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		VehicleID:       d.VehicleID,
		FromStatus:      from,
		ToStatus:        d.Status,
	}
}

// DealCompletedEvent is raised when the sale is completed
type DealCompletedEvent struct {
	shared.BaseDomainEvent
	DealID     uuid.UUID       `json:"deal_id"`
	VehicleID  uuid.UUID       `json:"vehicle_id"`
	FromStatus Status          `json:"from_status"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

// NewDealCompletedEvent creates a new DealCompletedEvent
func NewDealCompletedEvent(d *Deal, from Status) *DealCompletedEvent {
	totals := d.Totals()
	return &DealCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealCompleted, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		VehicleID:       d.VehicleID,
		FromStatus:      from,
		GrandTotal:      totals.GrandTotal,
		BalanceDue:      totals.BalanceDue,
	}
}

// DealCancelledEvent is raised when a deal is cancelled
type DealCancelledEvent struct {
	shared.BaseDomainEvent
	DealID     uuid.UUID `json:"deal_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	FromStatus Status    `json:"from_status"`
	Reason     string    `json:"reason"`
}

// NewDealCancelledEvent creates a new DealCancelledEvent
func NewDealCancelledEvent(d *Deal, from Status) *DealCancelledEvent {
	return &DealCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealCancelled, AggregateTypeDeal, d.ID, d.TenantID),
		DealID:          d.ID,
		VehicleID:       d.VehicleID,
		FromStatus:      from,
		Reason:          d.CancelReason,
	}
}
