package deal

import (
	"strings"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCancelReason is recorded when an open deal is cancelled without a reason
const DefaultCancelReason = "Deal cancelled"

// Deal is the sale of one vehicle to one customer. It owns its add-ons,
// part-exchanges, payments and requests; the vehicle is referenced by id.
type Deal struct {
	shared.TenantAggregateRoot
	VehicleID        uuid.UUID
	CustomerID       *uuid.UUID
	Status           Status
	VATScheme        VATScheme
	VehiclePrice     valueobject.Breakdown
	VehicleCostNet   decimal.Decimal
	AddOns           []AddOn
	Delivery         Delivery
	Warranty         Warranty
	FinanceSelection FinanceSelection
	PartExchanges    []PartExchange
	Payments         []Payment
	Signature        Signature
	Requests         []Request
	CostAdjustments  []CostAdjustment
	Notes            string
	TakenBy          string
	DepositTakenAt   *time.Time
	InvoicedAt       *time.Time
	DeliveredAt      *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string
}

// NewDeal creates a draft deal for a vehicle
func NewDeal(tenantID, vehicleID uuid.UUID, scheme VATScheme, priceGross, vehicleCostNet decimal.Decimal, takenBy string) (*Deal, error) {
	if vehicleID == uuid.Nil {
		return nil, shared.NewValidationError("Vehicle ID is required")
	}
	if !scheme.IsValid() {
		return nil, shared.NewValidationError("Unknown VAT scheme %q", scheme)
	}
	if priceGross.IsNegative() {
		return nil, shared.NewValidationError("Vehicle price cannot be negative")
	}

	d := &Deal{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VehicleID:           vehicleID,
		Status:              StatusDraft,
		VATScheme:           scheme,
		VehiclePrice:        VehicleBreakdown(scheme, priceGross),
		VehicleCostNet:      vehicleCostNet,
		AddOns:              make([]AddOn, 0),
		PartExchanges:       make([]PartExchange, 0),
		Payments:            make([]Payment, 0),
		Requests:            make([]Request, 0),
		CostAdjustments:     make([]CostAdjustment, 0),
		TakenBy:             strings.TrimSpace(takenBy),
	}
	d.AddDomainEvent(NewDealCreatedEvent(d))
	return d, nil
}

// PricingInput builds the calculator input from the deal's current state
func (d *Deal) PricingInput() PricingInput {
	return PricingInput{
		Scheme:            d.VATScheme,
		VehiclePriceGross: d.VehiclePrice.Gross,
		AddOns:            d.AddOns,
		Delivery:          d.Delivery,
		Warranty:          d.Warranty,
		PartExchanges:     d.PartExchanges,
		Payments:          d.Payments,
		VehicleCostNet:    d.VehicleCostNet,
		CostAdjustments:   d.CostAdjustments,
	}
}

// Totals runs the calculator over the deal
func (d *Deal) Totals() Totals {
	return Calculate(d.PricingInput())
}

// SetCustomer links the buying customer
func (d *Deal) SetCustomer(customerID uuid.UUID) error {
	if d.Status == StatusCancelled {
		return shared.NewInvalidStateError("Cancelled deals cannot be edited")
	}
	if customerID == uuid.Nil {
		return shared.NewValidationError("Customer ID is required")
	}
	d.CustomerID = &customerID
	return nil
}

// DepositInput describes a payment being taken
type DepositInput struct {
	Amount         decimal.Decimal
	Method         PaymentMethod
	Type           PaymentType
	PaidAt         time.Time
	Reference      string
	TakenBy        string
	IdempotencyKey string
}

// TakeDeposit appends a payment to the ledger. A payment carrying an
// idempotency key already on the ledger is returned with duplicate=true and
// nothing changes.
func (d *Deal) TakeDeposit(in DepositInput) (payment *Payment, duplicate bool, err error) {
	if d.Status == StatusCancelled || d.Status == StatusCompleted {
		return nil, false, shared.NewValidationError("Cannot take a payment on a %s deal", strings.ToLower(d.Status.String())).
			WithDetail("status", d.Status.String())
	}
	if in.IdempotencyKey != "" {
		for i := range d.Payments {
			if d.Payments[i].IdempotencyKey == in.IdempotencyKey {
				return &d.Payments[i], true, nil
			}
		}
	}
	if !in.Amount.IsPositive() {
		return nil, false, shared.NewValidationError("Deposit amount must be greater than zero").WithDetail("field", "amount")
	}
	if in.Method == "" {
		return nil, false, shared.NewValidationError("Payment method is required").WithDetail("field", "method")
	}
	if !in.Method.IsValid() {
		return nil, false, shared.NewValidationError("Unknown payment method %q", in.Method).WithDetail("field", "method")
	}
	if d.CustomerID == nil {
		return nil, false, shared.NewValidationError("A customer must be linked before taking a deposit").WithDetail("field", "customerId")
	}

	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	paymentType := in.Type
	if paymentType == "" {
		paymentType = PaymentTypeDeposit
	}
	takenBy := strings.TrimSpace(in.TakenBy)
	if takenBy == "" {
		takenBy = d.TakenBy
	}

	d.Payments = append(d.Payments, Payment{
		ID:             uuid.New(),
		Type:           paymentType,
		Amount:         valueobject.RoundMoney(in.Amount),
		Method:         in.Method,
		PaidAt:         paidAt,
		Reference:      strings.TrimSpace(in.Reference),
		TakenBy:        takenBy,
		IdempotencyKey: in.IdempotencyKey,
	})
	payment = &d.Payments[len(d.Payments)-1]

	if d.DepositTakenAt == nil {
		d.DepositTakenAt = &paidAt
	}
	from := d.Status
	if d.Status == StatusDraft {
		d.Status = StatusDepositTaken
	}
	d.AddDomainEvent(NewDepositTakenEvent(d, from, *payment))
	return payment, false, nil
}

// RefundPayment flags a payment as refunded. The entry stays on the ledger.
func (d *Deal) RefundPayment(paymentID uuid.UUID, at time.Time) error {
	for i := range d.Payments {
		if d.Payments[i].ID != paymentID {
			continue
		}
		if d.Payments[i].IsRefunded {
			return shared.NewInvalidStateError("Payment %s is already refunded", paymentID)
		}
		d.Payments[i].IsRefunded = true
		d.Payments[i].RefundedAt = &at
		return nil
	}
	return shared.NewNotFoundError("payment", paymentID)
}

// Sign records one party's signature
func (d *Deal) Sign(party SignatureParty, name string, at time.Time) error {
	if !d.Status.IsOpen() {
		return shared.NewInvalidStateError("Cannot sign a %s deal", strings.ToLower(d.Status.String()))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Signer name is required").WithDetail("field", "name")
	}
	switch party {
	case PartyCustomer:
		d.Signature.CustomerName = name
		d.Signature.CustomerSignedAt = &at
	case PartyDealer:
		d.Signature.DealerName = name
		d.Signature.DealerSignedAt = &at
	default:
		return shared.NewValidationError("Unknown signature party %q", party).WithDetail("field", "party")
	}
	return nil
}

// MarkInvoiced moves the deal to INVOICED
func (d *Deal) MarkInvoiced(at time.Time) error {
	if err := ValidateTransition(d.Status, StatusInvoiced); err != nil {
		return err
	}
	if d.CustomerID == nil {
		return shared.NewValidationError("A customer must be linked before invoicing").WithDetail("field", "customerId")
	}
	from := d.Status
	d.Status = StatusInvoiced
	d.InvoicedAt = &at
	d.AddDomainEvent(NewStatusChangedEvent(EventTypeDealInvoiced, d, from))
	return nil
}

// MarkDelivered moves the deal to DELIVERED
func (d *Deal) MarkDelivered(at time.Time) error {
	if err := ValidateTransition(d.Status, StatusDelivered); err != nil {
		return err
	}
	from := d.Status
	d.Status = StatusDelivered
	d.DeliveredAt = &at
	d.AddDomainEvent(NewStatusChangedEvent(EventTypeDealDelivered, d, from))
	return nil
}

// CheckCompletion runs every completion guard without changing the deal.
// A *shared.ConfirmationRequiredError means only the soft check failed.
func (d *Deal) CheckCompletion(confirmWithoutSettlement bool) error {
	if err := checkCompletable(d.Status); err != nil {
		return err
	}
	if err := checkSignatures(d.Signature); err != nil {
		return err
	}
	return checkPartExchangeFinance(d.PartExchanges, confirmWithoutSettlement)
}

// Complete marks the deal COMPLETED after the guards pass
func (d *Deal) Complete(at time.Time, confirmWithoutSettlement bool) error {
	if err := d.CheckCompletion(confirmWithoutSettlement); err != nil {
		return err
	}
	from := d.Status
	d.Status = StatusCompleted
	d.CompletedAt = &at
	d.AddDomainEvent(NewDealCompletedEvent(d, from))
	return nil
}

// CancelOutcome reports what cancellation changed on the deal
type CancelOutcome struct {
	WasCompleted     bool
	PreviousStatus   Status
	CancelledRequest []uuid.UUID
	// IssuesToResolve are vehicle issues linked from cancelled requests
	IssuesToResolve []uuid.UUID
}

// Cancel cancels the deal. A completed deal needs a reason.
func (d *Deal) Cancel(reason string, at time.Time) (CancelOutcome, error) {
	if d.Status == StatusCancelled {
		return CancelOutcome{}, shared.NewInvalidStateError("Deal is already cancelled")
	}
	if err := ValidateTransition(d.Status, StatusCancelled); err != nil {
		return CancelOutcome{}, err
	}
	reason = strings.TrimSpace(reason)
	wasCompleted := d.Status == StatusCompleted
	if reason == "" {
		if wasCompleted {
			return CancelOutcome{}, shared.NewValidationError("A reason is required to cancel a completed deal").
				WithDetail("field", "reason")
		}
		reason = DefaultCancelReason
	}

	out := CancelOutcome{WasCompleted: wasCompleted, PreviousStatus: d.Status}
	for i := range d.Requests {
		r := &d.Requests[i]
		if r.Status != RequestRequested && r.Status != RequestInProgress {
			continue
		}
		r.Status = RequestCancelled
		out.CancelledRequest = append(out.CancelledRequest, r.ID)
		if r.VehicleIssueID != nil {
			out.IssuesToResolve = append(out.IssuesToResolve, *r.VehicleIssueID)
		}
	}

	d.Status = StatusCancelled
	d.CancelledAt = &at
	d.CancelReason = reason
	d.AddDomainEvent(NewDealCancelledEvent(d, out.PreviousStatus))
	return out, nil
}

// PendingConversions returns the indexes of part-exchanges that still need
// a stock vehicle created
func (d *Deal) PendingConversions() []int {
	idx := make([]int, 0, len(d.PartExchanges))
	for i, px := range d.PartExchanges {
		if !px.IsConverted() {
			idx = append(idx, i)
		}
	}
	return idx
}

// MarkPartExchangeConverted records the vehicle created from a trade-in
func (d *Deal) MarkPartExchangeConverted(index int, vehicleID uuid.UUID, at time.Time) {
	d.PartExchanges[index].ConvertedToVehicleID = &vehicleID
	d.PartExchanges[index].ConvertedAt = &at
}

// ClearPartExchangeConversion forgets a converted vehicle that has been removed
func (d *Deal) ClearPartExchangeConversion(index int) {
	d.PartExchanges[index].ConvertedToVehicleID = nil
	d.PartExchanges[index].ConvertedAt = nil
}
