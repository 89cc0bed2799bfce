package deal

import (
	"time"

	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDealInput opens a draft deal on a vehicle
type CreateDealInput struct {
	VehicleID         uuid.UUID
	CustomerID        *uuid.UUID
	VATScheme         deal.VATScheme
	VehiclePriceGross decimal.Decimal
	TakenBy           string
	Notes             string
}

// TakeDepositInput records a payment against a deal
type TakeDepositInput struct {
	Amount         decimal.Decimal
	Method         deal.PaymentMethod
	Type           deal.PaymentType
	PaidAt         *time.Time
	Reference      string
	TakenBy        string
	IdempotencyKey string
}

// CompleteDealInput controls completion
type CompleteDealInput struct {
	// ConfirmWithoutSettlement accepts finance-encumbered part-exchanges
	// with no settlement figure in writing
	ConfirmWithoutSettlement bool
	IssuedBy                 string
}

// DepositResult is returned by TakeDeposit
type DepositResult struct {
	Deal      *deal.Deal
	Payment   deal.Payment
	Receipt   *document.SalesDocument
	Duplicate bool
}

// TransitionResult is returned by plain forward transitions
type TransitionResult struct {
	Deal     *deal.Deal
	Document *document.SalesDocument
}

// CompletionResult reports the outcome of completing a deal. BalanceDue is
// informational and never blocks completion.
type CompletionResult struct {
	Deal       *deal.Deal
	BalanceDue decimal.Decimal
	FullyPaid  bool
	Conversion ConversionReport
	Invoice    *document.SalesDocument
}

// CancellationResult reports what cancelling a deal undid
type CancellationResult struct {
	Deal              *deal.Deal
	PreviousStatus    deal.Status
	CancelledRequests []uuid.UUID
	IssuesResolved    int64
	VehicleRestored   bool
	Reversal          ReversalReport
}
