package deal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType classifies a payment on the ledger
type PaymentType string

const (
	PaymentTypeDeposit PaymentType = "DEPOSIT"
	PaymentTypePart    PaymentType = "PART_PAYMENT"
	PaymentTypeBalance PaymentType = "BALANCE"
)

// PaymentMethod is how the money was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodFinance      PaymentMethod = "FINANCE"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodFinance, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is one entry on the append-only ledger. Refunds flip IsRefunded,
// entries are never removed.
type Payment struct {
	ID             uuid.UUID       `json:"id"`
	Type           PaymentType     `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
	PaidAt         time.Time       `json:"paidAt"`
	Reference      string          `json:"reference,omitempty"`
	TakenBy        string          `json:"takenBy,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	IsRefunded     bool            `json:"isRefunded"`
	RefundedAt     *time.Time      `json:"refundedAt,omitempty"`
}

// Counts reports whether the payment contributes to the paid total
func (p Payment) Counts() bool {
	return !p.IsRefunded
}
