// Package document holds issued sales documents and their frozen snapshots.
package document

import (
	"fmt"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Type identifies the kind of document and its numbering sequence
type Type string

const (
	TypeDepositReceipt Type = "DEPOSIT_RECEIPT"
	TypeInvoice        Type = "INVOICE"
	TypePaymentReceipt Type = "PAYMENT_RECEIPT"
)

// DefaultPrefixes are used when no prefix is configured for a type
var DefaultPrefixes = map[Type]string{
	TypeDepositReceipt: "DR",
	TypeInvoice:        "INV",
	TypePaymentReceipt: "RC",
}

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	_, ok := DefaultPrefixes[t]
	return ok
}

// Regenerable reports whether an issued document of this type may be refreshed
func (t Type) Regenerable() bool {
	return t == TypeDepositReceipt
}

// Number is an allocated document number
type Number struct {
	Sequence int64
	Value    string
}

// FormatNumber renders a sequence with its prefix, e.g. INV-000042
func FormatNumber(prefix string, seq int64) string {
	if prefix == "" {
		return fmt.Sprintf("%06d", seq)
	}
	return fmt.Sprintf("%s-%06d", prefix, seq)
}

// SalesDocument is an issued receipt or invoice
type SalesDocument struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	DealID         uuid.UUID
	Type           Type
	DocumentNumber string
	Sequence       int64
	Snapshot       Snapshot
	ShareToken     string
	IssuedBy       string
	IssuedAt       time.Time
	RegeneratedAt  *time.Time
	Version        int
}

// NewSalesDocument freezes a snapshot under an allocated number
func NewSalesDocument(tenantID, dealID uuid.UUID, docType Type, number Number, snap Snapshot, issuedBy string, at time.Time) (*SalesDocument, error) {
	if !docType.IsValid() {
		return nil, shared.NewValidationError("Unknown document type %q", docType)
	}
	if number.Sequence <= 0 {
		return nil, shared.NewValidationError("Document number must be positive")
	}
	return &SalesDocument{
		ID:             uuid.New(),
		TenantID:       tenantID,
		DealID:         dealID,
		Type:           docType,
		DocumentNumber: number.Value,
		Sequence:       number.Sequence,
		Snapshot:       snap,
		IssuedBy:       issuedBy,
		IssuedAt:       at,
		Version:        1,
	}, nil
}

// Regenerate swaps in a freshly computed snapshot while keeping the payment
// history and the attribution of the original issue.
func (d *SalesDocument) Regenerate(fresh Snapshot, at time.Time) error {
	if !d.Type.Regenerable() {
		return shared.NewInvalidStateError("%s documents cannot be regenerated", d.Type)
	}
	fresh.Payments = d.Snapshot.Payments
	fresh.TakenBy = d.Snapshot.TakenBy
	d.Snapshot = fresh
	d.RegeneratedAt = &at
	d.Version++
	return nil
}
