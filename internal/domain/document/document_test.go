package document

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "INV-000042", FormatNumber("INV", 42))
	assert.Equal(t, "DR-1234567", FormatNumber("DR", 1234567))
	assert.Equal(t, "000007", FormatNumber("", 7))
}

func TestNewSalesDocument(t *testing.T) {
	_, err := NewSalesDocument(uuid.New(), uuid.New(), Type("QUOTE"), Number{Sequence: 1, Value: "Q-1"}, Snapshot{}, "Sam", time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewSalesDocument(uuid.New(), uuid.New(), TypeInvoice, Number{}, Snapshot{}, "Sam", time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	doc, err := NewSalesDocument(uuid.New(), uuid.New(), TypeInvoice, Number{Sequence: 3, Value: "INV-000003"}, Snapshot{}, "Sam", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "INV-000003", doc.DocumentNumber)
}

func TestSalesDocument_RegenerateCarriesHistory(t *testing.T) {
	paidAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	original := Snapshot{
		Notes:   "Collect Saturday",
		TakenBy: "Sam Seller",
		Payments: []PaymentInfo{
			{ID: uuid.New(), Type: "DEPOSIT", Amount: decimal.NewFromInt(500), Method: "CARD", PaidAt: paidAt},
		},
		Totals: TotalsInfo{GrandTotal: decimal.NewFromInt(10000)},
	}
	doc, err := NewSalesDocument(uuid.New(), uuid.New(), TypeDepositReceipt, Number{Sequence: 1, Value: "DR-000001"}, original, "Sam Seller", paidAt)
	require.NoError(t, err)
	before, err := json.Marshal(struct {
		P []PaymentInfo
		T string
	}{doc.Snapshot.Payments, doc.Snapshot.TakenBy})
	require.NoError(t, err)

	fresh := Snapshot{
		Notes:   "Deliver Monday",
		TakenBy: "Someone Else",
		Payments: []PaymentInfo{
			{ID: uuid.New(), Type: "BALANCE", Amount: decimal.NewFromInt(9500), Method: "BANK_TRANSFER", PaidAt: time.Now()},
		},
		Totals: TotalsInfo{GrandTotal: decimal.NewFromInt(10150)},
	}
	require.NoError(t, doc.Regenerate(fresh, time.Now()))

	after, err := json.Marshal(struct {
		P []PaymentInfo
		T string
	}{doc.Snapshot.Payments, doc.Snapshot.TakenBy})
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, "Deliver Monday", doc.Snapshot.Notes)
	assert.True(t, decimal.NewFromInt(10150).Equal(doc.Snapshot.Totals.GrandTotal))
	assert.Equal(t, "DR-000001", doc.DocumentNumber)
	assert.Equal(t, 2, doc.Version)
	assert.NotNil(t, doc.RegeneratedAt)
}

func TestSalesDocument_InvoiceNotRegenerable(t *testing.T) {
	doc, err := NewSalesDocument(uuid.New(), uuid.New(), TypeInvoice, Number{Sequence: 1, Value: "INV-000001"}, Snapshot{Notes: "a"}, "Sam", time.Now())
	require.NoError(t, err)
	err = doc.Regenerate(Snapshot{Notes: "b"}, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, "a", doc.Snapshot.Notes)
}
