package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/dealer/backend/internal/domain/activity"
	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockActivityRepository is a mock implementation of activity.Repository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, e *activity.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockActivityRepository) ListByDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]activity.Entry, error) {
	args := m.Called(ctx, tenantID, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]activity.Entry), args.Error(1)
}

func newDeal(t *testing.T) *deal.Deal {
	t.Helper()
	d, err := deal.NewDeal(uuid.New(), uuid.New(), deal.VATSchemeMargin, decimal.NewFromInt(5000), decimal.Zero, "Sam Sales")
	require.NoError(t, err)
	return d
}

func TestDealActivityHandler_Handle(t *testing.T) {
	d := newDeal(t)
	repo := new(MockActivityRepository)
	repo.On("Append", mock.Anything, mock.MatchedBy(func(e *activity.Entry) bool {
		return e.DealID == d.ID &&
			e.TenantID == d.TenantID &&
			e.EventType == deal.EventTypeDealCreated &&
			e.Summary == "Deal opened by Sam Sales" &&
			len(e.Payload) > 0
	})).Return(nil)

	h := NewDealActivityHandler(repo, zap.NewNop())
	require.NoError(t, h.Handle(context.Background(), d.GetDomainEvents()[0]))
	repo.AssertExpectations(t)
}

func TestDealActivityHandler_Summaries(t *testing.T) {
	d := newDeal(t)
	tests := []struct {
		name  string
		event shared.DomainEvent
		want  string
	}{
		{
			name:  "deposit",
			event: deal.NewDepositTakenEvent(d, deal.StatusDraft, deal.Payment{Amount: decimal.NewFromInt(250), Method: deal.PaymentMethodCard, TakenBy: "Alex"}),
			want:  "card payment of £250.00 taken by Alex",
		},
		{
			name:  "invoiced",
			event: deal.NewStatusChangedEvent(deal.EventTypeDealInvoiced, d, deal.StatusDraft),
			want:  "Status changed from DRAFT to DRAFT",
		},
		{
			name:  "cancelled",
			event: &deal.DealCancelledEvent{Reason: "No finance"},
			want:  "Deal cancelled: No finance",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, summary, err := describe(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary)
		})
	}
}

func TestDealActivityHandler_AppendFailure(t *testing.T) {
	d := newDeal(t)
	repo := new(MockActivityRepository)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("db down"))

	h := NewDealActivityHandler(repo, zap.NewNop())
	err := h.Handle(context.Background(), d.GetDomainEvents()[0])
	assert.Error(t, err)
}

func TestDealActivityHandler_UnknownEvent(t *testing.T) {
	h := NewDealActivityHandler(new(MockActivityRepository), zap.NewNop())
	err := h.Handle(context.Background(), testutil.NewForeignEvent("other.event", uuid.New()))
	assert.Error(t, err)
}
