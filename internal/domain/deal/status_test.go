package deal

import (
	"errors"
	"testing"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusDepositTaken, true},
		{StatusDraft, StatusInvoiced, true},
		{StatusDraft, StatusCompleted, false},
		{StatusDraft, StatusCancelled, true},
		{StatusDepositTaken, StatusCompleted, true},
		{StatusDepositTaken, StatusDraft, false},
		{StatusInvoiced, StatusDelivered, true},
		{StatusInvoiced, StatusDepositTaken, false},
		{StatusDelivered, StatusCompleted, true},
		{StatusDelivered, StatusInvoiced, false},
		{StatusCompleted, StatusCancelled, true},
		{StatusCompleted, StatusDelivered, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCancelled, StatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_AtLeast(t *testing.T) {
	assert.True(t, StatusDelivered.AtLeast(StatusInvoiced))
	assert.True(t, StatusInvoiced.AtLeast(StatusInvoiced))
	assert.False(t, StatusDepositTaken.AtLeast(StatusInvoiced))
	assert.False(t, StatusCancelled.AtLeast(StatusDraft))
}

func TestStatus_IsOpen(t *testing.T) {
	assert.True(t, StatusDraft.IsOpen())
	assert.True(t, StatusDelivered.IsOpen())
	assert.False(t, StatusCompleted.IsOpen())
	assert.False(t, StatusCancelled.IsOpen())
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusDraft, StatusInvoiced))

	err := ValidateTransition(StatusDelivered, StatusInvoiced)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	err = ValidateTransition(StatusCancelled, StatusCompleted)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Contains(t, err.Error(), "cancelled")
}
