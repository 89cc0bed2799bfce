package vehicle

import (
	"errors"
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncAt = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newStockVehicle(t *testing.T) *Vehicle {
	t.Helper()
	v, err := NewVehicle(uuid.New(), "ab12 cde", "Ford", "Focus", 2019)
	require.NoError(t, err)
	return v
}

func TestSynchronize_Lifecycle(t *testing.T) {
	v := newStockVehicle(t)
	dealID := uuid.New()

	changed, err := Synchronize(v, DealEventDeposit, dealID, syncAt)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, SalesStatusInDeal, v.SalesStatus)
	assert.Equal(t, StockStatusInStock, v.Status)

	changed, err = Synchronize(v, DealEventDeposit, dealID, syncAt)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = Synchronize(v, DealEventCompleted, dealID, syncAt)
	require.NoError(t, err)
	assert.Equal(t, SalesStatusCompleted, v.SalesStatus)
	assert.Equal(t, StockStatusSold, v.Status)
	assert.Equal(t, dealID, *v.SoldDealID)
	assert.Equal(t, syncAt, *v.SoldAt)
	assert.Equal(t, "already sold", v.ProgressReason())

	_, err = Synchronize(v, DealEventCancelledSettled, dealID, syncAt)
	require.NoError(t, err)
	assert.Equal(t, SalesStatusAvailable, v.SalesStatus)
	assert.Equal(t, StockStatusInStock, v.Status)
	assert.Nil(t, v.SoldDealID)
	assert.Nil(t, v.SoldAt)
	assert.True(t, v.IsAvailable())
}

func TestSynchronize_CancelOpenDeal(t *testing.T) {
	v := newStockVehicle(t)
	_, err := Synchronize(v, DealEventDeposit, uuid.New(), syncAt)
	require.NoError(t, err)
	assert.Equal(t, "already in a deal", v.ProgressReason())

	_, err = Synchronize(v, DealEventCancelledOpen, uuid.New(), syncAt)
	require.NoError(t, err)
	assert.Equal(t, SalesStatusAvailable, v.SalesStatus)
	assert.Nil(t, v.SoldAt)
	assert.Empty(t, v.ProgressReason())
}

func TestSynchronize_DepositOnSoldVehicle(t *testing.T) {
	v := newStockVehicle(t)
	_, err := Synchronize(v, DealEventCompleted, uuid.New(), syncAt)
	require.NoError(t, err)

	_, err = Synchronize(v, DealEventDeposit, uuid.New(), syncAt)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestNewVehicle_InvalidVRM(t *testing.T) {
	_, err := NewVehicle(uuid.New(), "!!", "Ford", "Ka", 2010)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
