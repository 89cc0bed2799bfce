package vehicle

import (
	"time"

	"github.com/dealer/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DealEvent is a deal transition the vehicle must follow
type DealEvent string

const (
	DealEventDeposit          DealEvent = "DEPOSIT"
	DealEventCompleted        DealEvent = "COMPLETED"
	DealEventCancelledOpen    DealEvent = "CANCELLED_OPEN"
	DealEventCancelledSettled DealEvent = "CANCELLED_COMPLETED"
)

// Synchronize applies a deal transition to the vehicle's status fields.
// It reports whether anything changed so callers can skip a write.
func Synchronize(v *Vehicle, event DealEvent, dealID uuid.UUID, at time.Time) (bool, error) {
	before := snapshotStatus(v)

	switch event {
	case DealEventDeposit:
		if v.SalesStatus == SalesStatusCompleted {
			return false, shared.NewInvalidStateError("Vehicle %s is already sold", v.VRM)
		}
		v.SalesStatus = SalesStatusInDeal
	case DealEventCompleted:
		v.SalesStatus = SalesStatusCompleted
		v.Status = StockStatusSold
		v.SoldDealID = &dealID
		v.SoldAt = &at
	case DealEventCancelledOpen:
		v.SalesStatus = SalesStatusAvailable
		v.SoldAt = nil
	case DealEventCancelledSettled:
		v.SalesStatus = SalesStatusAvailable
		v.Status = StockStatusInStock
		v.SoldDealID = nil
		v.SoldAt = nil
	default:
		return false, shared.NewValidationError("Unknown deal event %q", event)
	}

	return before != snapshotStatus(v), nil
}

type statusFields struct {
	sales  SalesStatus
	stock  StockStatus
	dealID uuid.UUID
	soldAt time.Time
}

func snapshotStatus(v *Vehicle) statusFields {
	s := statusFields{sales: v.SalesStatus, stock: v.Status}
	if v.SoldDealID != nil {
		s.dealID = *v.SoldDealID
	}
	if v.SoldAt != nil {
		s.soldAt = *v.SoldAt
	}
	return s
}
