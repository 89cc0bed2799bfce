package deal

import (
	"slices"

	"github.com/dealer/backend/internal/domain/shared"
)

// Status represents where a deal is in its lifecycle
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusDepositTaken Status = "DEPOSIT_TAKEN"
	StatusInvoiced     Status = "INVOICED"
	StatusDelivered    Status = "DELIVERED"
	StatusCompleted    Status = "COMPLETED"
	StatusCancelled    Status = "CANCELLED"
)

// allowedTransitions is the single source of truth for status changes.
// Forward skips are permitted (an invoice may be raised without a deposit),
// backward moves are not. Cancellation is the only way out of COMPLETED.
var allowedTransitions = map[Status][]Status{
	StatusDraft:        {StatusDepositTaken, StatusInvoiced, StatusCancelled},
	StatusDepositTaken: {StatusInvoiced, StatusCompleted, StatusCancelled},
	StatusInvoiced:     {StatusDelivered, StatusCompleted, StatusCancelled},
	StatusDelivered:    {StatusCompleted, StatusCancelled},
	StatusCompleted:    {StatusCancelled},
	StatusCancelled:    {},
}

// stage orders the forward statuses so "at or beyond" checks stay in one place
var stage = map[Status]int{
	StatusDraft:        0,
	StatusDepositTaken: 1,
	StatusInvoiced:     2,
	StatusDelivered:    3,
	StatusCompleted:    4,
}

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsOpen reports whether the deal still holds its vehicle (neither completed nor cancelled)
func (s Status) IsOpen() bool {
	return s != StatusCompleted && s != StatusCancelled
}

// AtLeast reports whether s has reached other on the forward path.
// A cancelled deal is never "at least" anything.
func (s Status) AtLeast(other Status) bool {
	a, ok := stage[s]
	if !ok {
		return false
	}
	b, ok := stage[other]
	if !ok {
		return false
	}
	return a >= b
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(allowedTransitions[s], target)
}

// AllowedTransitions returns the statuses reachable from s
func (s Status) AllowedTransitions() []Status {
	return slices.Clone(allowedTransitions[s])
}

// ValidateTransition returns an INVALID_STATE error when from cannot move to to
func ValidateTransition(from, to Status) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	if from == StatusCancelled {
		return shared.NewInvalidStateError("Deal is cancelled").
			WithDetail("status", from.String())
	}
	return shared.NewInvalidStateError("Cannot move deal from %s to %s", from, to).
		WithDetail("status", from.String()).
		WithDetail("target", to.String())
}
