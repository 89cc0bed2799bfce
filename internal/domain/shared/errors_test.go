package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading deal: %w", NewNotFoundError("deal", uuid.New()))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidState))
}

func TestDomainError_WithDetailDoesNotMutate(t *testing.T) {
	base := NewValidationError("amount must be positive")
	withField := base.WithDetail("field", "amount")

	assert.Nil(t, base.Details)
	assert.Equal(t, "amount", withField.Details["field"])
	assert.Equal(t, CodeValidation, withField.Code)
}

func TestConfirmationRequiredError(t *testing.T) {
	var err error = &ConfirmationRequiredError{
		Reason: "settlement not confirmed in writing",
		VRMs:   []string{"AB12CDE", "XY34ZZZ"},
	}

	var confirm *ConfirmationRequiredError
	assert.True(t, errors.As(err, &confirm))
	assert.Equal(t, CodeConfirmationRequired, confirm.Code())
	assert.Contains(t, err.Error(), "AB12CDE, XY34ZZZ")
	assert.False(t, errors.Is(err, ErrInvalidState))
}
