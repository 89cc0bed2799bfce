package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dealer/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// isUniqueViolation reports whether err is a unique constraint failure.
// Translated errors cover postgres and sqlite; the message check covers
// connections opened without TranslateError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// notFound maps gorm.ErrRecordNotFound to a typed NOT_FOUND error
func notFound(err error, resource string, id fmt.Stringer) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	return err
}
