// Package dealer holds the dealership's own branding and defaults.
package dealer

import (
	"context"

	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Profile is the dealership's trading identity
type Profile struct {
	TenantID         uuid.UUID
	TradingName      string
	CompanyNumber    string
	Address          valueobject.Address
	Phone            string
	Email            string
	VATRegistered    bool
	VATNumber        string
	LogoKey          string
	LogoURL          string
	DefaultPrepTasks []string
}

// PrintableVATNumber is the VAT number only when the dealer is registered
func (p Profile) PrintableVATNumber() string {
	if !p.VATRegistered {
		return ""
	}
	return p.VATNumber
}

// Repository is a read-only lookup of dealer profiles
type Repository interface {
	// FindByTenant returns the tenant's profile, or ErrNotFound
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Profile, error)
}
