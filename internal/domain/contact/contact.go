// Package contact holds the customers and finance companies a deal refers to.
package contact

import (
	"context"

	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Kind separates buying customers from finance houses
type Kind string

const (
	KindCustomer       Kind = "CUSTOMER"
	KindFinanceCompany Kind = "FINANCE_COMPANY"
)

// Contact is a person or company known to the dealership
type Contact struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Kind        Kind
	DisplayName string
	CompanyName string
	Email       string
	Phone       string
	Address     valueobject.Address
}

// Name returns the name to print on documents
func (c Contact) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.CompanyName
}

// Repository is a read-only lookup of contacts
type Repository interface {
	// FindByIDForTenant finds a contact within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error)
}
