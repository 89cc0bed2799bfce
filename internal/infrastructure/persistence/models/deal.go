package models

import (
	"time"

	"github.com/dealer/backend/internal/domain/deal"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealModel is the persistence model for the Deal aggregate.
// At most one open deal per vehicle is enforced by the partial unique index
// idx_deals_open_vehicle created in migrations.
type DealModel struct {
	TenantAggregateModel
	VehicleID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerID        *uuid.UUID            `gorm:"type:uuid;index"`
	Status            deal.Status           `gorm:"type:varchar(20);not null;index"`
	VATScheme         deal.VATScheme        `gorm:"type:varchar(20);not null"`
	VehiclePriceNet   decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	VehiclePriceVAT   decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	VehiclePriceGross decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	VehicleCostNet    decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	AddOns            []deal.AddOn          `gorm:"type:jsonb;serializer:json"`
	Delivery          deal.Delivery         `gorm:"type:jsonb;serializer:json"`
	Warranty          deal.Warranty         `gorm:"type:jsonb;serializer:json"`
	FinanceSelection  deal.FinanceSelection `gorm:"column:finance;type:jsonb;serializer:json"`
	PartExchanges     []deal.PartExchange   `gorm:"type:jsonb;serializer:json"`
	Payments          []deal.Payment        `gorm:"type:jsonb;serializer:json"`
	Signature         deal.Signature        `gorm:"type:jsonb;serializer:json"`
	Requests          []deal.Request        `gorm:"type:jsonb;serializer:json"`
	CostAdjustments   []deal.CostAdjustment `gorm:"type:jsonb;serializer:json"`
	Notes             string                `gorm:"type:text"`
	TakenBy           string                `gorm:"type:varchar(100)"`
	DepositTakenAt    *time.Time
	InvoicedAt        *time.Time
	DeliveredAt       *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DealModel) TableName() string {
	return "deals"
}

// ToDomain converts the persistence model to a domain Deal
func (m *DealModel) ToDomain() *deal.Deal {
	return &deal.Deal{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		VehicleID:           m.VehicleID,
		CustomerID:          m.CustomerID,
		Status:              m.Status,
		VATScheme:           m.VATScheme,
		VehiclePrice: valueobject.Breakdown{
			Net:   m.VehiclePriceNet,
			VAT:   m.VehiclePriceVAT,
			Gross: m.VehiclePriceGross,
		},
		VehicleCostNet:   m.VehicleCostNet,
		AddOns:           nonNil(m.AddOns),
		Delivery:         m.Delivery,
		Warranty:         m.Warranty,
		FinanceSelection: m.FinanceSelection,
		PartExchanges:    nonNil(m.PartExchanges),
		Payments:         nonNil(m.Payments),
		Signature:        m.Signature,
		Requests:         nonNil(m.Requests),
		CostAdjustments:  nonNil(m.CostAdjustments),
		Notes:            m.Notes,
		TakenBy:          m.TakenBy,
		DepositTakenAt:   m.DepositTakenAt,
		InvoicedAt:       m.InvoicedAt,
		DeliveredAt:      m.DeliveredAt,
		CompletedAt:      m.CompletedAt,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
	}
}

// DealModelFromDomain creates a persistence model from a domain Deal
func DealModelFromDomain(d *deal.Deal) *DealModel {
	m := &DealModel{
		VehicleID:         d.VehicleID,
		CustomerID:        d.CustomerID,
		Status:            d.Status,
		VATScheme:         d.VATScheme,
		VehiclePriceNet:   d.VehiclePrice.Net,
		VehiclePriceVAT:   d.VehiclePrice.VAT,
		VehiclePriceGross: d.VehiclePrice.Gross,
		VehicleCostNet:    d.VehicleCostNet,
		AddOns:            nonNil(d.AddOns),
		Delivery:          d.Delivery,
		Warranty:          d.Warranty,
		FinanceSelection:  d.FinanceSelection,
		PartExchanges:     nonNil(d.PartExchanges),
		Payments:          nonNil(d.Payments),
		Signature:         d.Signature,
		Requests:          nonNil(d.Requests),
		CostAdjustments:   nonNil(d.CostAdjustments),
		Notes:             d.Notes,
		TakenBy:           d.TakenBy,
		DepositTakenAt:    d.DepositTakenAt,
		InvoicedAt:        d.InvoicedAt,
		DeliveredAt:       d.DeliveredAt,
		CompletedAt:       d.CompletedAt,
		CancelledAt:       d.CancelledAt,
		CancelReason:      d.CancelReason,
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	return m
}

// nonNil keeps empty collections serialised as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return make([]T, 0)
	}
	return s
}
