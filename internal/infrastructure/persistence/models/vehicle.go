package models

import (
	"time"

	"github.com/dealer/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleModel is the persistence model for a stock vehicle
type VehicleModel struct {
	TenantAggregateModel
	VRM                string `gorm:"column:vrm;type:varchar(10);not null"`
	Make               string `gorm:"type:varchar(100)"`
	Model              string `gorm:"type:varchar(100)"`
	Year               int
	Mileage            int
	Colour             string              `gorm:"type:varchar(50)"`
	VATQualifying      bool                `gorm:"column:vat_qualifying;not null;default:false"`
	SalesStatus        vehicle.SalesStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE'"`
	Status             vehicle.StockStatus `gorm:"type:varchar(20);not null;default:'in_stock'"`
	SoldDealID         *uuid.UUID          `gorm:"type:uuid"`
	SoldAt             *time.Time
	SourceDealID       *uuid.UUID      `gorm:"type:uuid;index"`
	SourcePxVRM        string          `gorm:"column:source_px_vrm;type:varchar(10)"`
	PurchasePriceNet   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PurchaseVAT        decimal.Decimal `gorm:"column:purchase_vat;type:decimal(12,2);not null;default:0"`
	PurchasePriceGross decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PurchasedAt        *time.Time
	PurchaseSource     string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string {
	return "vehicles"
}

// ToDomain converts the persistence model to a domain Vehicle
func (m *VehicleModel) ToDomain() *vehicle.Vehicle {
	return &vehicle.Vehicle{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		VRM:                 m.VRM,
		Make:                m.Make,
		Model:               m.Model,
		Year:                m.Year,
		Mileage:             m.Mileage,
		Colour:              m.Colour,
		VATQualifying:       m.VATQualifying,
		SalesStatus:         m.SalesStatus,
		Status:              m.Status,
		SoldDealID:          m.SoldDealID,
		SoldAt:              m.SoldAt,
		SourceDealID:        m.SourceDealID,
		SourcePxVRM:         m.SourcePxVRM,
		Purchase: vehicle.Purchase{
			PurchasePriceNet:   m.PurchasePriceNet,
			PurchaseVAT:        m.PurchaseVAT,
			PurchasePriceGross: m.PurchasePriceGross,
			PurchasedAt:        m.PurchasedAt,
			Source:             m.PurchaseSource,
		},
	}
}

// VehicleModelFromDomain creates a persistence model from a domain Vehicle
func VehicleModelFromDomain(v *vehicle.Vehicle) *VehicleModel {
	m := &VehicleModel{
		VRM:                v.VRM,
		Make:               v.Make,
		Model:              v.Model,
		Year:               v.Year,
		Mileage:            v.Mileage,
		Colour:             v.Colour,
		VATQualifying:      v.VATQualifying,
		SalesStatus:        v.SalesStatus,
		Status:             v.Status,
		SoldDealID:         v.SoldDealID,
		SoldAt:             v.SoldAt,
		SourceDealID:       v.SourceDealID,
		SourcePxVRM:        v.SourcePxVRM,
		PurchasePriceNet:   v.Purchase.PurchasePriceNet,
		PurchaseVAT:        v.Purchase.PurchaseVAT,
		PurchasePriceGross: v.Purchase.PurchasePriceGross,
		PurchasedAt:        v.Purchase.PurchasedAt,
		PurchaseSource:     v.Purchase.Source,
	}
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	return m
}

// VehicleIssueModel is a defect or job recorded against a stock vehicle
type VehicleIssueModel struct {
	BaseModel
	TenantID               uuid.UUID  `gorm:"type:uuid;not null;index"`
	VehicleID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	Category               string     `gorm:"type:varchar(50);not null"`
	Description            string     `gorm:"type:text;not null"`
	Status                 string     `gorm:"type:varchar(20);not null"`
	Notes                  string     `gorm:"type:text"`
	Transferred            bool       `gorm:"not null;default:false"`
	SourceAppraisalIssueID *uuid.UUID `gorm:"type:uuid"`
	ResolvedAt             *time.Time
}

// TableName returns the table name for GORM
func (VehicleIssueModel) TableName() string {
	return "vehicle_issues"
}

// ToDomain converts the persistence model to a domain Issue
func (m *VehicleIssueModel) ToDomain() vehicle.Issue {
	return vehicle.Issue{
		ID:                     m.ID,
		TenantID:               m.TenantID,
		VehicleID:              m.VehicleID,
		Category:               m.Category,
		Description:            m.Description,
		Status:                 m.Status,
		Notes:                  m.Notes,
		Transferred:            m.Transferred,
		SourceAppraisalIssueID: m.SourceAppraisalIssueID,
		ResolvedAt:             m.ResolvedAt,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

// VehicleIssueModelFromDomain creates a persistence model from a domain Issue
func VehicleIssueModelFromDomain(i vehicle.Issue) *VehicleIssueModel {
	return &VehicleIssueModel{
		BaseModel:              BaseModel{ID: i.ID, CreatedAt: i.CreatedAt, UpdatedAt: i.UpdatedAt},
		TenantID:               i.TenantID,
		VehicleID:              i.VehicleID,
		Category:               i.Category,
		Description:            i.Description,
		Status:                 i.Status,
		Notes:                  i.Notes,
		Transferred:            i.Transferred,
		SourceAppraisalIssueID: i.SourceAppraisalIssueID,
		ResolvedAt:             i.ResolvedAt,
	}
}

// PrepTaskModel is one preparation step for a stock vehicle
type PrepTaskModel struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	VehicleID uuid.UUID              `gorm:"type:uuid;not null;index"`
	Name      string                 `gorm:"type:varchar(100);not null"`
	Status    vehicle.PrepTaskStatus `gorm:"type:varchar(20);not null"`
	SortOrder int                    `gorm:"not null;default:0"`
	CreatedAt time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PrepTaskModel) TableName() string {
	return "vehicle_prep_tasks"
}

// ToDomain converts the persistence model to a domain PrepTask
func (m *PrepTaskModel) ToDomain() vehicle.PrepTask {
	return vehicle.PrepTask{
		ID:        m.ID,
		TenantID:  m.TenantID,
		VehicleID: m.VehicleID,
		Name:      m.Name,
		Status:    m.Status,
		SortOrder: m.SortOrder,
		CreatedAt: m.CreatedAt,
	}
}

// PrepTaskModelFromDomain creates a persistence model from a domain PrepTask
func PrepTaskModelFromDomain(t vehicle.PrepTask) *PrepTaskModel {
	return &PrepTaskModel{
		ID:        t.ID,
		TenantID:  t.TenantID,
		VehicleID: t.VehicleID,
		Name:      t.Name,
		Status:    t.Status,
		SortOrder: t.SortOrder,
		CreatedAt: t.CreatedAt,
	}
}
