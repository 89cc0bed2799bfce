package models

import (
	"time"

	"github.com/dealer/backend/internal/domain/appraisal"
	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/dealer"
	"github.com/dealer/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ContactModel is a customer or finance company
type ContactModel struct {
	BaseModel
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Kind        contact.Kind        `gorm:"type:varchar(20);not null"`
	DisplayName string              `gorm:"type:varchar(200)"`
	CompanyName string              `gorm:"type:varchar(200)"`
	Email       string              `gorm:"type:varchar(200)"`
	Phone       string              `gorm:"type:varchar(50)"`
	Address     valueobject.Address `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact
func (m *ContactModel) ToDomain() *contact.Contact {
	return &contact.Contact{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Kind:        m.Kind,
		DisplayName: m.DisplayName,
		CompanyName: m.CompanyName,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     m.Address,
	}
}

// AppraisalModel is a trade-in appraisal
type AppraisalModel struct {
	BaseModel
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	VRM         string    `gorm:"column:vrm;type:varchar(10);not null;index"`
	AppraisedBy string    `gorm:"type:varchar(100)"`
	AppraisedAt time.Time
	Issues      []AppraisalIssueModel `gorm:"foreignKey:AppraisalID"`
}

// TableName returns the table name for GORM
func (AppraisalModel) TableName() string {
	return "appraisals"
}

// AppraisalIssueModel is a defect recorded during appraisal
type AppraisalIssueModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AppraisalID uuid.UUID `gorm:"type:uuid;not null;index"`
	Category    string    `gorm:"type:varchar(50)"`
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(20)"`
	Notes       string    `gorm:"type:text"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (AppraisalIssueModel) TableName() string {
	return "appraisal_issues"
}

// ToDomain converts the persistence model to a domain Appraisal
func (m *AppraisalModel) ToDomain() *appraisal.Appraisal {
	issues := make([]appraisal.Issue, 0, len(m.Issues))
	for _, i := range m.Issues {
		issues = append(issues, appraisal.Issue{
			ID:          i.ID,
			AppraisalID: i.AppraisalID,
			Category:    i.Category,
			Description: i.Description,
			Status:      i.Status,
			Notes:       i.Notes,
		})
	}
	return &appraisal.Appraisal{
		ID:          m.ID,
		TenantID:    m.TenantID,
		VRM:         m.VRM,
		AppraisedBy: m.AppraisedBy,
		AppraisedAt: m.AppraisedAt,
		Issues:      issues,
	}
}

// DealerProfileModel is the dealership branding and defaults, one row per tenant
type DealerProfileModel struct {
	TenantID         uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TradingName      string              `gorm:"type:varchar(200);not null"`
	CompanyNumber    string              `gorm:"type:varchar(20)"`
	Address          valueobject.Address `gorm:"type:jsonb"`
	Phone            string              `gorm:"type:varchar(50)"`
	Email            string              `gorm:"type:varchar(200)"`
	VATRegistered    bool                `gorm:"column:vat_registered;not null;default:false"`
	VATNumber        string              `gorm:"column:vat_number;type:varchar(20)"`
	LogoKey          string              `gorm:"type:varchar(300)"`
	LogoURL          string              `gorm:"type:text"`
	DefaultPrepTasks []string            `gorm:"type:jsonb;serializer:json"`
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (DealerProfileModel) TableName() string {
	return "dealer_profiles"
}

// ToDomain converts the persistence model to a domain Profile
func (m *DealerProfileModel) ToDomain() *dealer.Profile {
	return &dealer.Profile{
		TenantID:         m.TenantID,
		TradingName:      m.TradingName,
		CompanyNumber:    m.CompanyNumber,
		Address:          m.Address,
		Phone:            m.Phone,
		Email:            m.Email,
		VATRegistered:    m.VATRegistered,
		VATNumber:        m.VATNumber,
		LogoKey:          m.LogoKey,
		LogoURL:          m.LogoURL,
		DefaultPrepTasks: m.DefaultPrepTasks,
	}
}
