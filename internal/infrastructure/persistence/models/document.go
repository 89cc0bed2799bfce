package models

import (
	"time"

	"github.com/dealer/backend/internal/domain/document"
	"github.com/google/uuid"
)

// SalesDocumentModel is an issued receipt or invoice with its frozen snapshot
type SalesDocumentModel struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_sales_documents_number,priority:1"`
	DealID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	Type           document.Type     `gorm:"type:varchar(30);not null;uniqueIndex:idx_sales_documents_number,priority:2"`
	Sequence       int64             `gorm:"not null;uniqueIndex:idx_sales_documents_number,priority:3"`
	DocumentNumber string            `gorm:"type:varchar(30);not null"`
	Snapshot       document.Snapshot `gorm:"type:jsonb;serializer:json;not null"`
	ShareToken     string            `gorm:"type:text"`
	IssuedBy       string            `gorm:"type:varchar(100)"`
	IssuedAt       time.Time         `gorm:"not null"`
	RegeneratedAt  *time.Time
	Version        int `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (SalesDocumentModel) TableName() string {
	return "sales_documents"
}

// ToDomain converts the persistence model to a domain SalesDocument
func (m *SalesDocumentModel) ToDomain() *document.SalesDocument {
	return &document.SalesDocument{
		ID:             m.ID,
		TenantID:       m.TenantID,
		DealID:         m.DealID,
		Type:           m.Type,
		DocumentNumber: m.DocumentNumber,
		Sequence:       m.Sequence,
		Snapshot:       m.Snapshot,
		ShareToken:     m.ShareToken,
		IssuedBy:       m.IssuedBy,
		IssuedAt:       m.IssuedAt,
		RegeneratedAt:  m.RegeneratedAt,
		Version:        m.Version,
	}
}

// SalesDocumentModelFromDomain creates a persistence model from a domain SalesDocument
func SalesDocumentModelFromDomain(d *document.SalesDocument) *SalesDocumentModel {
	return &SalesDocumentModel{
		ID:             d.ID,
		TenantID:       d.TenantID,
		DealID:         d.DealID,
		Type:           d.Type,
		Sequence:       d.Sequence,
		DocumentNumber: d.DocumentNumber,
		Snapshot:       d.Snapshot,
		ShareToken:     d.ShareToken,
		IssuedBy:       d.IssuedBy,
		IssuedAt:       d.IssuedAt,
		RegeneratedAt:  d.RegeneratedAt,
		Version:        d.Version,
	}
}

// DocumentCounterModel holds the last issued sequence per tenant and document type
type DocumentCounterModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocType   string    `gorm:"type:varchar(30);primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentCounterModel) TableName() string {
	return "document_counters"
}
