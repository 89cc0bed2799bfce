package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dealer/backend/internal/domain/activity"
	"github.com/dealer/backend/internal/domain/contact"
	"github.com/dealer/backend/internal/domain/shared"
	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormContactRepository_FindByIDForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContactRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	model := &models.ContactModel{
		BaseModel:   models.BaseModel{ID: uuid.New()},
		TenantID:    tenantID,
		Kind:        contact.KindCustomer,
		DisplayName: "Priya Patel",
		Email:       "priya@example.com",
	}
	require.NoError(t, db.Create(model).Error)

	found, err := repo.FindByIDForTenant(ctx, tenantID, model.ID)
	require.NoError(t, err)
	assert.Equal(t, "Priya Patel", found.Name())

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), model.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormAppraisalRepository_FindByIDForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAppraisalRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	appraisalID := uuid.New()
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	model := &models.AppraisalModel{
		BaseModel:   models.BaseModel{ID: appraisalID},
		TenantID:    tenantID,
		VRM:         "PX11ABC",
		AppraisedBy: "Jo",
		AppraisedAt: at,
		Issues: []models.AppraisalIssueModel{
			{ID: uuid.New(), AppraisalID: appraisalID, Category: "tyres", Description: "Worn rear", Status: "outstanding", CreatedAt: at.Add(time.Minute)},
			{ID: uuid.New(), AppraisalID: appraisalID, Category: "bodywork", Description: "Scratch", Status: "resolved", CreatedAt: at},
		},
	}
	require.NoError(t, db.Create(model).Error)

	found, err := repo.FindByIDForTenant(ctx, tenantID, appraisalID)
	require.NoError(t, err)
	assert.Equal(t, "PX11ABC", found.VRM)
	require.Len(t, found.Issues, 2)
	assert.Equal(t, "Scratch", found.Issues[0].Description)
}

func TestGormDealerRepository_FindByTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDealerRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := repo.FindByTenant(ctx, tenantID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, db.Create(&models.DealerProfileModel{
		TenantID:         tenantID,
		TradingName:      "Northside Motors",
		VATRegistered:    true,
		VATNumber:        "GB123456789",
		DefaultPrepTasks: []string{"PDI", "Valet", "Photos"},
	}).Error)

	profile, err := repo.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "Northside Motors", profile.TradingName)
	assert.Equal(t, "GB123456789", profile.PrintableVATNumber())
	assert.Equal(t, []string{"PDI", "Valet", "Photos"}, profile.DefaultPrepTasks)
}

func TestGormActivityRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormActivityRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	dealID := uuid.New()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	deposit := &activity.Entry{
		ID: uuid.New(), TenantID: tenantID, DealID: dealID, EventID: uuid.New(),
		EventType: "DepositTaken", Summary: "Deposit of £500.00 taken", Payload: []byte(`{"amount":"500"}`), OccurredAt: at,
	}
	created := &activity.Entry{
		ID: uuid.New(), TenantID: tenantID, DealID: dealID, EventID: uuid.New(),
		EventType: "DealCreated", Summary: "Deal created", Payload: []byte(`{}`), OccurredAt: at.Add(-time.Hour),
	}
	require.NoError(t, repo.Append(ctx, deposit))
	require.NoError(t, repo.Append(ctx, created))

	redelivered := *deposit
	redelivered.ID = uuid.New()
	require.NoError(t, repo.Append(ctx, &redelivered))

	entries, err := repo.ListByDeal(ctx, tenantID, dealID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "DealCreated", entries[0].EventType)
	assert.Equal(t, "DepositTaken", entries[1].EventType)
	assert.JSONEq(t, `{"amount":"500"}`, string(entries[1].Payload))
}
