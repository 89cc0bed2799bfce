package persistence

import (
	"fmt"

	"github.com/dealer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AllModels lists every table owned by the deal engine
func AllModels() []any {
	return []any{
		&models.DealModel{},
		&models.VehicleModel{},
		&models.VehicleIssueModel{},
		&models.PrepTaskModel{},
		&models.SalesDocumentModel{},
		&models.DocumentCounterModel{},
		&models.ContactModel{},
		&models.AppraisalModel{},
		&models.AppraisalIssueModel{},
		&models.DealerProfileModel{},
		&models.DealActivityModel{},
	}
}

// constraintIndexes cannot be expressed as gorm tags. Both postgres and
// sqlite accept partial unique indexes in this form; the migrations create
// the same indexes.
var constraintIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_deals_open_vehicle ON deals (tenant_id, vehicle_id) WHERE status NOT IN ('COMPLETED', 'CANCELLED')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_tenant_vrm ON vehicles (tenant_id, vrm)`,
}

// AutoMigrate creates the schema from the models. Used by repository tests
// and local development; deployed databases use the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range constraintIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create constraint index: %w", err)
		}
	}
	return nil
}
