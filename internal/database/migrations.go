package database

import (
	"fmt"

	"gorm.io/gorm"

	"steelprice/server/internal/models"
)

// MigrateSchema creates or updates the price history tables.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Article{}, &models.PurchaseOrder{}, &models.PricePosition{}); err != nil {
		return fmt.Errorf("failed to migrate price history schema: %w", err)
	}
	return nil
}
