package database

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"steelprice/server/internal/models"
)

// OpenGorm opens the price history database for writing.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	return db, nil
}

// NewTestDB creates a migrated sqlite database in dir.
func NewTestDB(dir string) (*gorm.DB, string, error) {
	path := filepath.Join(dir, "steelprice_test.db")
	db, err := OpenGorm("sqlite3", path)
	if err != nil {
		return nil, "", err
	}
	if err := MigrateSchema(db); err != nil {
		return nil, "", err
	}
	return db, path, nil
}

// UpsertPriceRecords writes a batch of records into the three history
// tables. Existing articles, orders and positions are overwritten.
func UpsertPriceRecords(tx *gorm.DB, batch []*models.PriceRecord) error {
	for _, r := range batch {
		article := models.Article{
			ArticleNo:     r.ArticleNo,
			Description:   r.Description,
			MaterialGroup: r.MaterialGroup,
			SizeClass:     r.SizeClass,
			Weight:        r.Weight,
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&article).Error; err != nil {
			return fmt.Errorf("failed to upsert article %s: %w", r.ArticleNo, err)
		}

		order := models.PurchaseOrder{
			OrderNo:    r.OrderNo,
			OrderDate:  r.OrderDate.Format(dateLayout),
			SupplierNo: r.SupplierNo,
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&order).Error; err != nil {
			return fmt.Errorf("failed to upsert order %s: %w", r.OrderNo, err)
		}

		position := models.PricePosition{
			OrderNo:   r.OrderNo,
			ArticleNo: r.ArticleNo,
			UnitPrice: r.UnitPrice,
			Quantity:  r.Quantity,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_no"}, {Name: "article_no"}},
			DoUpdates: clause.AssignmentColumns([]string{"unit_price", "quantity"}),
		}).Create(&position).Error
		if err != nil {
			return fmt.Errorf("failed to upsert position %s/%s: %w", r.OrderNo, r.ArticleNo, err)
		}
	}
	return nil
}
