package database

import (
	"fmt"

	"github.com/caredesk/pharmacy-api/internal/config"
	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		// Organization entities
		&entity.Tenant{},
		&entity.Supplier{},

		// Inventory entities
		&entity.Category{},
		&entity.Item{},
		&entity.Batch{},
		&entity.StockMovement{},
		&entity.StockAlert{},

		// Transaction entities
		&entity.Sale{},
		&entity.SaleItem{},
		&entity.Payment{},
		&entity.Return{},
		&entity.ReturnItem{},
		&entity.CreditNote{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Alert dedup is backed by a partial unique index the tag syntax cannot
	// express; keep it in sync with stockAlertRepository.CreateIfAbsent.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_alerts_unresolved
		ON stock_alerts (tenant_id, item_id, alert_type)
		WHERE resolved = false`).Error
	if err != nil {
		return fmt.Errorf("failed to create alert dedup index: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}
