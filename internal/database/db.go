package database

import (
	"erp-backend/internal/config"
	"erp-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the Postgres connection, migrates the schema and tries to
// create the availability view. It exits the process when the database is
// unreachable or the migration fails.
func Init(cfg *config.Config) *gorm.DB {
	log := config.Logger()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	if err := EnsureAvailabilityView(db); err != nil {
		// The calculator falls back to aggregating the tables directly.
		log.WithError(err).Warn("v_available_stock could not be created, availability will be aggregated manually")
	}

	log.Info("database connected, migration finished")
	DB = db
	return db
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Category{},
		&models.Subcategory{},
		&models.Product{},
		&models.InventoryMovement{},
		&models.Reservation{},
		&models.ProductionStatus{},
		&models.ProductionOrder{},
		&models.ProductionOrderItem{},
		&models.AuditLog{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
