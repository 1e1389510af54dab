package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"device-inventory-backend/config"
	"device-inventory-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Device{},
		&model.MismatchOpen{},
		&model.MismatchHistory{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnablePartialIndexes {
		log.Println("Applying partial unique indexes for serial/pid uniqueness...")
		if err := applyPartialIndexDDL(db); err != nil {
			return nil, err
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyPartialIndexDDL enforces serial/PID uniqueness at the database level.
// Both columns are optional, so a plain unique index would reject the many
// rows holding ""; the partial indexes only constrain non-empty values.
// Postgres-specific, hence behind the enable_partial_indexes flag.
func applyPartialIndexDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_devices_serial_number_unique " +
			"ON devices (serial_number) WHERE serial_number <> '';",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_devices_pid_number_unique " +
			"ON devices (pid_number) WHERE pid_number <> '';",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
