package database

import (
	"fmt"
	"time"

	"github.com/referhub/backend/internal/config"
	"github.com/referhub/backend/internal/database/migrations"
	"github.com/referhub/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate auto-migrates all models. Used by tests and development setups
// where the versioned migrations are not applicable.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&Session{},
		&PasswordResetToken{},
		&models.Referral{},
		&models.Redemption{},
		&models.PointsTransaction{},
	)
}
