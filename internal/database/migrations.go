package database

import (
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Worklet{},
		&models.UserWorkletAssociation{},
		&models.Evaluation{},
		&models.PasswordResetCode{},
		&models.CacheEntry{},
	)
}
