package database

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/table-reservation/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Table{},
		&models.Reservation{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}
	return nil
}

// SyncTables upserts the inventory into the tables table. Tables missing from
// the inventory are kept so old reservations still reference a row.
func SyncTables(db *gorm.DB, tables []models.Table) error {
	if len(tables) == 0 {
		return nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "capacity", "zone"}),
	}).Create(&tables).Error
	if err != nil {
		return fmt.Errorf("failed to sync tables: %w", err)
	}
	return nil
}

// SeedAdmin creates the admin account once. Empty credentials skip seeding.
func SeedAdmin(db *gorm.DB, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}
