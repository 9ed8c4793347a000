// Package db opens the backing store and keeps the schema migrated
package db

import (
	"errors"
	"fmt"

	"driftlink/transfer-api/internal/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	dsn := viper.GetString("database.dsn")

	switch viper.GetString("database.driver") {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.New("unsupported database driver")
	}

	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey, which the finalizer relies on for its atomic
	// token claim and custom-link uniqueness
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	err = db.AutoMigrate(
		model.User{},
		model.Transfer{},
		model.ExpiredTransfer{},
		model.UploadClaim{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
