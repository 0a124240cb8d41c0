package database

import (
	"fmt"

	"github.com/verdex/verdex-api/internal/database/migrations"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "verdex.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate runs all schema migrations. Exposed so tests can prepare
// in-memory databases the same way the server does.
func Migrate(db *gorm.DB) error {
	if err := migrations.AddExchangeCore(db); err != nil {
		return err
	}

	if err := migrations.AddEscrowLedger(db); err != nil {
		return err
	}

	return nil
}
