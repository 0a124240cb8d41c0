package migrations

import (
	"github.com/verdex/verdex-api/internal/accounts"
	"gorm.io/gorm"
)

// AddEscrowLedger creates the account and escrow tables
func AddEscrowLedger(db *gorm.DB) error {
	if err := db.AutoMigrate(&accounts.Account{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&accounts.EscrowEntry{}); err != nil {
		return err
	}

	return nil
}
