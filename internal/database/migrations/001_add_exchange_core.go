package migrations

import (
	"github.com/verdex/verdex-api/internal/exchange"
	"github.com/verdex/verdex-api/internal/types"
	"gorm.io/gorm"
)

// AddExchangeCore creates the order, trade, snapshot and idempotency tables
// and the indexes the book queries depend on
func AddExchangeCore(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Order{},
		&types.Trade{},
		&types.MarketSnapshot{},
		&exchange.IdempotencyRecord{},
	); err != nil {
		return err
	}

	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Composite index for live book queries (category + side + status)
		`CREATE INDEX IF NOT EXISTS idx_orders_book
		 ON orders(category, side, status)`,

		// Index for owner lookups
		`CREATE INDEX IF NOT EXISTS idx_orders_owner
		 ON orders(owner_id)`,

		// Index for the expiry sweep
		`CREATE INDEX IF NOT EXISTS idx_orders_expires_at
		 ON orders(expires_at)`,

		// Index for per-order trade history
		`CREATE INDEX IF NOT EXISTS idx_trades_order_id
		 ON trades(order_id)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
