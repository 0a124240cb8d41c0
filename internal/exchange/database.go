package exchange

import (
	"errors"
	"fmt"
	"time"

	"github.com/verdex/verdex-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Transaction runs fn inside a single begin/commit boundary. Every mutating
// exchange operation goes through here so balances, escrow, orders, trades
// and snapshots can never be left mutually inconsistent by a partial write.
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetOrder retrieves an order by its ID.
func (d *Database) GetOrder(orderID string) (*types.Order, error) {
	return getOrder(d.db, orderID)
}

func getOrder(db *gorm.DB, orderID string) (*types.Order, error) {
	var order types.Order
	if err := db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, types.ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// GetTrade retrieves a trade by its ID.
func (d *Database) GetTrade(tradeID string) (*types.Trade, error) {
	var trade types.Trade
	if err := d.db.Where("trade_id = ?", tradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("trade %s: %w", tradeID, types.ErrNotFound)
		}
		return nil, err
	}
	return &trade, nil
}

// TradesForOrder returns all trades executed against an order.
func (d *Database) TradesForOrder(orderID string) ([]types.Trade, error) {
	var trades []types.Trade
	if err := d.db.Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// liveOrders returns open and partially filled orders for one side of a
// category's book, price-ordered: ascending for sells, descending for buys.
func liveOrders(db *gorm.DB, category string, side types.Side) ([]types.Order, error) {
	direction := "ASC"
	if side == types.SideBuy {
		direction = "DESC"
	}
	var orders []types.Order
	if err := db.Where("category = ? AND side = ? AND status IN ?",
		category, side, []string{types.StatusOpen, types.StatusPartiallyFilled}).
		Order("price " + direction).
		Order("id ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// LiveOrders exposes the price-ordered book query outside a transaction.
func (d *Database) LiveOrders(category string, side types.Side) ([]types.Order, error) {
	return liveOrders(d.db, category, side)
}

// GetSnapshot returns the stored market snapshot for a category, or a zero
// snapshot when the category has never been touched.
func (d *Database) GetSnapshot(category string) (*types.MarketSnapshot, error) {
	return getSnapshot(d.db, category)
}

func getSnapshot(db *gorm.DB, category string) (*types.MarketSnapshot, error) {
	var snapshot types.MarketSnapshot
	if err := db.Where("category = ?", category).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.MarketSnapshot{Category: category}, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// GetIdempotencyRecord retrieves an idempotency record by key.
func (d *Database) GetIdempotencyRecord(key string) (*IdempotencyRecord, error) {
	var record IdempotencyRecord
	if err := d.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func createIdempotencyRecord(db *gorm.DB, key, resourceID, resourceType string) error {
	if key == "" {
		return nil
	}
	record := IdempotencyRecord{
		IdempotencyKey: key,
		ResourceID:     resourceID,
		ResourceType:   resourceType,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}
	return db.Create(&record).Error
}
