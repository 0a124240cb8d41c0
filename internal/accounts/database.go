package accounts

import (
	"errors"
	"fmt"

	"github.com/verdex/verdex-api/internal/types"
	"gorm.io/gorm"
)

// The balance and escrow helpers operate on a caller-supplied handle so the
// exchange core can run them inside its own transaction: every mutation of
// an operation commits or rolls back as one unit.

// GetAccount retrieves an account by participant ID.
func GetAccount(db *gorm.DB, participantID string) (*Account, error) {
	var account Account
	if err := db.Where("participant_id = ?", participantID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", participantID, types.ErrNotFound)
		}
		return nil, err
	}
	return &account, nil
}

// Credit adds amount to a participant's balance, creating the account on
// first use. The treasury account comes into existence through its first
// fee credit.
func Credit(db *gorm.DB, participantID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit amount %d: %w", amount, types.ErrValidation)
	}
	account, err := GetAccount(db, participantID)
	if errors.Is(err, types.ErrNotFound) {
		return db.Create(&Account{ParticipantID: participantID, Balance: amount}).Error
	}
	if err != nil {
		return err
	}
	account.Balance += amount
	return db.Save(account).Error
}

// Debit removes amount from a participant's balance. It fails with
// ErrInsufficientFunds when the balance does not cover the amount, leaving
// the account untouched.
func Debit(db *gorm.DB, participantID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount %d: %w", amount, types.ErrValidation)
	}
	account, err := GetAccount(db, participantID)
	if err != nil {
		return err
	}
	if account.Balance < amount {
		return fmt.Errorf("balance %d below required %d: %w",
			account.Balance, amount, types.ErrInsufficientFunds)
	}
	account.Balance -= amount
	return db.Save(account).Error
}

// LockEscrow creates the escrow entry for a new buy order.
func LockEscrow(db *gorm.DB, orderID string, amount int64) error {
	return db.Create(&EscrowEntry{OrderID: orderID, Amount: amount}).Error
}

// EscrowAmount returns the currently locked amount for an order, zero when
// no entry exists.
func EscrowAmount(db *gorm.DB, orderID string) (int64, error) {
	var entry EscrowEntry
	if err := db.Where("order_id = ?", orderID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return entry.Amount, nil
}

// ReduceEscrow decrements an order's locked amount by a fill's payment. The
// entry is removed once it reaches zero: escrow exists only while unfilled
// quantity remains.
func ReduceEscrow(db *gorm.DB, orderID string, amount int64) error {
	var entry EscrowEntry
	if err := db.Where("order_id = ?", orderID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("escrow for order %s: %w", orderID, types.ErrNotFound)
		}
		return err
	}
	if entry.Amount < amount {
		return fmt.Errorf("escrow %d below payment %d: %w",
			entry.Amount, amount, types.ErrInsufficientFunds)
	}
	entry.Amount -= amount
	if entry.Amount == 0 {
		return db.Delete(&entry).Error
	}
	return db.Save(&entry).Error
}

// ReleaseEscrow removes an order's escrow entry and returns the amount that
// was still locked, zero when no entry exists.
func ReleaseEscrow(db *gorm.DB, orderID string) (int64, error) {
	var entry EscrowEntry
	if err := db.Where("order_id = ?", orderID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if err := db.Delete(&entry).Error; err != nil {
		return 0, err
	}
	return entry.Amount, nil
}

// Database wraps account queries for the HTTP service layer.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetAccount(participantID string) (*Account, error) {
	return GetAccount(d.db, participantID)
}

// Deposit credits a participant's balance in its own transaction.
func (d *Database) Deposit(participantID string, amount int64) (*Account, error) {
	if err := d.db.Transaction(func(tx *gorm.DB) error {
		return Credit(tx, participantID, amount)
	}); err != nil {
		return nil, err
	}
	return GetAccount(d.db, participantID)
}
