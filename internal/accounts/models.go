package accounts

import (
	"time"

	"gorm.io/gorm"
)

// TreasuryID is the fixed fee-collection account.
const TreasuryID = "TREASURY"

// Account holds a participant's available balance in minor currency units.
// Balances move only through placement, fill, cancel, expiry and deposits.
type Account struct {
	gorm.Model    `json:"-"`
	ParticipantID string    `gorm:"uniqueIndex" json:"participant_id"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EscrowEntry locks funds against a buy order's maximum remaining
// obligation. An entry exists only while the order has unfilled quantity;
// fills decrement it and cancel or expiry releases the remainder.
type EscrowEntry struct {
	gorm.Model `json:"-"`
	OrderID    string    `gorm:"uniqueIndex" json:"order_id"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
