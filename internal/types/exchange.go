package types

import (
	"time"

	"gorm.io/gorm"
)

// Side is the direction of a resting order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order statuses. OPEN, PARTIALLY_FILLED and FILLED are derived from the
// filled quantity; CANCELLED and EXPIRED are set externally and terminal.
const (
	StatusOpen            = "OPEN"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
	StatusCancelled       = "CANCELLED"
	StatusExpired         = "EXPIRED"
)

// Order is a resting Sell or Buy intent on the board. Orders are never
// deleted, only status-transitioned, so history remains queryable.
//
// Price and EscrowedAmount are in minor currency units; Quantity is in whole
// credits of the order's category.
type Order struct {
	gorm.Model     `json:"-"`
	OrderID        string     `gorm:"uniqueIndex" json:"order_id"`
	Side           Side       `json:"side"`
	Category       string     `json:"category"`
	Instrument     string     `json:"instrument,omitempty"` // optional sub-instrument filter
	Region         string     `json:"region,omitempty"`     // optional counterparty-region filter
	Quantity       int64      `json:"quantity"`
	Price          int64      `json:"price"` // SELL: minimum ask, BUY: maximum bid
	OwnerID        string     `json:"owner_id"`
	AllowPartial   bool       `json:"allow_partial"`
	Filled         int64      `json:"filled"`
	Status         string     `json:"status"`
	EscrowedAmount int64      `json:"escrowed_amount,omitempty"` // BUY orders only
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.Filled
}

// IsTerminal reports whether the order can no longer be filled or cancelled.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case StatusFilled, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// RecomputeStatus derives the fill status from the filled quantity. It never
// overwrites the externally-set terminal states.
func (o *Order) RecomputeStatus() {
	if o.Status == StatusCancelled || o.Status == StatusExpired {
		return
	}
	switch {
	case o.Filled == 0:
		o.Status = StatusOpen
	case o.Filled < o.Quantity:
		o.Status = StatusPartiallyFilled
	default:
		o.Status = StatusFilled
	}
}

// Trade records one executed fill against a resting order. Trades are
// immutable once created. The price is always the resting order's price and
// TotalValue == Fee + seller proceeds.
type Trade struct {
	gorm.Model `json:"-"`
	TradeID    string    `gorm:"uniqueIndex" json:"trade_id"`
	OrderID    string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	Quantity   int64     `json:"quantity"`
	Price      int64     `json:"price"`
	TotalValue int64     `json:"total_value"`
	Fee        int64     `json:"fee"`
	ExecutedAt time.Time `json:"executed_at"`
}

// MarketSnapshot holds derived per-category statistics. BestAsk and BestBid
// are zero when that side of the book is empty. Volume is the cumulative
// filled quantity since the exchange started; it is never windowed or reset.
type MarketSnapshot struct {
	gorm.Model     `json:"-"`
	Category       string    `gorm:"uniqueIndex" json:"category"`
	BestAsk        int64     `json:"best_ask"`
	BestBid        int64     `json:"best_bid"`
	LastPrice      int64     `json:"last_price"`
	Volume         int64     `json:"volume"`
	TotalSupply    int64     `json:"total_supply"`
	TotalDemand    int64     `json:"total_demand"`
	LiquidityScore int64     `json:"liquidity_score"`
	UpdatedAt      time.Time `json:"updated_at"`
}
