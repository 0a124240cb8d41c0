package exchange

import (
	"time"

	"github.com/verdex/verdex-api/internal/types"
	"gorm.io/gorm"
)

// PlaceOrderInput carries a validated placement request into the facade.
type PlaceOrderInput struct {
	Side         types.Side `json:"side"`
	Category     string     `json:"category"`
	Instrument   string     `json:"instrument,omitempty"`
	Region       string     `json:"region,omitempty"`
	Quantity     int64      `json:"quantity"`
	Price        int64      `json:"price"`
	OwnerID      string     `json:"-"`
	AllowPartial bool       `json:"allow_partial"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// BookFilters narrows order book queries.
type BookFilters struct {
	Instrument string
	Region     string
}

// IdempotencyRecord maps a caller-supplied key to the order or trade it
// produced, so retried placements and fills return the original resource.
type IdempotencyRecord struct {
	gorm.Model
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	ResourceID     string    `json:"resource_id"`
	ResourceType   string    `json:"resource_type"`
	ExpiresAt      time.Time `json:"expires_at"`
}
