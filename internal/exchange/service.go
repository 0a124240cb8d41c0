package exchange

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/verdex/verdex-api/internal/accounts"
	"github.com/verdex/verdex-api/internal/catalog"
	"github.com/verdex/verdex-api/internal/types"
	"gorm.io/gorm"
)

// Service is the exchange facade. A single mutex serializes every mutating
// call against the shared order, balance and escrow state, and each call
// runs inside one database transaction, so place, fill and cancel are
// linearizable and either apply completely or not at all.
type Service struct {
	db         *Database
	mu         sync.Mutex
	feeRateBps int64
	now        func() time.Time
}

// NewService creates a new exchange service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db:         NewDatabase(gormDB),
		feeRateBps: FeeRateBps,
		now:        time.Now,
	}
}

// PlaceOrder posts a new resting order. Sell placement moves no funds; buy
// placement debits quantity*price from the owner into a new escrow entry.
// For buy orders the result carries advisory match candidates.
func (s *Service) PlaceOrder(input PlaceOrderInput, idempotencyKey string) (*types.PlacementResult, error) {
	logger := log.With().
		Str("side", string(input.Side)).
		Str("category", input.Category).
		Str("owner_id", input.OwnerID).
		Int64("quantity", input.Quantity).
		Int64("price", input.Price).
		Str("service", "exchange").
		Logger()

	if err := validatePlacement(input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replayed placements return the originally created order.
	if existing, err := s.replayedOrder(idempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		logger.Info().Str("order_id", existing.OrderID).Msg("placement replayed from idempotency key")
		return &types.PlacementResult{Order: *existing}, nil
	}

	order := &types.Order{
		OrderID:      "ORD_" + uuid.New().String(),
		Side:         input.Side,
		Category:     input.Category,
		Instrument:   input.Instrument,
		Region:       input.Region,
		Quantity:     input.Quantity,
		Price:        input.Price,
		OwnerID:      input.OwnerID,
		AllowPartial: input.AllowPartial,
		Status:       types.StatusOpen,
		ExpiresAt:    input.ExpiresAt,
		CreatedAt:    s.now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.Side == types.SideBuy {
			cost := input.Quantity * input.Price
			account, err := accounts.GetAccount(tx, input.OwnerID)
			if err != nil || account.Balance < cost {
				var balance int64
				if account != nil {
					balance = account.Balance
				}
				return fmt.Errorf("balance %d below required escrow %d: %w",
					balance, cost, types.ErrInsufficientFunds)
			}
			if err := accounts.Debit(tx, input.OwnerID, cost); err != nil {
				return err
			}
			if err := accounts.LockEscrow(tx, order.OrderID, cost); err != nil {
				return err
			}
			order.EscrowedAmount = cost
			logger.Debug().Int64("escrow", cost).Msg("escrowed buy-side funds")
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if err := createIdempotencyRecord(tx, idempotencyKey, order.OrderID, "order"); err != nil {
			return err
		}
		return refreshStats(tx, order.Category, nil)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("placement rejected")
		return nil, err
	}

	logger.Info().Str("order_id", order.OrderID).Msg("order placed")

	result := &types.PlacementResult{Order: *order}
	if order.Side == types.SideBuy {
		matches, err := s.findMatchesFor(order)
		if err != nil {
			// Advisory only; the placement itself already committed.
			logger.Warn().Err(err).Msg("match surfacing failed")
		} else {
			result.Matches = matches
		}
	}
	return result, nil
}

func validatePlacement(input PlaceOrderInput) error {
	if input.Side != types.SideBuy && input.Side != types.SideSell {
		return fmt.Errorf("side must be BUY or SELL: %w", types.ErrValidation)
	}
	if _, ok := catalog.Lookup(input.Category); !ok {
		return fmt.Errorf("unknown category %q: %w", input.Category, types.ErrValidation)
	}
	if input.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %w", types.ErrValidation)
	}
	if input.Price <= 0 {
		return fmt.Errorf("price must be positive: %w", types.ErrValidation)
	}
	if input.OwnerID == "" {
		return fmt.Errorf("owner is required: %w", types.ErrValidation)
	}
	return nil
}

// FillOrder executes one fill against one resting order at the resting
// order's price. A zero quantity fills the full remaining amount; when the
// order disallows partial fills any smaller request is coerced up to the
// remaining amount.
func (s *Service) FillOrder(orderID, fillerID string, quantity int64, idempotencyKey string) (*types.Trade, error) {
	logger := log.With().
		Str("order_id", orderID).
		Str("filler_id", fillerID).
		Int64("quantity", quantity).
		Str("service", "exchange").
		Logger()

	if fillerID == "" {
		return nil, fmt.Errorf("filler is required: %w", types.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.replayedTrade(idempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		logger.Info().Str("trade_id", existing.TradeID).Msg("fill replayed from idempotency key")
		return existing, nil
	}

	var trade *types.Trade
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := getOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != types.StatusOpen && order.Status != types.StatusPartiallyFilled {
			return fmt.Errorf("order %s is %s: %w", orderID, order.Status, types.ErrInvalidState)
		}
		if fillerID == order.OwnerID {
			return fmt.Errorf("order %s: %w", orderID, types.ErrSelfTrade)
		}

		remaining := order.Remaining()
		requested := quantity
		if requested == 0 {
			requested = remaining
		}
		if requested < 0 || requested > remaining {
			return fmt.Errorf("requested %d with %d remaining: %w",
				requested, remaining, types.ErrInvalidQuantity)
		}
		if !order.AllowPartial && requested < remaining {
			logger.Debug().
				Int64("requested", requested).
				Int64("remaining", remaining).
				Msg("order disallows partial fills, coercing to full remaining amount")
			requested = remaining
		}

		payment := requested * order.Price
		fee := CalculateFee(payment, s.feeRateBps)
		proceeds := payment - fee

		var buyerID, sellerID string
		if order.Side == types.SideSell {
			// Filler is the buyer and pays from their live balance.
			buyerID, sellerID = fillerID, order.OwnerID
			account, err := accounts.GetAccount(tx, fillerID)
			if err != nil || account.Balance < payment {
				var balance int64
				if account != nil {
					balance = account.Balance
				}
				return fmt.Errorf("balance %d below payment %d: %w",
					balance, payment, types.ErrInsufficientFunds)
			}
			if err := accounts.Debit(tx, fillerID, payment); err != nil {
				return err
			}
			if err := accounts.Credit(tx, order.OwnerID, proceeds); err != nil {
				return err
			}
		} else {
			// Filler is the seller; the order's escrow absorbs the payment.
			buyerID, sellerID = order.OwnerID, fillerID
			if err := accounts.ReduceEscrow(tx, order.OrderID, payment); err != nil {
				return err
			}
			if err := accounts.Credit(tx, fillerID, proceeds); err != nil {
				return err
			}
		}
		if err := accounts.Credit(tx, accounts.TreasuryID, fee); err != nil {
			return err
		}

		order.Filled += requested
		order.RecomputeStatus()
		order.UpdatedAt = s.now()
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		trade = &types.Trade{
			TradeID:    "TRD_" + uuid.New().String(),
			OrderID:    order.OrderID,
			BuyerID:    buyerID,
			SellerID:   sellerID,
			Quantity:   requested,
			Price:      order.Price,
			TotalValue: payment,
			Fee:        fee,
			ExecutedAt: s.now(),
		}
		if err := tx.Create(trade).Error; err != nil {
			return err
		}
		if err := createIdempotencyRecord(tx, idempotencyKey, trade.TradeID, "trade"); err != nil {
			return err
		}

		logger.Debug().
			Int64("payment", payment).
			Int64("fee", fee).
			Int64("seller_receives", proceeds).
			Str("order_status", order.Status).
			Msg("fill computed")

		return refreshStats(tx, order.Category, trade)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("fill rejected")
		return nil, err
	}

	logger.Info().
		Str("trade_id", trade.TradeID).
		Int64("filled_quantity", trade.Quantity).
		Int64("total_value", trade.TotalValue).
		Int64("fee", trade.Fee).
		Msg("order filled")

	return trade, nil
}

// CancelOrder moves an order to the terminal CANCELLED state, refunding any
// residual buy-side escrow to the owner. Only the owner may cancel, and a
// terminal order can never be cancelled again.
func (s *Service) CancelOrder(orderID, requesterID string) (*types.Order, error) {
	logger := log.With().
		Str("order_id", orderID).
		Str("requester_id", requesterID).
		Str("service", "exchange").
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	var cancelled *types.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := getOrder(tx, orderID)
		if err != nil {
			return err
		}
		if requesterID != order.OwnerID {
			return fmt.Errorf("order %s: %w", orderID, types.ErrUnauthorized)
		}
		if order.Status != types.StatusOpen && order.Status != types.StatusPartiallyFilled {
			return fmt.Errorf("order %s is %s: %w", orderID, order.Status, types.ErrInvalidState)
		}

		if order.Side == types.SideBuy {
			refund, err := accounts.ReleaseEscrow(tx, order.OrderID)
			if err != nil {
				return err
			}
			if err := accounts.Credit(tx, order.OwnerID, refund); err != nil {
				return err
			}
			logger.Debug().Int64("refund", refund).Msg("refunded residual escrow")
		}

		now := s.now()
		order.Status = types.StatusCancelled
		order.CancelledAt = &now
		order.UpdatedAt = now
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		cancelled = order
		return refreshStats(tx, order.Category, nil)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("cancel rejected")
		return nil, err
	}

	logger.Info().Msg("order cancelled")
	return cancelled, nil
}

// ExpireDueOrders moves live orders whose expiry has passed into the
// terminal EXPIRED state, refunding residual buy escrow. It returns the
// number of orders expired.
func (s *Service) ExpireDueOrders(now time.Time) (int, error) {
	logger := log.With().Str("service", "exchange").Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var due []types.Order
		if err := tx.Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]string{types.StatusOpen, types.StatusPartiallyFilled}, now).
			Find(&due).Error; err != nil {
			return err
		}

		touched := make(map[string]bool)
		for i := range due {
			order := &due[i]
			if order.Side == types.SideBuy {
				refund, err := accounts.ReleaseEscrow(tx, order.OrderID)
				if err != nil {
					return err
				}
				if err := accounts.Credit(tx, order.OwnerID, refund); err != nil {
					return err
				}
			}
			order.Status = types.StatusExpired
			order.UpdatedAt = now
			if err := tx.Save(order).Error; err != nil {
				return err
			}
			touched[order.Category] = true
			expired++

			logger.Info().
				Str("order_id", order.OrderID).
				Str("category", order.Category).
				Msg("order expired")
		}

		for category := range touched {
			if err := refreshStats(tx, category, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// GetOrderForOwner retrieves an order visible to its owner only.
func (s *Service) GetOrderForOwner(orderID, ownerID string) (*types.Order, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.OwnerID != ownerID {
		return nil, fmt.Errorf("order %s: %w", orderID, types.ErrNotFound)
	}
	return order, nil
}

// OrderBook returns the live book for a category, optionally narrowed by
// sub-instrument and region filters.
func (s *Service) OrderBook(category string, filters BookFilters) (*types.OrderBookView, error) {
	if _, ok := catalog.Lookup(category); !ok {
		return nil, fmt.Errorf("category %q: %w", category, types.ErrNotFound)
	}

	sells, err := s.db.LiveOrders(category, types.SideSell)
	if err != nil {
		return nil, err
	}
	buys, err := s.db.LiveOrders(category, types.SideBuy)
	if err != nil {
		return nil, err
	}

	return &types.OrderBookView{
		Category: category,
		Sells:    applyBookFilters(sells, filters),
		Buys:     applyBookFilters(buys, filters),
	}, nil
}

func applyBookFilters(orders []types.Order, filters BookFilters) []types.Order {
	filtered := make([]types.Order, 0, len(orders))
	for _, order := range orders {
		if filters.Instrument != "" && order.Instrument != filters.Instrument {
			continue
		}
		if filters.Region != "" && order.Region != filters.Region {
			continue
		}
		filtered = append(filtered, order)
	}
	return filtered
}

// MarketStats returns the current derived snapshot for a category.
func (s *Service) MarketStats(category string) (*types.MarketSnapshot, error) {
	if _, ok := catalog.Lookup(category); !ok {
		return nil, fmt.Errorf("category %q: %w", category, types.ErrNotFound)
	}
	return s.db.GetSnapshot(category)
}

func (s *Service) replayedOrder(idempotencyKey string) (*types.Order, error) {
	record, err := s.db.GetIdempotencyRecord(idempotencyKey)
	if err != nil || record == nil || record.ResourceType != "order" {
		return nil, err
	}
	if record.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return s.db.GetOrder(record.ResourceID)
}

func (s *Service) replayedTrade(idempotencyKey string) (*types.Trade, error) {
	record, err := s.db.GetIdempotencyRecord(idempotencyKey)
	if err != nil || record == nil || record.ResourceType != "trade" {
		return nil, err
	}
	if record.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return s.db.GetTrade(record.ResourceID)
}
