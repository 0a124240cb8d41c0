package exchange

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/verdex/verdex-api/internal/types"
	"gorm.io/gorm"
)

// refreshStats recomputes a category's derived statistics from the full live
// order set. It runs inside the mutating operation's transaction so the
// snapshot is always consistent with the book it describes. LastPrice and
// Volume are owned by fills: lastTrade updates them, any other mutation
// leaves them as they are.
func refreshStats(tx *gorm.DB, category string, lastTrade *types.Trade) error {
	logger := log.With().
		Str("category", category).
		Str("component", "market_stats").
		Logger()

	sells, err := liveOrders(tx, category, types.SideSell)
	if err != nil {
		return err
	}
	buys, err := liveOrders(tx, category, types.SideBuy)
	if err != nil {
		return err
	}

	snapshot, err := getSnapshot(tx, category)
	if err != nil {
		return err
	}

	snapshot.BestAsk = 0
	snapshot.TotalSupply = 0
	for _, order := range sells {
		if snapshot.BestAsk == 0 || order.Price < snapshot.BestAsk {
			snapshot.BestAsk = order.Price
		}
		snapshot.TotalSupply += order.Remaining()
	}

	snapshot.BestBid = 0
	snapshot.TotalDemand = 0
	for _, order := range buys {
		if order.Price > snapshot.BestBid {
			snapshot.BestBid = order.Price
		}
		snapshot.TotalDemand += order.Remaining()
	}

	snapshot.LiquidityScore = liquidityScore(
		snapshot.TotalSupply, snapshot.TotalDemand, snapshot.BestAsk, snapshot.BestBid)

	if lastTrade != nil {
		snapshot.LastPrice = lastTrade.Price
		snapshot.Volume += lastTrade.Quantity
	}
	snapshot.UpdatedAt = time.Now()

	logger.Debug().
		Int64("best_ask", snapshot.BestAsk).
		Int64("best_bid", snapshot.BestBid).
		Int64("total_supply", snapshot.TotalSupply).
		Int64("total_demand", snapshot.TotalDemand).
		Int64("liquidity_score", snapshot.LiquidityScore).
		Int64("last_price", snapshot.LastPrice).
		Int64("volume", snapshot.Volume).
		Msg("refreshed market snapshot")

	return tx.Save(snapshot).Error
}

// liquidityScore is a depth/spread heuristic clamped to [0, 100]:
// min(100, depth / (1 + spread/10)) with a two-sided book, zero otherwise.
// A crossed book (bid above ask) counts as zero spread.
func liquidityScore(supply, demand, bestAsk, bestBid int64) int64 {
	if bestAsk == 0 || bestBid == 0 {
		return 0
	}
	spread := bestAsk - bestBid
	if spread < 0 {
		spread = 0
	}
	score := (supply + demand) * 10 / (10 + spread)
	if score > 100 {
		return 100
	}
	return score
}
