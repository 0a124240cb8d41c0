package exchange

import (
	"errors"
	"testing"

	"github.com/verdex/verdex-api/internal/types"
)

func TestStatsTrackTheLiveBook(t *testing.T) {
	s, db := newTestService(t)
	fund(t, db, "buyer-1", 100000)
	fund(t, db, "buyer-2", 100000)

	mustPlace(t, s, sellInput("seller", 10, 12))
	mustPlace(t, s, sellInput("seller", 5, 10))
	mustPlace(t, s, buyInput("buyer-1", 4, 9))
	mustPlace(t, s, buyInput("buyer-2", 6, 8))

	snapshot, err := s.MarketStats("carbon")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if snapshot.BestAsk != 10 || snapshot.BestBid != 9 {
		t.Fatalf("unexpected top of book: ask=%d bid=%d", snapshot.BestAsk, snapshot.BestBid)
	}
	if snapshot.TotalSupply != 15 || snapshot.TotalDemand != 10 {
		t.Fatalf("unexpected depth: supply=%d demand=%d", snapshot.TotalSupply, snapshot.TotalDemand)
	}
	// spread 1: floor(25 * 10 / 11) = 22
	if snapshot.LiquidityScore != 22 {
		t.Fatalf("unexpected liquidity score %d", snapshot.LiquidityScore)
	}
	if snapshot.LastPrice != 0 || snapshot.Volume != 0 {
		t.Fatalf("last price/volume set before any fill: %d/%d", snapshot.LastPrice, snapshot.Volume)
	}
}

func TestFillUpdatesLastPriceAndVolume(t *testing.T) {
	s, db := newTestService(t)
	fund(t, db, "buyer", 100000)

	order := mustPlace(t, s, sellInput("seller", 100, 10))

	if _, err := s.FillOrder(order.OrderID, "buyer", 30, ""); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	snapshot, _ := s.MarketStats("carbon")
	if snapshot.LastPrice != 10 || snapshot.Volume != 30 {
		t.Fatalf("unexpected last price/volume: %d/%d", snapshot.LastPrice, snapshot.Volume)
	}

	// Volume accumulates and is never reset by later refreshes.
	if _, err := s.FillOrder(order.OrderID, "buyer", 20, ""); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	other := mustPlace(t, s, sellInput("seller", 1, 99))
	if _, err := s.CancelOrder(other.OrderID, "seller"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	snapshot, _ = s.MarketStats("carbon")
	if snapshot.LastPrice != 10 || snapshot.Volume != 50 {
		t.Fatalf("cancel reset last price/volume: %d/%d", snapshot.LastPrice, snapshot.Volume)
	}
}

func TestStatsUnknownCategory(t *testing.T) {
	s, _ := newTestService(t)

	if _, err := s.MarketStats("plutonium"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.OrderBook("plutonium", BookFilters{}); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsUntouchedCategoryIsZero(t *testing.T) {
	s, _ := newTestService(t)

	snapshot, err := s.MarketStats("water")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if snapshot.Category != "water" || snapshot.BestAsk != 0 || snapshot.BestBid != 0 ||
		snapshot.Volume != 0 || snapshot.LiquidityScore != 0 {
		t.Fatalf("expected zero snapshot, got %+v", snapshot)
	}
}

func TestLiquidityScore(t *testing.T) {
	cases := []struct {
		name                     string
		supply, demand, ask, bid int64
		want                     int64
	}{
		{"one-sided ask", 50, 0, 10, 0, 0},
		{"one-sided bid", 0, 50, 0, 10, 0},
		{"empty", 0, 0, 0, 0, 0},
		{"zero spread", 30, 30, 10, 10, 60},
		{"wide spread", 50, 50, 110, 10, 9}, // floor(1000/110)
		{"crossed book counts as zero spread", 30, 30, 10, 15, 60},
		{"clamped", 5000, 5000, 10, 10, 100},
	}

	for _, tc := range cases {
		if got := liquidityScore(tc.supply, tc.demand, tc.ask, tc.bid); got != tc.want {
			t.Fatalf("%s: liquidityScore = %d, want %d", tc.name, got, tc.want)
		}
	}
}
