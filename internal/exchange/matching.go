package exchange

import (
	"github.com/verdex/verdex-api/internal/types"
)

// FindMatches surfaces resting counter-orders a given order could be filled
// against, sorted by best price (ascending asks for a buy, descending bids
// for a sell). It is purely advisory: nothing is mutated and the caller is
// free to ignore every candidate.
func (s *Service) FindMatches(orderID string) ([]types.Order, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	return s.findMatchesFor(order)
}

func (s *Service) findMatchesFor(order *types.Order) ([]types.Order, error) {
	counterSide := types.SideSell
	if order.Side == types.SideSell {
		counterSide = types.SideBuy
	}

	candidates, err := s.db.LiveOrders(order.Category, counterSide)
	if err != nil {
		return nil, err
	}

	matches := make([]types.Order, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.OwnerID == order.OwnerID {
			continue
		}
		if !priceCompatible(order, &candidate) {
			continue
		}
		if !filtersCompatible(order, &candidate) {
			continue
		}
		matches = append(matches, candidate)
	}
	return matches, nil
}

// priceCompatible checks that a sell's minimum ask does not exceed the buy's
// maximum bid, whichever side the probing order is on.
func priceCompatible(order, candidate *types.Order) bool {
	if order.Side == types.SideBuy {
		return candidate.Price <= order.Price
	}
	return candidate.Price >= order.Price
}

// filtersCompatible applies the optional sub-instrument and
// counterparty-region filters. An empty filter on either order matches
// anything; set filters must agree.
func filtersCompatible(a, b *types.Order) bool {
	if a.Instrument != "" && b.Instrument != "" && a.Instrument != b.Instrument {
		return false
	}
	if a.Region != "" && b.Region != "" && a.Region != b.Region {
		return false
	}
	return true
}
