package types

// OrderBookView represents both sides of a category's book: open and
// partially filled orders only, sells sorted by ascending price and buys by
// descending price.
type OrderBookView struct {
	Category string  `json:"category"`
	Sells    []Order `json:"sells"`
	Buys     []Order `json:"buys"`
}

// PlacementResult is returned from order placement. Matches carries advisory
// counter-order candidates for buy orders; nothing is executed against them.
type PlacementResult struct {
	Order   Order   `json:"order"`
	Matches []Order `json:"matches,omitempty"`
}
