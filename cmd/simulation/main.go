package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/verdex/verdex-api/internal/auth"
	"github.com/verdex/verdex-api/internal/types"
)

const (
	ordersPerSide  = 25
	numWorkers     = 5
	serverAddress  = "http://localhost:8080"
	openingBalance = int64(5_000_000) // minor units per participant
)

var categories = []string{"carbon", "water", "biodiversity", "soil", "energy"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the exchange API for one
// participant
type simulationClient struct {
	baseURL       string
	participantID string
	authToken     string
	client        *http.Client

	mu    sync.Mutex
	stats map[string]*routeStats
}

// newSimulationClient authenticates one participant and prepares performance
// tracking
func newSimulationClient(apiKey, apiSecret string) (*simulationClient, error) {
	sc := &simulationClient{
		baseURL:       serverAddress,
		participantID: apiKey,
		client:        &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"auth":    {name: "Authentication"},
			"deposit": {name: "Deposit"},
			"place":   {name: "Place Order"},
			"fill":    {name: "Fill Order"},
			"cancel":  {name: "Cancel Order"},
			"book":    {name: "Order Book"},
			"stats":   {name: "Market Stats"},
		},
	}

	token, err := sc.authenticate(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate %s: %w", apiKey, err)
	}
	sc.authToken = token

	return sc, nil
}

func (sc *simulationClient) track(route string, start time.Time, failed bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.stats[route].addDuration(time.Since(start))
	if failed {
		sc.stats[route].failures++
	}
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate(apiKey, apiSecret string) (string, error) {
	start := time.Now()
	failed := false
	defer func() { sc.track("auth", start, failed) }()

	credentials := map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		failed = true
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		failed = true
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		failed = true
		return "", err
	}

	return result.Data.Token, nil
}

// doJSON issues an authenticated request and decodes the envelope's data
// field into out when non-nil
func (sc *simulationClient) doJSON(method, path string, payload interface{}, idempotent bool, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sc.authToken)
	req.Header.Set("Content-Type", "application/json")
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

// deposit funds a participant account through the internal endpoint
func (sc *simulationClient) deposit(participantID string, amount int64) error {
	start := time.Now()
	failed := false
	defer func() { sc.track("deposit", start, failed) }()

	path := fmt.Sprintf("/api/v1/internal/accounts/%s/deposit", participantID)
	if err := sc.doJSON("POST", path, map[string]int64{"amount": amount}, false, nil); err != nil {
		failed = true
		return err
	}
	return nil
}

// placeOrder submits a new order and returns the created order ID
func (sc *simulationClient) placeOrder(side types.Side, category string, quantity, price int64, allowPartial bool) (string, error) {
	start := time.Now()
	failed := false
	defer func() { sc.track("place", start, failed) }()

	payload := map[string]interface{}{
		"side":          side,
		"category":      category,
		"quantity":      quantity,
		"price":         price,
		"allow_partial": allowPartial,
	}

	var result types.PlacementResult
	if err := sc.doJSON("POST", "/api/v1/exchange/orders", payload, true, &result); err != nil {
		failed = true
		return "", err
	}
	if result.Order.OrderID == "" {
		failed = true
		return "", fmt.Errorf("no order ID in placement response")
	}
	return result.Order.OrderID, nil
}

// fillOrder fills a resting order; a zero quantity takes the full remaining
// amount
func (sc *simulationClient) fillOrder(orderID string, quantity int64) (*types.Trade, error) {
	start := time.Now()
	failed := false
	defer func() { sc.track("fill", start, failed) }()

	path := fmt.Sprintf("/api/v1/exchange/orders/%s/fill", orderID)
	var trade types.Trade
	if err := sc.doJSON("POST", path, map[string]int64{"quantity": quantity}, true, &trade); err != nil {
		failed = true
		return nil, err
	}
	return &trade, nil
}

// cancelOrder cancels one of the participant's own orders
func (sc *simulationClient) cancelOrder(orderID string) error {
	start := time.Now()
	failed := false
	defer func() { sc.track("cancel", start, failed) }()

	path := fmt.Sprintf("/api/v1/exchange/orders/%s", orderID)
	if err := sc.doJSON("DELETE", path, nil, false, nil); err != nil {
		failed = true
		return err
	}
	return nil
}

// orderBook fetches the live book for a category
func (sc *simulationClient) orderBook(category string) (*types.OrderBookView, error) {
	start := time.Now()
	failed := false
	defer func() { sc.track("book", start, failed) }()

	var book types.OrderBookView
	if err := sc.doJSON("GET", "/api/v1/exchange/book/"+category, nil, false, &book); err != nil {
		failed = true
		return nil, err
	}
	return &book, nil
}

// marketStats fetches a category's market snapshot
func (sc *simulationClient) marketStats(category string) (*types.MarketSnapshot, error) {
	start := time.Now()
	failed := false
	defer func() { sc.track("stats", start, failed) }()

	var snapshot types.MarketSnapshot
	if err := sc.doJSON("GET", "/api/v1/exchange/stats/"+category, nil, false, &snapshot); err != nil {
		failed = true
		return nil, err
	}
	return &snapshot, nil
}

func main() {
	log.Info().Msg("starting exchange simulation")

	seller, err := newSimulationClient(auth.TestSellerAPIKey, auth.TestSellerAPISecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create seller client")
	}
	buyer, err := newSimulationClient(auth.TestBuyerAPIKey, auth.TestBuyerAPISecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create buyer client")
	}

	for _, participant := range []string{seller.participantID, buyer.participantID} {
		if err := seller.deposit(participant, openingBalance); err != nil {
			log.Fatal().Err(err).Str("participant", participant).Msg("failed to fund account")
		}
	}

	// Seller posts asks across categories and workers fill them from the
	// buyer's balance. The buyer then posts bids the seller fills,
	// exercising the escrow path.
	var wg sync.WaitGroup
	orderCh := make(chan string, ordersPerSide)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(orderCh)
		for i := 0; i < ordersPerSide; i++ {
			category := categories[rand.Intn(len(categories))]
			quantity := int64(rand.Intn(90) + 10)
			price := int64(rand.Intn(1900) + 100)
			orderID, err := seller.placeOrder(types.SideSell, category, quantity, price, true)
			if err != nil {
				log.Warn().Err(err).Msg("sell placement failed")
				continue
			}
			orderCh <- orderID
		}
	}()

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for orderID := range orderCh {
				trade, err := buyer.fillOrder(orderID, 0)
				if err != nil {
					log.Warn().Err(err).Str("order_id", orderID).Msg("fill failed")
					continue
				}
				log.Debug().
					Str("trade_id", trade.TradeID).
					Int64("quantity", trade.Quantity).
					Int64("fee", trade.Fee).
					Msg("filled sell order")
			}
		}()
	}
	wg.Wait()

	// Buy-side flow: bids with escrow, partially filled then cancelled.
	for i := 0; i < ordersPerSide; i++ {
		category := categories[rand.Intn(len(categories))]
		quantity := int64(rand.Intn(40) + 10)
		price := int64(rand.Intn(900) + 100)
		orderID, err := buyer.placeOrder(types.SideBuy, category, quantity, price, true)
		if err != nil {
			log.Warn().Err(err).Msg("buy placement failed")
			continue
		}

		if _, err := seller.fillOrder(orderID, quantity/2); err != nil {
			log.Warn().Err(err).Str("order_id", orderID).Msg("buy-side fill failed")
		}
		if err := buyer.cancelOrder(orderID); err != nil {
			log.Warn().Err(err).Str("order_id", orderID).Msg("cancel failed")
		}
	}

	for _, category := range categories {
		snapshot, err := buyer.marketStats(category)
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("stats fetch failed")
			continue
		}
		book, err := buyer.orderBook(category)
		if err != nil {
			log.Warn().Err(err).Str("category", category).Msg("book fetch failed")
			continue
		}
		log.Info().
			Str("category", category).
			Int64("best_ask", snapshot.BestAsk).
			Int64("best_bid", snapshot.BestBid).
			Int64("last_price", snapshot.LastPrice).
			Int64("volume", snapshot.Volume).
			Int64("liquidity_score", snapshot.LiquidityScore).
			Int("open_sells", len(book.Sells)).
			Int("open_buys", len(book.Buys)).
			Msg("category summary")
	}

	printStats("seller", seller)
	printStats("buyer", buyer)
}

func printStats(name string, sc *simulationClient) {
	fmt.Printf("\n=== %s route statistics ===\n", name)
	for _, rs := range sc.stats {
		if rs.totalCalls == 0 {
			continue
		}
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("%-16s calls=%-4d failures=%-3d min=%s max=%s mean=%s median=%s p95=%s p99=%s\n",
			rs.name, rs.totalCalls, rs.failures, min, max, mean, median, p95, p99)
	}
}
