package exchange

import (
	"github.com/gin-gonic/gin"
	"github.com/verdex/verdex-api/internal/auth"
	"github.com/verdex/verdex-api/internal/catalog"
	"github.com/verdex/verdex-api/pkg/response"
)

// GinHandlers contains HTTP handlers for exchange endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for exchange endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

func participantFromClaims(c *gin.Context) (string, bool) {
	claims, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, "Missing authentication claims")
		return "", false
	}
	participantID := auth.GetParticipantID(claims)
	if participantID == "" {
		response.Unauthorized(c, "Invalid participant ID in token")
		return "", false
	}
	return participantID, true
}

// PlaceOrderHandler handles POST requests to place new orders
// Requires a valid JWT token and idempotency key in headers
func (h *GinHandlers) PlaceOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		participantID, ok := participantFromClaims(c)
		if !ok {
			return
		}

		var input PlaceOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		input.OwnerID = participantID

		result, err := h.service.PlaceOrder(input, idempotencyKey)
		response.Handle(c, result, err)
	}
}

// GetOrderHandler handles GET requests to retrieve an order's status
// Requires a valid JWT token; only the owner can see the order
// URL parameter: order_id
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantID, ok := participantFromClaims(c)
		if !ok {
			return
		}

		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		order, err := h.service.GetOrderForOwner(orderID, participantID)
		response.Handle(c, order, err)
	}
}

// FillOrderHandler handles POST requests to fill a resting order
// Requires a valid JWT token and idempotency key in headers
// URL parameter: order_id. An omitted or zero quantity fills the full
// remaining amount.
func (h *GinHandlers) FillOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		participantID, ok := participantFromClaims(c)
		if !ok {
			return
		}

		var req struct {
			Quantity int64 `json:"quantity"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BadRequest(c, err.Error())
				return
			}
		}

		trade, err := h.service.FillOrder(c.Param("order_id"), participantID, req.Quantity, idempotencyKey)
		response.Handle(c, trade, err)
	}
}

// CancelOrderHandler handles DELETE requests to cancel an order
// Requires a valid JWT token; only the owner can cancel
// URL parameter: order_id
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantID, ok := participantFromClaims(c)
		if !ok {
			return
		}

		order, err := h.service.CancelOrder(c.Param("order_id"), participantID)
		response.Handle(c, order, err)
	}
}

// MatchesHandler handles GET requests for advisory match candidates
// Requires a valid JWT token
// URL parameter: order_id
func (h *GinHandlers) MatchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := participantFromClaims(c); !ok {
			return
		}

		matches, err := h.service.FindMatches(c.Param("order_id"))
		response.Handle(c, matches, err)
	}
}

// OrderBookHandler handles GET requests for a category's live book
// URL parameter: category; optional query parameters: instrument, region
func (h *GinHandlers) OrderBookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := BookFilters{
			Instrument: c.Query("instrument"),
			Region:     c.Query("region"),
		}

		book, err := h.service.OrderBook(c.Param("category"), filters)
		response.Handle(c, book, err)
	}
}

// MarketStatsHandler handles GET requests for a category's market snapshot
// URL parameter: category
func (h *GinHandlers) MarketStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := h.service.MarketStats(c.Param("category"))
		response.Handle(c, snapshot, err)
	}
}

// CategoriesHandler handles GET requests for the static category catalog
func (h *GinHandlers) CategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, catalog.All())
	}
}
