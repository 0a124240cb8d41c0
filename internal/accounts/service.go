package accounts

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/verdex/verdex-api/internal/auth"
	"github.com/verdex/verdex-api/internal/types"
	"github.com/verdex/verdex-api/pkg/response"
	"gorm.io/gorm"
)

// Service handles participant account operations
type Service struct {
	db *Database
}

// NewService creates a new accounts service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// GetBalance retrieves a participant's account
func (s *Service) GetBalance(participantID string) (*Account, error) {
	return s.db.GetAccount(participantID)
}

// Deposit funds a participant's balance. Deposits come from the external
// ledger integration and are only reachable through internal routes.
func (s *Service) Deposit(participantID string, amount int64) (*Account, error) {
	logger := log.With().
		Str("participant_id", participantID).
		Int64("amount", amount).
		Str("service", "accounts").
		Logger()

	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive: %w", types.ErrValidation)
	}

	account, err := s.db.Deposit(participantID, amount)
	if err != nil {
		logger.Error().Err(err).Msg("deposit failed")
		return nil, err
	}

	logger.Info().Int64("balance", account.Balance).Msg("deposit applied")
	return account, nil
}

// GinHandlers contains HTTP handlers for account endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for account endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetBalanceHandler handles GET requests for the caller's own balance
// Requires a valid JWT token
func (h *GinHandlers) GetBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}

		participantID := auth.GetParticipantID(claims)
		if participantID == "" {
			response.Unauthorized(c, "Invalid participant ID in token")
			return
		}

		account, err := h.service.GetBalance(participantID)
		response.Handle(c, account, err)
	}
}

// DepositHandler handles POST requests to fund a participant account
// Requires internal authentication
// URL parameter: participant_id
func (h *GinHandlers) DepositHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantID := c.Param("participant_id")
		if participantID == "" {
			response.BadRequest(c, "Participant ID is required")
			return
		}

		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		account, err := h.service.Deposit(participantID, req.Amount)
		response.Handle(c, account, err)
	}
}

// TreasuryHandler handles GET requests for the treasury balance
// Requires internal authentication
func (h *GinHandlers) TreasuryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := h.service.GetBalance(TreasuryID)
		response.Handle(c, account, err)
	}
}
