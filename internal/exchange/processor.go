package exchange

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiryProcessor sweeps the board for orders whose expiry has passed and
// transitions them to EXPIRED through the facade, so refunds and snapshot
// refreshes follow the same serialized commit path as cancels.
type ExpiryProcessor struct {
	service       *Service
	sweepInterval time.Duration
}

func NewExpiryProcessor(service *Service) *ExpiryProcessor {
	return &ExpiryProcessor{
		service:       service,
		sweepInterval: time.Minute,
	}
}

// Start begins the expiry sweep loop
func (p *ExpiryProcessor) Start(ctx context.Context) {
	logger := log.With().Str("component", "expiry_processor").Logger()
	logger.Info().Dur("interval", p.sweepInterval).Msg("starting expiry processor")

	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down expiry processor")
			return
		case <-ticker.C:
			expired, err := p.service.ExpireDueOrders(time.Now())
			if err != nil {
				logger.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if expired > 0 {
				logger.Info().Int("expired_count", expired).Msg("expired due orders")
			}
		}
	}
}
