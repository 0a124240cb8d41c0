package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/verdex/verdex-api/internal/accounts"
	"github.com/verdex/verdex-api/internal/auth"
	"github.com/verdex/verdex-api/internal/database"
	"github.com/verdex/verdex-api/internal/exchange"
	"github.com/verdex/verdex-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the exchange API server with graceful shutdown
// support
func main() {
	// Initialize database
	db, err := database.NewDatabase(os.Getenv("DB_PATH"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService("verdex-secret-key")
	authHandlers := auth.NewGinHandlers(authService)
	// Register demo participant credentials
	authService.RegisterAPICredentials(auth.TestSellerAPIKey, auth.TestSellerAPISecret)
	authService.RegisterAPICredentials(auth.TestBuyerAPIKey, auth.TestBuyerAPISecret)

	accountsService := accounts.NewService(db)
	accountsHandlers := accounts.NewGinHandlers(accountsService)

	exchangeService := exchange.NewService(db)
	exchangeHandlers := exchange.NewGinHandlers(exchangeService)

	// Create and start the expiry processor
	expiryProcessor := exchange.NewExpiryProcessor(exchangeService)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go expiryProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, authHandlers, exchangeHandlers, accountsHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Market routes: Public read-only book and stats queries
// - Exchange routes: Protected by JWT authentication
// - Internal routes: Protected by internal network authentication
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	exchangeHandlers *exchange.GinHandlers,
	accountsHandlers *accounts.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Public market data routes
		market := v1.Group("/exchange")
		{
			market.GET("/categories", exchangeHandlers.CategoriesHandler())
			market.GET("/book/:category", exchangeHandlers.OrderBookHandler())
			market.GET("/stats/:category", exchangeHandlers.MarketStatsHandler())
		}

		// Order routes
		orders := v1.Group("/exchange/orders")
		orders.Use(middleware.JWTAuth())
		{
			orders.POST("", exchangeHandlers.PlaceOrderHandler())
			orders.GET("/:order_id", exchangeHandlers.GetOrderHandler())
			orders.POST("/:order_id/fill", exchangeHandlers.FillOrderHandler())
			orders.DELETE("/:order_id", exchangeHandlers.CancelOrderHandler())
			orders.GET("/:order_id/matches", exchangeHandlers.MatchesHandler())
		}

		// Account routes
		accountRoutes := v1.Group("/accounts")
		accountRoutes.Use(middleware.JWTAuth())
		{
			accountRoutes.GET("/balance", accountsHandlers.GetBalanceHandler())
		}

		// Internal routes (should be protected by internal network)
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth())
		{
			internal.POST("/accounts/:participant_id/deposit", accountsHandlers.DepositHandler())
			internal.GET("/treasury", accountsHandlers.TreasuryHandler())
		}
	}
}
