package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/exchange/binance"
	"github.com/trade-journal/internal/handler"
	"github.com/trade-journal/internal/middleware"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"github.com/trade-journal/internal/service"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize file logging
	if err := middleware.InitLogger("logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis
	rdb := initRedis(cfg)

	// Auto migrate database
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	priceService := service.NewPriceService(binance.NewClient(cfg.Simulation.PriceURL), rdb)
	walletService := service.NewWalletService(db, walletRepo, positionRepo, cfg.Simulation)
	spotService := service.NewSpotService(db, walletRepo, journalRepo, priceService, cfg.Simulation)
	futuresService := service.NewFuturesService(db, walletRepo, positionRepo, journalRepo, priceService, cfg.Simulation)
	journalService := service.NewJournalService(journalRepo)
	analyticsService := service.NewAnalyticsService(journalRepo)
	syncService := service.NewSyncService(exchangeRepo, journalRepo, cfg.Encryption.AESKey)
	portfolioService := service.NewPortfolioService(
		walletService,
		positionRepo,
		journalRepo,
		exchangeRepo,
		priceService,
		cfg.Encryption.AESKey,
	)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	priceHandler := handler.NewPriceHandler(priceService)
	simHandler := handler.NewSimHandler(walletService, spotService, futuresService)
	journalHandler := handler.NewJournalHandler(journalService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	exchangeHandler := handler.NewExchangeHandler(syncService)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService)

	// Create Gin router
	router := gin.Default()

	// Add request logging middleware
	router.Use(middleware.RequestLoggerMiddleware())

	// Add CORS middleware
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		authMiddleware := middleware.AuthMiddleware(authService)
		orderLogger := middleware.OrderLoggerMiddleware()

		// Public routes
		authHandler.RegisterRoutes(v1, authMiddleware)
		priceHandler.RegisterRoutes(v1)

		// Protected routes
		protected := v1.Group("", authMiddleware)
		simHandler.RegisterRoutes(protected, orderLogger)
		journalHandler.RegisterRoutes(protected)
		analyticsHandler.RegisterRoutes(protected)
		exchangeHandler.RegisterRoutes(protected)
		portfolioHandler.RegisterRoutes(protected)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("Server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.JournalEntry{},
		&models.Position{},
		&models.ExchangeConnection{},
	)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
