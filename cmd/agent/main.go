package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	healthUseCase "github.com/amirhossein-jamali/qb-server-agent/internal/domain/usecase/health"
	transactionUseCase "github.com/amirhossein-jamali/qb-server-agent/internal/domain/usecase/transaction"

	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/repository"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/shim"
	timeProvider "github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/config"
	"github.com/amirhossein-jamali/qb-server-agent/internal/scheduler"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)
	appLogger.SetLevel(logger.ParseLevel(cfg.Logger.Level))
	defer func() { _ = appLogger.Flush() }()

	// Setup database configuration
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        cfg.Logger.Level,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      cfg.Database.RetryDelay,
	}

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	// Connect to the database
	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer func() { _ = dbManager.Close() }()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Initialize repository and shim client
	transactionRepo := repository.NewTransactionRepository(dbManager.DB(), tp, appLogger)

	shimClient := shim.NewClient(shim.Config{
		URL:            cfg.Shim.URL,
		ConnectTimeout: cfg.Shim.ConnectTimeout,
		Timeout:        cfg.Shim.Timeout,
	}, appLogger)

	// Initialize use cases
	qbxmlService := transactionUseCase.NewService(transactionRepo, shimClient, tp, appLogger)
	healthChecker := healthUseCase.NewChecker(transactionRepo, shimClient, tp, appLogger, cfg.Shim.URL)

	// Initialize API handlers
	qbxmlHandler := handler.NewQBXMLHandler(qbxmlService, appLogger)
	transactionHandler := handler.NewTransactionHandler(qbxmlService, appLogger)
	healthHandler := handler.NewHealthHandler(healthChecker)

	// Initialize Gin router
	router := gin.New()

	// Setup middlewares and routes
	routes.SetupMiddlewares(router, appLogger, cfg.Server.EnableCORS)
	routes.SetupRoutes(router, cfg.Server.APIPrefix, cfg.Server.APIKey,
		qbxmlHandler, transactionHandler, healthHandler, appLogger)

	// Start background schedulers
	schedulerCtx, stopSchedulers := context.WithCancel(context.Background())
	defer stopSchedulers()

	if cfg.AutoRetry.Enabled {
		retryScheduler := scheduler.NewRetryScheduler(
			transactionRepo,
			qbxmlService.Processor(),
			appLogger,
			cfg.AutoRetry.Interval,
			cfg.AutoRetry.MaxAttempts,
		)
		go retryScheduler.Start(schedulerCtx)
	}

	if cfg.Retention.Enabled {
		sweeper := scheduler.NewRetentionSweeper(
			transactionRepo,
			tp,
			appLogger,
			cfg.Retention.Interval,
			cfg.Retention.Days,
		)
		go sweeper.Start(schedulerCtx)
	}

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr":     server.Addr,
			"env":      cfg.Environment,
			"shim_url": cfg.Shim.URL,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	// Stop scheduler ticks before draining in-flight requests
	stopSchedulers()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}
	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}
	if cfg.Server.APIKey == "" {
		missingConfigs = append(missingConfigs, "server.apiKey (or QBA_API_KEY environment variable)")
	}

	if cfg.Database.Host == "" {
		missingConfigs = append(missingConfigs, "database.host (or QBA_DB_HOST environment variable)")
	}
	if cfg.Database.Port == 0 {
		missingConfigs = append(missingConfigs, "database.port")
	}
	if cfg.Database.Username == "" {
		missingConfigs = append(missingConfigs, "database.username (or QBA_DB_USERNAME environment variable)")
	}
	if cfg.Database.Database == "" {
		missingConfigs = append(missingConfigs, "database.database (or QBA_DB_NAME environment variable)")
	}
	if cfg.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	if cfg.Shim.URL == "" {
		missingConfigs = append(missingConfigs, "shim.url (or QBA_SHIM_URL environment variable)")
	}
	if cfg.Shim.Timeout == 0 {
		missingConfigs = append(missingConfigs, "shim.timeout")
	}

	if cfg.AutoRetry.Enabled {
		if cfg.AutoRetry.Interval == 0 {
			missingConfigs = append(missingConfigs, "autoRetry.interval")
		}
		if cfg.AutoRetry.MaxAttempts == 0 {
			missingConfigs = append(missingConfigs, "autoRetry.maxAttempts")
		}
	}

	if cfg.Retention.Enabled {
		if cfg.Retention.Interval == 0 {
			missingConfigs = append(missingConfigs, "retention.interval")
		}
		if cfg.Retention.Days == 0 {
			missingConfigs = append(missingConfigs, "retention.days")
		}
	}

	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	return nil
}
