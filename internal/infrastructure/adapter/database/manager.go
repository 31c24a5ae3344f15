package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/model"
)

// Manager manages the database connection
type Manager struct {
	config       *Config
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewManager creates a new database manager
func NewManager(config *Config, logger coreport.Logger, timeProvider coreport.TimeProvider) *Manager {
	return &Manager{
		config:       config,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// Connect establishes the database connection, retrying transient startup
// failures, and configures the connection pool
func (m *Manager) Connect() (*gorm.DB, error) {
	if err := m.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	m.logger.Info("Connecting to database", map[string]any{
		"host": m.config.Host,
		"port": m.config.Port,
		"name": m.config.Database,
	})

	var gormDB *gorm.DB
	var err error
	for attempt := 0; attempt < m.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			m.logger.Warn("Retrying database connection", map[string]any{
				"attempt": attempt + 1,
				"of":      m.config.RetryAttempts,
			})
			time.Sleep(m.config.RetryDelay)
		}

		gormDB, err = gorm.Open(postgres.Open(m.config.DSN()), &gorm.Config{
			Logger: NewDatabaseLogger(m.logger, m.config.LogLevel),
			NowFunc: func() time.Time {
				return m.timeProvider.Now()
			},
			PrepareStmt: true,
		})
		if err == nil {
			break
		}

		m.logger.Error("Failed to connect to database", map[string]any{
			"error":   err.Error(),
			"attempt": attempt + 1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", m.config.RetryAttempts, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	m.db = gormDB
	m.logger.Info("Successfully connected to database", map[string]any{
		"host":           m.config.Host,
		"name":           m.config.Database,
		"max_open_conns": m.config.MaxOpenConns,
	})
	return m.db, nil
}

// Migrate creates or updates the transactions table and its indexes
func (m *Manager) Migrate() error {
	if err := m.db.AutoMigrate(&model.Transaction{}); err != nil {
		return fmt.Errorf("failed to migrate transactions table: %w", err)
	}
	m.logger.Info("Database schema up to date", nil)
	return nil
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// WithTimeout returns a context bounded by the configured query timeout
func (m *Manager) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.QueryTimeout)
}

// Close closes the database connection
func (m *Manager) Close() error {
	m.logger.Info("Closing database connection", nil)

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}
