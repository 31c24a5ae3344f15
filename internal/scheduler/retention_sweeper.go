package scheduler

import (
	"context"
	"time"

	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
)

// RetentionSweeper periodically purges transactions older than the retention
// horizon. Deletion is a single bulk operation with no soft-delete.
type RetentionSweeper struct {
	transactionRepo persistence.TransactionRepository
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	interval        time.Duration
	retentionDays   int
}

// NewRetentionSweeper creates a new RetentionSweeper
func NewRetentionSweeper(
	transactionRepo persistence.TransactionRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	interval time.Duration,
	retentionDays int,
) *RetentionSweeper {
	return &RetentionSweeper{
		transactionRepo: transactionRepo,
		timeProvider:    timeProvider,
		logger:          logger,
		interval:        interval,
		retentionDays:   retentionDays,
	}
}

// Start runs the sweep loop until the context is canceled
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info("Retention sweeper started", map[string]any{
		"interval":       s.interval.String(),
		"retention_days": s.retentionDays,
	})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retention sweeper stopping", nil)
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce deletes everything strictly older than the retention cutoff
func (s *RetentionSweeper) runOnce(ctx context.Context) {
	cutoff := s.timeProvider.Now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.transactionRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Retention sweep failed", map[string]any{
			"cutoff": cutoff.Format(time.RFC3339),
			"error":  err.Error(),
		})
		return
	}

	s.logger.Info("Retention sweep completed", map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	})
}
