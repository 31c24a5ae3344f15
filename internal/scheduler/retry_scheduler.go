package scheduler

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/usecase/transaction"
)

// RetryScheduler periodically re-submits transactions stuck in error, bounded
// by the attempt ceiling. Results are persisted by the execution engine
// itself; the scheduler reports nothing beyond the store.
type RetryScheduler struct {
	transactionRepo persistence.TransactionRepository
	processor       *transaction.Processor
	logger          coreport.Logger
	interval        time.Duration
	maxAttempts     int
}

// NewRetryScheduler creates a new RetryScheduler
func NewRetryScheduler(
	transactionRepo persistence.TransactionRepository,
	processor *transaction.Processor,
	logger coreport.Logger,
	interval time.Duration,
	maxAttempts int,
) *RetryScheduler {
	return &RetryScheduler{
		transactionRepo: transactionRepo,
		processor:       processor,
		logger:          logger,
		interval:        interval,
		maxAttempts:     maxAttempts,
	}
}

// Start runs the retry loop until the context is canceled. A tick in progress
// is not interrupted; shutdown only stops future ticks.
func (s *RetryScheduler) Start(ctx context.Context) {
	s.logger.Info("Retry scheduler started", map[string]any{
		"interval":     s.interval.String(),
		"max_attempts": s.maxAttempts,
	})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retry scheduler stopping", nil)
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce retries every eligible failed transaction sequentially. A failure in
// one transaction does not abort the tick.
func (s *RetryScheduler) runOnce(ctx context.Context) {
	maxRetryCount := s.maxAttempts
	failed, _, err := s.transactionRepo.List(ctx, persistence.ListFilter{
		Statuses:      []entity.TransactionStatus{entity.StatusError},
		MaxRetryCount: &maxRetryCount,
		Limit:         transaction.MaxListLimit,
	})
	if err != nil {
		s.logger.Error("Retry sweep could not list failed transactions", map[string]any{
			"error": err.Error(),
		})
		return
	}

	if len(failed) == 0 {
		return
	}

	s.logger.Info("Retry sweep started", map[string]any{
		"eligible": len(failed),
	})

	for _, stale := range failed {
		s.retryOne(ctx, stale.TransactionID)
	}
}

// retryOne re-fetches the current record, claims it and re-executes it. The
// claim is the same admission gate manual retries use, so a transaction
// racing with an inbound retry executes at most once.
func (s *RetryScheduler) retryOne(ctx context.Context, transactionID string) {
	claimed, err := s.transactionRepo.ClaimForRetry(ctx, transactionID)
	if err != nil {
		s.logger.Error("Failed to claim transaction for auto-retry", map[string]any{
			"transaction_id": transactionID,
			"error":          err.Error(),
		})
		return
	}
	if !claimed {
		// Deleted meanwhile, or a manual retry got there first
		return
	}

	tx, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		s.logger.Error("Failed to re-read claimed transaction", map[string]any{
			"transaction_id": transactionID,
			"error":          err.Error(),
		})
		return
	}

	s.processor.Process(ctx, tx, true)
}
