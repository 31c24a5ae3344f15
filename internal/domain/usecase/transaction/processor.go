package transaction

import (
	"context"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	executorport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/executor"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
)

// Processor drives one execution attempt against the qb-shim and persists the
// outcome before returning control. Every downstream or transport failure is
// converted to a stored error state plus a caller-facing envelope; nothing
// escapes to the HTTP layer uncaught.
type Processor struct {
	transactionRepo persistence.TransactionRepository
	executor        executorport.Executor
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(
	transactionRepo persistence.TransactionRepository,
	executor executorport.Executor,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Processor {
	return &Processor{
		transactionRepo: transactionRepo,
		executor:        executor,
		timeProvider:    timeProvider,
		logger:          logger,
	}
}

// Process executes the transaction's document downstream, records the outcome
// and builds the response envelope
func (p *Processor) Process(ctx context.Context, tx *entity.Transaction, isRetry bool) *entity.Envelope {
	p.logger.Debug("Processing transaction", map[string]any{
		"transaction_id":  tx.TransactionID,
		"idempotency_key": tx.IdempotencyKey,
		"is_retry":        isRetry,
	})

	start := p.timeProvider.Now()
	result, err := p.executor.ExecuteDocument(ctx, tx.QBXMLRequest, tx.Identifier)
	elapsedMS := p.timeProvider.Since(start).Milliseconds()

	if err != nil {
		return p.recordFailure(ctx, tx, err, elapsedMS, isRetry)
	}

	if result.Success {
		tx.MarkSucceeded(result.QBXMLResponse, elapsedMS)
		p.persist(ctx, tx)

		p.logger.Info("Transaction completed", map[string]any{
			"transaction_id":     tx.TransactionID,
			"processing_time_ms": elapsedMS,
		})
		return entity.SuccessEnvelope(tx)
	}

	// Well-formed downstream rejection; carries QuickBooks' own error code
	tx.MarkFailed(result.ErrorCode, result.QBErrorMsg, result.QBXMLResponse, elapsedMS, isRetry)
	p.persist(ctx, tx)

	p.logger.Warn("Transaction rejected by QuickBooks", map[string]any{
		"transaction_id": tx.TransactionID,
		"error_code":     tx.ErrorCode,
		"retry_count":    tx.RetryCount,
	})
	return entity.QBErrorEnvelope(tx)
}

// recordFailure handles transport-level and unexpected failures identically
// apart from their error code
func (p *Processor) recordFailure(ctx context.Context, tx *entity.Transaction, execErr error, elapsedMS int64, isRetry bool) *entity.Envelope {
	errorCode := errs.CodeInternalError
	if errs.IsShimUnavailableError(execErr) {
		errorCode = errs.CodeShimUnavailable
	}

	tx.MarkFailed(errorCode, execErr.Error(), "", elapsedMS, isRetry)
	p.persist(ctx, tx)

	p.logger.Error("Transaction execution failed", map[string]any{
		"transaction_id": tx.TransactionID,
		"error":          execErr.Error(),
		"error_code":     errorCode,
		"retry_count":    tx.RetryCount,
	})
	return entity.UnavailableEnvelope(tx)
}

// persist stores the attempt outcome. A store failure here cannot be surfaced
// to the caller as an execution failure, so it is logged and the envelope
// still reflects the downstream outcome.
func (p *Processor) persist(ctx context.Context, tx *entity.Transaction) {
	if err := p.transactionRepo.Update(ctx, tx); err != nil {
		p.logger.Error("Failed to persist transaction outcome", map[string]any{
			"transaction_id": tx.TransactionID,
			"status":         tx.Status,
			"error":          err.Error(),
		})
	}
}
