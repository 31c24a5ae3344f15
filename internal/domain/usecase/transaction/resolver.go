package transaction

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
)

// Resolution is the resolver's verdict on a submission
type Resolution struct {
	Transaction *entity.Transaction
	// Proceed is false when deduplication wins and the stored result must be
	// returned without executing
	Proceed bool
	// IsRetry marks an admitted re-execution of a previously failed transaction
	IsRetry bool
}

// Resolver decides whether a submission may execute, must be answered from an
// existing record, or is an admitted retry of a failed transaction
type Resolver struct {
	transactionRepo persistence.TransactionRepository
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
}

// NewResolver creates a new Resolver
func NewResolver(
	transactionRepo persistence.TransactionRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Resolver {
	return &Resolver{
		transactionRepo: transactionRepo,
		timeProvider:    timeProvider,
		logger:          logger,
	}
}

// Resolve applies the idempotency algorithm for one submission. Without a key
// there is no deduplication axis and a fresh transaction always proceeds.
func (r *Resolver) Resolve(ctx context.Context, idempotencyKey, identifier, qbxml string) (*Resolution, error) {
	if idempotencyKey == "" {
		return r.createNew(ctx, idempotencyKey, identifier, qbxml)
	}

	existing, err := r.transactionRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		if errs.IsNotFoundError(err) {
			resolution, createErr := r.createNew(ctx, idempotencyKey, identifier, qbxml)
			if createErr != nil && errs.IsDuplicateKeyError(createErr) {
				// Lost the create race on the uniqueness constraint. The
				// winner's record is authoritative; classify against it.
				r.logger.Info("Create lost idempotency key race, re-reading", map[string]any{
					"idempotency_key": idempotencyKey,
				})
				return r.resolveExisting(ctx, idempotencyKey)
			}
			return resolution, createErr
		}
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	return r.classify(ctx, existing)
}

// resolveExisting re-reads the record holding the key and classifies it
func (r *Resolver) resolveExisting(ctx context.Context, idempotencyKey string) (*Resolution, error) {
	existing, err := r.transactionRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read after duplicate key: %w", err)
	}
	return r.classify(ctx, existing)
}

// classify turns an existing record into a duplicate verdict or an admitted retry
func (r *Resolver) classify(ctx context.Context, existing *entity.Transaction) (*Resolution, error) {
	if existing.Status.IsSettled() {
		r.logger.Info("Duplicate submission short-circuited", map[string]any{
			"transaction_id":  existing.TransactionID,
			"idempotency_key": existing.IdempotencyKey,
			"status":          existing.Status,
		})
		return &Resolution{Transaction: existing, Proceed: false}, nil
	}

	// Existing record failed; this submission is a retry. The conditional
	// claim is the sole admission gate, so two racers cannot both execute.
	claimed, err := r.transactionRepo.ClaimForRetry(ctx, existing.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim transaction for retry: %w", err)
	}

	current, err := r.transactionRepo.GetByID(ctx, existing.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read claimed transaction: %w", err)
	}

	if !claimed {
		return &Resolution{Transaction: current, Proceed: false}, nil
	}

	return &Resolution{Transaction: current, Proceed: true, IsRetry: true}, nil
}

// createNew records a fresh pending transaction
func (r *Resolver) createNew(ctx context.Context, idempotencyKey, identifier, qbxml string) (*Resolution, error) {
	tx, err := entity.NewTransaction(qbxml, identifier, idempotencyKey, r.timeProvider)
	if err != nil {
		return nil, err
	}

	if err := r.transactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.Debug("Created pending transaction", map[string]any{
		"transaction_id":  tx.TransactionID,
		"idempotency_key": idempotencyKey,
	})
	return &Resolution{Transaction: tx, Proceed: true, IsRetry: false}, nil
}
