package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/model"
)

// TransactionRepository implements the transaction repository port using GORM
type TransactionRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

var _ persistence.TransactionRepository = (*TransactionRepository)(nil)

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(tx *entity.Transaction) model.Transaction {
	var key *string
	if tx.IdempotencyKey != "" {
		value := tx.IdempotencyKey
		key = &value
	}
	return model.Transaction{
		TransactionID:    tx.TransactionID,
		Identifier:       tx.Identifier,
		IdempotencyKey:   key,
		Timestamp:        tx.Timestamp,
		Status:           string(tx.Status),
		ProcessingTimeMS: tx.ProcessingTimeMS,
		QBXMLRequest:     tx.QBXMLRequest,
		QBXMLResponse:    tx.QBXMLResponse,
		ErrorMessage:     tx.ErrorMessage,
		ErrorCode:        tx.ErrorCode,
		RetryCount:       tx.RetryCount,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}

// modelToEntity converts a transaction model to an entity
func (r *TransactionRepository) modelToEntity(m *model.Transaction) *entity.Transaction {
	key := ""
	if m.IdempotencyKey != nil {
		key = *m.IdempotencyKey
	}
	return &entity.Transaction{
		TransactionID:    m.TransactionID,
		Identifier:       m.Identifier,
		IdempotencyKey:   key,
		Timestamp:        m.Timestamp,
		Status:           entity.TransactionStatus(m.Status),
		ProcessingTimeMS: m.ProcessingTimeMS,
		QBXMLRequest:     m.QBXMLRequest,
		QBXMLResponse:    m.QBXMLResponse,
		ErrorMessage:     m.ErrorMessage,
		ErrorCode:        m.ErrorCode,
		RetryCount:       m.RetryCount,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// Create saves a new transaction. The idempotency key uniqueness constraint is
// the authoritative serialization point for racing submissions; a violation
// here means another submission with the same key won the race.
func (r *TransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	transactionModel := r.entityToModel(tx)
	transactionModel.UpdatedAt = r.timeProvider.Now()

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Idempotency key already taken", map[string]any{
				"transaction_id":  tx.TransactionID,
				"idempotency_key": tx.IdempotencyKey,
			})
			return errs.ErrDuplicateIdempotencyKey
		}
		r.logger.Error("Failed to create transaction", map[string]any{
			"transaction_id": tx.TransactionID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	tx.UpdatedAt = transactionModel.UpdatedAt
	return nil
}

// GetByID retrieves a transaction by its transaction id
func (r *TransactionRepository) GetByID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	var transactionModel model.Transaction
	result := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&transactionModel)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction", map[string]any{
			"transaction_id": transactionID,
			"error":          result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&transactionModel), nil
}

// GetByIdempotencyKey retrieves the transaction holding the given key
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*entity.Transaction, error) {
	var transactionModel model.Transaction
	result := r.db.WithContext(ctx).
		Where("idempotency_key = ?", idempotencyKey).
		First(&transactionModel)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction by idempotency key", map[string]any{
			"idempotency_key": idempotencyKey,
			"error":           result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&transactionModel), nil
}

// List returns a page of transactions matching the filter, newest first, plus
// the total count of the full filtered set
func (r *TransactionRepository) List(ctx context.Context, filter persistence.ListFilter) ([]*entity.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Transaction{})

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.MaxRetryCount != nil {
		query = query.Where("retry_count <= ?", *filter.MaxRetryCount)
	}
	if filter.Since != nil {
		query = query.Where("timestamp >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Error("Failed to count transactions", map[string]any{
			"error": err.Error(),
		})
		return nil, 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	query = query.Order("timestamp DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []model.Transaction
	if err := query.Find(&models).Error; err != nil {
		r.logger.Error("Failed to list transactions", map[string]any{
			"error": err.Error(),
		})
		return nil, 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	transactions := make([]*entity.Transaction, 0, len(models))
	for i := range models {
		transactions = append(transactions, r.modelToEntity(&models[i]))
	}
	return transactions, total, nil
}

// Update persists the current state of an existing transaction
func (r *TransactionRepository) Update(ctx context.Context, tx *entity.Transaction) error {
	now := r.timeProvider.Now()
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("transaction_id = ?", tx.TransactionID).
		Updates(map[string]any{
			"status":             string(tx.Status),
			"processing_time_ms": tx.ProcessingTimeMS,
			"qbxml_response":     tx.QBXMLResponse,
			"error_message":      tx.ErrorMessage,
			"error_code":         tx.ErrorCode,
			"retry_count":        tx.RetryCount,
			"updated_at":         now,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update transaction", map[string]any{
			"transaction_id": tx.TransactionID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}

	tx.UpdatedAt = now
	return nil
}

// ClaimForRetry atomically flips status from error back to pending. The
// conditional WHERE makes the store the arbiter between racing retries:
// exactly one caller observes RowsAffected == 1.
func (r *TransactionRepository) ClaimForRetry(ctx context.Context, transactionID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionID, string(entity.StatusError)).
		Updates(map[string]any{
			"status":     string(entity.StatusPending),
			"updated_at": r.timeProvider.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to claim transaction for retry", map[string]any{
			"transaction_id": transactionID,
			"error":          result.Error.Error(),
		})
		return false, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return result.RowsAffected == 1, nil
}

// DeleteOlderThan bulk-deletes transactions submitted strictly before the cutoff
func (r *TransactionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&model.Transaction{})

	if result.Error != nil {
		r.logger.Error("Failed to delete old transactions", map[string]any{
			"cutoff": cutoff,
			"error":  result.Error.Error(),
		})
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return result.RowsAffected, nil
}
