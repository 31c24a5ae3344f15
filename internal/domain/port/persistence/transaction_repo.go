package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
)

// ListFilter narrows and pages a transaction listing
type ListFilter struct {
	// Statuses limits results to the given stored statuses; empty means all
	Statuses []entity.TransactionStatus
	// MaxRetryCount, when set, limits results to RetryCount <= *MaxRetryCount
	MaxRetryCount *int
	// Since, when set, limits results to Timestamp >= *Since
	Since *time.Time
	// Limit caps the page size; callers are expected to have clamped it
	Limit int
	// Offset skips the first Offset rows of the filtered, ordered set
	Offset int
}

// TransactionRepository defines essential methods to interact with stored
// transactions. It is the sole owner of transaction state; correctness under
// concurrent submissions relies on its uniqueness and conditional-update
// semantics rather than in-process locking.
type TransactionRepository interface {
	// Create saves a new transaction
	//
	// Possible errors:
	// - ErrDuplicateIdempotencyKey: if the idempotency key is already taken
	// - ErrDatabaseConnection: if the store is unreachable
	Create(ctx context.Context, transaction *entity.Transaction) error

	// GetByID retrieves a transaction by its transaction id
	//
	// Possible errors:
	// - ErrTransactionNotFound: if no transaction has the given id
	// - ErrDatabaseConnection: if the store is unreachable
	GetByID(ctx context.Context, transactionID string) (*entity.Transaction, error)

	// GetByIdempotencyKey retrieves the transaction holding the given key
	//
	// Possible errors:
	// - ErrTransactionNotFound: if no transaction holds the key
	// - ErrDatabaseConnection: if the store is unreachable
	GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*entity.Transaction, error)

	// List returns a page of transactions matching the filter, newest first,
	// along with the total count of the full filtered set
	List(ctx context.Context, filter ListFilter) ([]*entity.Transaction, int64, error)

	// Update persists the current state of an existing transaction
	//
	// Possible errors:
	// - ErrTransactionNotFound: if the transaction no longer exists
	// - ErrDatabaseConnection: if the store is unreachable
	Update(ctx context.Context, transaction *entity.Transaction) error

	// ClaimForRetry atomically flips status from error back to pending and is
	// the sole admission gate for retries. It returns false when the
	// transaction is missing or no longer in error, meaning a concurrent
	// retry already claimed it.
	ClaimForRetry(ctx context.Context, transactionID string) (bool, error)

	// DeleteOlderThan bulk-deletes transactions whose submission timestamp is
	// strictly before the cutoff and returns the number removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
