package usecase

import (
	"context"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
)

// SubmitRequest represents an incoming qbxml submission
type SubmitRequest struct {
	QBXML          string
	Identifier     string
	IdempotencyKey string
}

// Result carries the caller-facing envelope of a submission or retry plus the
// HTTP status communicating its classification
type Result struct {
	Conflict   bool // true when the duplicate path short-circuited execution
	StatusCode int
	Envelope   *entity.Envelope
}

// ListQuery holds raw, unvalidated listing filters as received from the caller
type ListQuery struct {
	Statuses []string
	Since    string
	Limit    int
	Offset   int
}

// ListResult is one page of transactions plus the total filtered count
type ListResult struct {
	Transactions []*entity.Transaction
	Total        int64
	Limit        int
	Offset       int
}

// QBXMLUseCase defines the business operations of the request-processing engine
type QBXMLUseCase interface {
	// Submit resolves the idempotency key and, when admitted, executes the
	// document against QuickBooks
	Submit(ctx context.Context, req SubmitRequest) (*Result, error)

	// RetryByID re-executes a failed transaction. Returns
	// ErrTransactionNotFound for an unknown id.
	RetryByID(ctx context.Context, transactionID string) (*Result, error)

	// List returns a filtered, paginated page of transactions
	List(ctx context.Context, query ListQuery) (*ListResult, error)

	// GetByID returns the full stored record for a transaction
	GetByID(ctx context.Context, transactionID string) (*entity.Transaction, error)
}
