package entity

import (
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	tport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
)

// TransactionStatus defines possible stored status values for a transaction
type TransactionStatus string

// Stored transaction statuses
const (
	StatusPending TransactionStatus = "pending"
	StatusSuccess TransactionStatus = "success"
	StatusError   TransactionStatus = "error"
)

// StatusDuplicate classifies a response for an already settled or in-flight
// idempotency key. It is never persisted as a stored status.
const StatusDuplicate TransactionStatus = "duplicate"

// Valid reports whether s is a status that may be persisted
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusError:
		return true
	}
	return false
}

// IsSettled reports whether a stored transaction with this status must not be
// executed again (settled success or still in flight)
func (s TransactionStatus) IsSettled() bool {
	return s == StatusSuccess || s == StatusPending
}

// Transaction represents one submitted qbxml document and the outcome of its
// execution attempts against QuickBooks
type Transaction struct {
	TransactionID    string            // Engine-generated unique identifier
	Identifier       string            // Caller-supplied correlation label, may be empty
	IdempotencyKey   string            // Optional dedup key, unique when present; empty means absent
	Timestamp        time.Time         // Submission time, used for ordering and retention
	Status           TransactionStatus // Current stored status
	ProcessingTimeMS int64             // Wall-clock duration of the last execution attempt
	QBXMLRequest     string            // Submitted document
	QBXMLResponse    string            // Last downstream response body
	ErrorMessage     string            // Set only when Status is error
	ErrorCode        string            // Set only when Status is error
	RetryCount       int               // Number of attempts flagged as retries
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTransaction creates a pending transaction for a submitted document
func NewTransaction(qbxml, identifier, idempotencyKey string, timeProvider tport.TimeProvider) (*Transaction, error) {
	if qbxml == "" {
		return nil, errs.ErrEmptyDocument
	}

	now := timeProvider.Now()
	return &Transaction{
		TransactionID:  uuid.NewString(),
		Identifier:     identifier,
		IdempotencyKey: idempotencyKey,
		Timestamp:      now,
		Status:         StatusPending,
		QBXMLRequest:   qbxml,
		RetryCount:     0,
		CreatedAt:      now,
	}, nil
}

// MarkSucceeded records a successful execution attempt. Success is terminal.
func (t *Transaction) MarkSucceeded(response string, elapsedMS int64) {
	t.Status = StatusSuccess
	t.QBXMLResponse = response
	t.ProcessingTimeMS = elapsedMS
	t.ErrorMessage = ""
	t.ErrorCode = ""
}

// MarkFailed records a failed execution attempt. RetryCount moves only for
// attempts explicitly flagged as retries, so the initial attempt never counts
// against the retry ceiling.
func (t *Transaction) MarkFailed(errorCode, errorMessage, response string, elapsedMS int64, isRetry bool) {
	t.Status = StatusError
	t.QBXMLResponse = response
	t.ErrorMessage = errorMessage
	t.ErrorCode = errorCode
	t.ProcessingTimeMS = elapsedMS
	if isRetry {
		t.RetryCount++
	}
}
