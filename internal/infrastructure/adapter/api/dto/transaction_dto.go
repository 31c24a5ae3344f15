package dto

import (
	"time"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
)

// TransactionSummary is one row of a transaction listing. Document bodies are
// replaced by their sizes to keep pages small.
type TransactionSummary struct {
	TransactionID     string `json:"transaction_id"`
	Identifier        string `json:"identifier"`
	IdempotencyKey    string `json:"idempotency_key"`
	Timestamp         string `json:"timestamp"`
	Status            string `json:"status"`
	ProcessingTimeMS  int64  `json:"processing_time_ms"`
	QBXMLRequestSize  int    `json:"qbxml_request_size"`
	QBXMLResponseSize int    `json:"qbxml_response_size"`
	RetryCount        int    `json:"retry_count"`
}

// TransactionListResponse is one page of summaries plus the total filtered count
type TransactionListResponse struct {
	Transactions []TransactionSummary `json:"transactions"`
	Total        int64                `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// TransactionDetail is the full stored record of one transaction
type TransactionDetail struct {
	TransactionID    string `json:"transaction_id"`
	Identifier       string `json:"identifier"`
	IdempotencyKey   string `json:"idempotency_key"`
	Timestamp        string `json:"timestamp"`
	Status           string `json:"status"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	QBXMLRequest     string `json:"qbxml_request"`
	QBXMLResponse    string `json:"qbxml_response"`
	ErrorMessage     string `json:"error_message"`
	ErrorCode        string `json:"error_code"`
	RetryCount       int    `json:"retry_count"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// NewTransactionSummary converts an entity to a listing row
func NewTransactionSummary(t *entity.Transaction) TransactionSummary {
	return TransactionSummary{
		TransactionID:     t.TransactionID,
		Identifier:        t.Identifier,
		IdempotencyKey:    t.IdempotencyKey,
		Timestamp:         t.Timestamp.Format(time.RFC3339),
		Status:            string(t.Status),
		ProcessingTimeMS:  t.ProcessingTimeMS,
		QBXMLRequestSize:  len(t.QBXMLRequest),
		QBXMLResponseSize: len(t.QBXMLResponse),
		RetryCount:        t.RetryCount,
	}
}

// NewTransactionDetail converts an entity to its full API representation
func NewTransactionDetail(t *entity.Transaction) TransactionDetail {
	return TransactionDetail{
		TransactionID:    t.TransactionID,
		Identifier:       t.Identifier,
		IdempotencyKey:   t.IdempotencyKey,
		Timestamp:        t.Timestamp.Format(time.RFC3339),
		Status:           string(t.Status),
		ProcessingTimeMS: t.ProcessingTimeMS,
		QBXMLRequest:     t.QBXMLRequest,
		QBXMLResponse:    t.QBXMLResponse,
		ErrorMessage:     t.ErrorMessage,
		ErrorCode:        t.ErrorCode,
		RetryCount:       t.RetryCount,
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        t.UpdatedAt.Format(time.RFC3339),
	}
}
