package entity

// Messages used in caller-facing envelopes
const (
	MessageCompleted  = "Transaction completed successfully"
	MessageInProgress = "in progress"
	MessageQBDown     = "QuickBooks computer not reachable"
)

// RetryAfterSeconds is the hint returned when the downstream shim is unreachable
const RetryAfterSeconds = 60

// Envelope is the caller-facing result of a submission or retry. The same
// shape serves success, duplicate and failure responses; unset fields are
// omitted from the JSON body.
type Envelope struct {
	Success           bool   `json:"success"`
	Identifier        string `json:"identifier,omitempty"`
	QBResponse        string `json:"qb_response,omitempty"`
	ProcessingTimeMS  int64  `json:"processing_time_ms,omitempty"`
	TransactionID     string `json:"transaction_id"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
	ErrorCode         string `json:"error_code,omitempty"`
	QBErrorMessage    string `json:"qb_error_message,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// SuccessEnvelope builds the envelope for a transaction that completed
func SuccessEnvelope(t *Transaction) *Envelope {
	return &Envelope{
		Success:          true,
		Identifier:       t.Identifier,
		QBResponse:       t.QBXMLResponse,
		ProcessingTimeMS: t.ProcessingTimeMS,
		TransactionID:    t.TransactionID,
		Message:          MessageCompleted,
	}
}

// DuplicateEnvelope builds the envelope returned when a submission or retry is
// short-circuited by an existing settled or in-flight transaction
func DuplicateEnvelope(t *Transaction) *Envelope {
	message := MessageInProgress
	if t.Status == StatusSuccess {
		message = MessageCompleted
	}
	return &Envelope{
		Success:          t.Status == StatusSuccess,
		Identifier:       t.Identifier,
		QBResponse:       t.QBXMLResponse,
		ProcessingTimeMS: t.ProcessingTimeMS,
		TransactionID:    t.TransactionID,
		Message:          message,
	}
}

// QBErrorEnvelope builds the envelope for a document QuickBooks rejected. It
// carries the downstream error verbatim, augmented with the transaction id.
func QBErrorEnvelope(t *Transaction) *Envelope {
	return &Envelope{
		Success:        false,
		QBResponse:     t.QBXMLResponse,
		QBErrorMessage: t.ErrorMessage,
		ErrorCode:      t.ErrorCode,
		TransactionID:  t.TransactionID,
	}
}

// UnavailableEnvelope builds the envelope for a transport-level failure
// reaching the shim or for an unexpected engine failure
func UnavailableEnvelope(t *Transaction) *Envelope {
	return &Envelope{
		Success:           false,
		Error:             MessageQBDown,
		ErrorCode:         t.ErrorCode,
		RetryAfterSeconds: RetryAfterSeconds,
		TransactionID:     t.TransactionID,
	}
}
