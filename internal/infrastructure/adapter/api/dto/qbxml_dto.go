package dto

// QBXMLRequest represents the JSON body of a document submission
type QBXMLRequest struct {
	QBXML          string `json:"qbxml" binding:"required"`
	Identifier     string `json:"identifier"`
	IdempotencyKey string `json:"idempotency_key"`
}
