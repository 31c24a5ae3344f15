package model

import (
	"time"
)

// Transaction represents the database model for qbxml transactions. The
// idempotency key index is sparse-unique: multiple NULLs are allowed, a
// non-NULL key maps to at most one row.
type Transaction struct {
	TransactionID    string    `gorm:"primaryKey;size:64"`
	Identifier       string    `gorm:"size:255"`
	IdempotencyKey   *string   `gorm:"uniqueIndex;size:255"`
	Timestamp        time.Time `gorm:"not null;index"`
	Status           string    `gorm:"not null;size:20"`
	ProcessingTimeMS int64
	QBXMLRequest     string    `gorm:"type:text"`
	QBXMLResponse    string    `gorm:"type:text"`
	ErrorMessage     string    `gorm:"type:text"`
	ErrorCode        string    `gorm:"size:50"`
	RetryCount       int       `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
