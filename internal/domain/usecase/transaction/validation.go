package transaction

import (
	"fmt"
	"time"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
)

// Listing page bounds
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// NormalizeLimit applies the default page size and silently clamps oversized
// requests to the hard ceiling
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ValidateStatuses converts raw status filter values to the closed status set.
// The duplicate classification is accepted as a filter value but matches no
// stored rows, since it is never persisted.
func ValidateStatuses(raw []string) ([]entity.TransactionStatus, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	statuses := make([]entity.TransactionStatus, 0, len(raw))
	for _, value := range raw {
		status := entity.TransactionStatus(value)
		if !status.Valid() && status != entity.StatusDuplicate {
			return nil, fmt.Errorf("%w: %s", errs.ErrInvalidStatusFilter, value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ParseSince parses an optional ISO-8601 timestamp filter
func ParseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errs.ErrInvalidSinceFilter, raw)
}
