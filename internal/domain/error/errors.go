package error

import (
	"errors"
	"net/http"
)

// Error codes carried in caller-facing envelopes
const (
	CodeDuplicate       = "DUPLICATE"
	CodeShimUnavailable = "SHIM_UNAVAILABLE"
	CodeQBError         = "QB_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION"
	CodeUnauthorized    = "UNAUTHORIZED"
)

// Base error types
var (
	// ErrTransactionNotFound is returned when the referenced transaction id does not exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateIdempotencyKey is returned when a create violates the
	// idempotency key uniqueness constraint
	ErrDuplicateIdempotencyKey = errors.New("transaction with this idempotency key already exists")

	// ErrShimUnavailable is returned when the qb-shim cannot be reached
	ErrShimUnavailable = errors.New("qb-shim not reachable")

	// ErrEmptyDocument is returned when a submission carries no qbxml body
	ErrEmptyDocument = errors.New("qbxml document cannot be empty")

	// ErrInvalidStatusFilter is returned for an unknown status filter value
	ErrInvalidStatusFilter = errors.New("invalid status filter")

	// ErrInvalidSinceFilter is returned when the since filter is not an ISO-8601 timestamp
	ErrInvalidSinceFilter = errors.New("invalid since timestamp")

	// ErrRetryNotAdmitted is returned when a retry loses the claim race to a
	// concurrent retry of the same transaction
	ErrRetryNotAdmitted = errors.New("transaction already claimed for retry")

	// ErrDatabaseConnection is returned when the transaction store is unreachable
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected engine failures
	ErrInternalServer = errors.New("internal server error")

	// ErrUnauthorized is returned when the API key check fails
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorCode returns the standardized code for a known error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateIdempotencyKey), errors.Is(err, ErrRetryNotAdmitted):
		return CodeDuplicate
	case errors.Is(err, ErrShimUnavailable):
		return CodeShimUnavailable
	case errors.Is(err, ErrEmptyDocument),
		errors.Is(err, ErrInvalidStatusFilter),
		errors.Is(err, ErrInvalidSinceFilter):
		return CodeValidation
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	default:
		return CodeInternalError
	}
}

// HTTPStatus maps an error code to the HTTP status communicating its severity
func HTTPStatus(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case CodeDuplicate:
		return http.StatusConflict
	case CodeShimUnavailable:
		return http.StatusServiceUnavailable
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFoundError checks if the error means the referenced transaction is missing
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTransactionNotFound)
}

// IsDuplicateKeyError checks if the error is an idempotency key uniqueness violation
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsShimUnavailableError checks if the error is a downstream transport failure
func IsShimUnavailableError(err error) bool {
	return errors.Is(err, ErrShimUnavailable)
}

// IsValidationError checks if the error was rejected before any persistence
func IsValidationError(err error) bool {
	return ErrorCode(err) == CodeValidation
}
