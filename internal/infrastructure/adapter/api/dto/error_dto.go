package dto

// ErrorResponse represents a standardized error response for the API
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}
