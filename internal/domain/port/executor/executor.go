package executor

import "context"

// ExecuteResult is the well-formed response of the qb-shim for one document
type ExecuteResult struct {
	Success       bool   `json:"success"`
	QBXMLResponse string `json:"qbxml_response"`
	QBErrorMsg    string `json:"qb_error_message"`
	ErrorCode     string `json:"error_code"`
}

// Health describes the shim's view of the QuickBooks session
type Health struct {
	QuickBooksConnected bool   `json:"quickbooks_connected"`
	CompanyFile         string `json:"company_file"`
	CompanyFileOpen     bool   `json:"company_file_open"`
	Error               string `json:"error"`
}

// Executor is the downstream collaborator that actually runs qbxml documents
// against QuickBooks. Transport-level failures surface as errors wrapping
// ErrShimUnavailable; a non-nil ExecuteResult is a well-formed downstream
// response regardless of its Success flag.
type Executor interface {
	// ExecuteDocument submits one document for execution
	ExecuteDocument(ctx context.Context, qbxml, identifier string) (*ExecuteResult, error)

	// CheckHealth probes the shim and the QuickBooks session behind it
	CheckHealth(ctx context.Context) (*Health, error)
}
