package shim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	executorport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/executor"
)

// Config holds qb-shim connection settings
type Config struct {
	URL            string
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

// Client talks to the qb-shim sidecar over HTTP. It is stateless; the shim
// owns the QuickBooks session lifecycle. Connect and total timeouts are
// independent so a reachable-but-slow QuickBooks is distinguishable from a
// dead shim only by how long the failure takes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     coreport.Logger
}

// executeRequest is the wire format of POST {shim}/qbxml
type executeRequest struct {
	QBXML         string `json:"qbxml"`
	TransactionID string `json:"transaction_id"`
}

// NewClient creates a new shim client
func NewClient(config Config, logger coreport.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: config.ConnectTimeout,
		}).DialContext,
	}

	return &Client{
		baseURL: config.URL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: logger,
	}
}

var _ executorport.Executor = (*Client)(nil)

// ExecuteDocument submits one qbxml document to the shim for execution
func (c *Client) ExecuteDocument(ctx context.Context, qbxml, identifier string) (*executorport.ExecuteResult, error) {
	body, err := json.Marshal(executeRequest{QBXML: qbxml, TransactionID: identifier})
	if err != nil {
		return nil, fmt.Errorf("failed to encode shim request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/qbxml", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build shim request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request to qb-shim failed", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	// The shim answers a well-formed envelope on every status code; only an
	// undecodable body is treated as an engine-level failure
	var result executorport.ExecuteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Error("Response from qb-shim is not valid JSON", map[string]any{
			"identifier": identifier,
			"status":     resp.StatusCode,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("invalid shim response: %w", err)
	}

	return &result, nil
}

// CheckHealth probes GET {shim}/health
func (c *Client) CheckHealth(ctx context.Context) (*executorport.Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build shim health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	var health executorport.Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("invalid shim health response: %w", err)
	}
	return &health, nil
}

// classifyTransportError maps connection and deadline failures to the
// shim-unavailable sentinel so the engine records them as retryable. Every
// failure of http.Client.Do is transport-level: refused, unresolvable, or a
// connect/total timeout.
func classifyTransportError(err error) error {
	return fmt.Errorf("%w: %s", errs.ErrShimUnavailable, err.Error())
}
