package shim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
)

type testLogger struct{}

func (testLogger) SetLevel(coreport.LogLevel)   {}
func (testLogger) Debug(string, map[string]any) {}
func (testLogger) Info(string, map[string]any)  {}
func (testLogger) Warn(string, map[string]any)  {}
func (testLogger) Error(string, map[string]any) {}
func (testLogger) Flush() error                 { return nil }

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		URL:            baseURL,
		ConnectTimeout: time.Second,
		Timeout:        2 * time.Second,
	}, testLogger{})
}

func TestClient_ExecuteDocumentSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/qbxml", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "<QBXML/>", payload["qbxml"])
		assert.Equal(t, "invoice-42", payload["transaction_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "qbxml_response": "<QBXMLResponse/>"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.ExecuteDocument(context.Background(), "<QBXML/>", "invoice-42")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "<QBXMLResponse/>", result.QBXMLResponse)
}

func TestClient_ExecuteDocumentQuickBooksError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The shim reports downstream rejections with a non-200 status but a
		// well-formed envelope
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success": false, "qb_error_message": "Invalid account reference", "error_code": "QB_ERROR"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.ExecuteDocument(context.Background(), "<QBXML/>", "")

	require.NoError(t, err, "a decodable rejection is a result, not a transport error")
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid account reference", result.QBErrorMsg)
	assert.Equal(t, "QB_ERROR", result.ErrorCode)
}

func TestClient_ExecuteDocumentConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens on the captured address anymore

	client := newTestClient(server.URL)
	result, err := client.ExecuteDocument(context.Background(), "<QBXML/>", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, errs.ErrShimUnavailable)
}

func TestClient_ExecuteDocumentTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := NewClient(Config{
		URL:            server.URL,
		ConnectTimeout: time.Second,
		Timeout:        50 * time.Millisecond,
	}, testLogger{})

	result, err := client.ExecuteDocument(context.Background(), "<QBXML/>", "")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, errs.ErrShimUnavailable)
}

func TestClient_ExecuteDocumentMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>proxy error</html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.ExecuteDocument(context.Background(), "<QBXML/>", "")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrShimUnavailable, "a reachable shim with a broken body is not a transport failure")
}

func TestClient_CheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quickbooks_connected": true, "company_file": "Acme.qbw", "company_file_open": true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	health, err := client.CheckHealth(context.Background())

	require.NoError(t, err)
	assert.True(t, health.QuickBooksConnected)
	assert.Equal(t, "Acme.qbw", health.CompanyFile)
	assert.True(t, health.CompanyFileOpen)
}

func TestClient_CheckHealthUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	health, err := client.CheckHealth(context.Background())

	assert.Nil(t, health)
	assert.ErrorIs(t, err, errs.ErrShimUnavailable)
}
