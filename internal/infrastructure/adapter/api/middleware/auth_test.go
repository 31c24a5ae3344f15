package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
)

type testLogger struct{}

func (testLogger) SetLevel(coreport.LogLevel)   {}
func (testLogger) Debug(string, map[string]any) {}
func (testLogger) Info(string, map[string]any)  {}
func (testLogger) Warn(string, map[string]any)  {}
func (testLogger) Error(string, map[string]any) {}
func (testLogger) Flush() error                 { return nil }

func authTestRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(APIKeyAuth(apiKey, testLogger{}))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestAPIKeyAuth(t *testing.T) {
	testCases := []struct {
		name           string
		serverKey      string
		header         string
		query          string
		expectedStatus int
	}{
		{"valid header key", "secret", "secret", "", http.StatusOK},
		{"valid query key", "secret", "", "secret", http.StatusOK},
		{"missing key", "secret", "", "", http.StatusUnauthorized},
		{"wrong key", "secret", "nope", "", http.StatusUnauthorized},
		{"header wins over query", "secret", "wrong", "secret", http.StatusUnauthorized},
		{"unconfigured server key", "", "anything", "", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := authTestRouter(tc.serverKey)

			url := "/protected"
			if tc.query != "" {
				url += "?api_key=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tc.header != "" {
				req.Header.Set(HeaderAPIKey, tc.header)
			}

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			assert.Equal(t, tc.expectedStatus, recorder.Code)
		})
	}
}
