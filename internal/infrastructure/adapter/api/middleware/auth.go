package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/api/dto"
)

// HeaderAPIKey is the header carrying the caller's API key
const HeaderAPIKey = "X-API-KEY"

// APIKeyAuth rejects requests that do not present the configured API key,
// either in the X-API-KEY header or the api_key query parameter. A missing
// server-side key is a deployment fault, reported as such rather than as an
// auth failure.
func APIKeyAuth(apiKey string, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			logger.Error("API key not configured", map[string]any{
				"path": c.Request.URL.Path,
			})
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:     "Server misconfiguration: API key not set",
				ErrorCode: errs.CodeInternalError,
			})
			return
		}

		provided := c.GetHeader(HeaderAPIKey)
		if provided == "" {
			provided = c.Query("api_key")
		}

		if provided != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:     "Invalid or missing API key",
				ErrorCode: errs.CodeUnauthorized,
			})
			return
		}

		c.Next()
	}
}
