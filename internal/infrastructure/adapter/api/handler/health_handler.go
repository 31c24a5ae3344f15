package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/usecase/health"
)

// HealthHandler handles the health probe endpoint
type HealthHandler struct {
	checker *health.Checker
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check handles the GET /health endpoint. Always 200; the body carries the
// aggregated status.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.Check(c.Request.Context()))
}
