package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	usecaseport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/api/dto"
)

// TransactionHandler handles transaction listing, lookup and manual retry
type TransactionHandler struct {
	qbxmlService usecaseport.QBXMLUseCase
	logger       coreport.Logger
}

// NewTransactionHandler creates a new transaction handler instance
func NewTransactionHandler(qbxmlService usecaseport.QBXMLUseCase, logger coreport.Logger) *TransactionHandler {
	return &TransactionHandler{
		qbxmlService: qbxmlService,
		logger:       logger,
	}
}

// List handles the GET /transactions endpoint
func (h *TransactionHandler) List(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid limit value",
			ErrorCode: errs.CodeValidation,
		})
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:     "Invalid offset value",
			ErrorCode: errs.CodeValidation,
		})
		return
	}

	result, err := h.qbxmlService.List(c.Request.Context(), usecaseport.ListQuery{
		Statuses: c.QueryArray("status"),
		Since:    c.Query("since"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	summaries := make([]dto.TransactionSummary, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		summaries = append(summaries, dto.NewTransactionSummary(tx))
	}

	c.JSON(http.StatusOK, dto.TransactionListResponse{
		Transactions: summaries,
		Total:        result.Total,
		Limit:        result.Limit,
		Offset:       result.Offset,
	})
}

// Get handles the GET /transactions/:id endpoint
func (h *TransactionHandler) Get(c *gin.Context) {
	tx, err := h.qbxmlService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionDetail(tx))
}

// Retry handles the POST /transactions/:id/retry endpoint
func (h *TransactionHandler) Retry(c *gin.Context) {
	result, err := h.qbxmlService.RetryByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(result.StatusCode, result.Envelope)
}

// intQuery parses an optional integer query parameter
func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
