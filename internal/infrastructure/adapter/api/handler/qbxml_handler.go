package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	usecaseport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/api/dto"
)

// Headers carrying submission metadata on the raw XML path
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "X-Idempotency-Key"
)

// QBXMLHandler handles document submission requests
type QBXMLHandler struct {
	qbxmlService usecaseport.QBXMLUseCase
	logger       coreport.Logger
}

// NewQBXMLHandler creates a new qbxml handler instance
func NewQBXMLHandler(qbxmlService usecaseport.QBXMLUseCase, logger coreport.Logger) *QBXMLHandler {
	return &QBXMLHandler{
		qbxmlService: qbxmlService,
		logger:       logger,
	}
}

// Submit handles the POST /qbxml endpoint. JSON bodies carry the document and
// metadata inline; raw XML bodies carry metadata in headers.
func (h *QBXMLHandler) Submit(c *gin.Context) {
	contentType := strings.ToLower(strings.TrimSpace(c.ContentType()))

	var req usecaseport.SubmitRequest
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var body dto.QBXMLRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:     "Invalid JSON body: " + err.Error(),
				ErrorCode: errs.CodeValidation,
			})
			return
		}
		req = usecaseport.SubmitRequest{
			QBXML:          body.QBXML,
			Identifier:     body.Identifier,
			IdempotencyKey: body.IdempotencyKey,
		}

	case strings.HasPrefix(contentType, "application/xml"), strings.HasPrefix(contentType, "text/xml"):
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil || strings.TrimSpace(string(raw)) == "" {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:     "Empty XML body",
				ErrorCode: errs.CodeValidation,
			})
			return
		}
		req = usecaseport.SubmitRequest{
			QBXML:          string(raw),
			Identifier:     c.GetHeader(HeaderRequestID),
			IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
		}

	default:
		c.JSON(http.StatusUnsupportedMediaType, dto.ErrorResponse{
			Error:     "Unsupported Content-Type",
			ErrorCode: errs.CodeValidation,
		})
		return
	}

	result, err := h.qbxmlService.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(result.StatusCode, result.Envelope)
}

// respondError maps a usecase error to the API error shape
func respondError(c *gin.Context, logger coreport.Logger, err error) {
	code := errs.ErrorCode(err)
	status := errs.HTTPStatus(code)

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", map[string]any{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
	}

	c.JSON(status, dto.ErrorResponse{
		Error:     err.Error(),
		ErrorCode: code,
	})
}
