package routes

import (
	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/qb-server-agent/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API. The health probe stays
// outside the authenticated group so monitors can reach it without a key.
func SetupRoutes(
	router *gin.Engine,
	apiPrefix string,
	apiKey string,
	qbxmlHandler *handler.QBXMLHandler,
	transactionHandler *handler.TransactionHandler,
	healthHandler *handler.HealthHandler,
	logger coreport.Logger,
) {
	root := router.Group(apiPrefix)

	root.GET("/health", healthHandler.Check)

	authenticated := root.Group("")
	authenticated.Use(middleware.APIKeyAuth(apiKey, logger))
	{
		authenticated.POST("/qbxml", qbxmlHandler.Submit)
		authenticated.GET("/transactions", transactionHandler.List)
		authenticated.GET("/transactions/:id", transactionHandler.Get)
		authenticated.POST("/transactions/:id/retry", transactionHandler.Retry)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, enableCORS bool) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	if enableCORS {
		router.Use(middleware.CORS())
	}
}
