package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reviewguard/pkg/logger"
	"reviewguard/pkg/metrics"
)

const serviceName = "complaint-service"

// Handlers - все HTTP обработчики API
type Handlers struct {
	Reviews    *ReviewHandler
	Stores     *StoreHandler
	Backfill   *BackfillHandler
	Complaints *ComplaintHandler
	Extension  *ExtensionHandler
}

func SetupRoutes(h Handlers, authMiddleware *AuthMiddleware, extensionAuth *ExtensionAuthMiddleware, allowOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Операторский API
	api := router.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	{
		api.POST("/reviews/sync", h.Reviews.SyncReviews)
		api.GET("/reviews/:review_id", h.Reviews.GetReview)
		api.GET("/reviews/:review_id/history", h.Reviews.GetHistory)

		api.PATCH("/stores/:store_id", h.Stores.UpdateStore)
		api.GET("/stores/:store_id/quota", h.Stores.GetQuota)
		api.POST("/stores/:store_id/extension-key", h.Stores.IssueExtensionKey)
		api.POST("/stores/:store_id/backfill-jobs", h.Backfill.EnqueueJob)

		api.PATCH("/products/:product_id", h.Stores.UpdateProduct)

		api.GET("/backfill-jobs/:job_id", h.Backfill.GetJob)
		api.POST("/backfill-jobs/:job_id/cancel", h.Backfill.CancelJob)

		api.POST("/complaints/:complaint_id/resolution", h.Complaints.Resolve)
	}

	// API браузерного расширения
	extension := router.Group("/api/extension")
	extension.Use(cors.New(cors.Config{
		AllowOrigins:           allowOrigins,
		AllowMethods:           []string{"POST", "OPTIONS"},
		AllowHeaders:           []string{"Content-Type", headerStoreID, headerExtensionKey},
		AllowWildcard:          true,
		AllowBrowserExtensions: true,
		MaxAge:                 12 * time.Hour,
	}))
	// preflight завершается в cors middleware до проверки ключа
	extension.OPTIONS("/complaint-details")
	extension.Use(extensionAuth.Authenticate())
	{
		extension.POST("/complaint-details", h.Extension.SaveComplaintDetail)
	}

	return router
}
