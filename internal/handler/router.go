package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/middleware"
)

// Handlers обработчики операторского API
type Handlers struct {
	Links    *LinkHandler
	Workbook *WorkbookHandler
	QR       *QRHandler
}

func NewRouter(
	h Handlers,
	rateLimiter *middleware.RateLimiter,
	apiKey *middleware.APIKey,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v.1
	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck)

	// ключ оператора, затем лимит на оператора
	protected := v1.Group("", apiKey.Middleware(), rateLimiter.Middleware())
	{
		protected.POST("/account/sync", h.Workbook.SyncAccount)
		protected.GET("/account/catalog", h.Workbook.GetCatalog)
		protected.POST("/headers", h.Workbook.RebuildHeaders)
		protected.GET("/cells", h.Workbook.GetCell)
		protected.PUT("/cells", h.Workbook.UpdateCell)
		protected.GET("/workbook", h.Workbook.DownloadWorkbook)

		protected.POST("/links/create", h.Links.CreateLinks)
		protected.POST("/links/reprocess", h.Links.ReprocessInvalid)
		protected.GET("/history", h.Links.GetHistory)

		protected.POST("/qr/urls", h.QR.GenerateURLs)
		protected.POST("/qr/download", h.QR.Download)
	}

	return router
}
