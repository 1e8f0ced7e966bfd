package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/service"
)

type QRHandler struct {
	service  service.QRService
	shutdown context.Context
	logger   *zap.Logger
}

func NewQRHandler(shutdown context.Context, qr service.QRService, logger *zap.Logger) *QRHandler {
	return &QRHandler{service: qr, shutdown: shutdown, logger: logger}
}

// GenerateURLs godoc
// @Summary Write QR image URLs next to every long link
// @Tags qr
// @Produce json
// @Success 200 {object} models.QRSummary
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/qr/urls [post]
func (h *QRHandler) GenerateURLs(c *gin.Context) {
	h.do(c, "QR URLs", h.service.GenerateURLs)
}

// Download godoc
// @Summary Download QR images into the object store
// @Tags qr
// @Produce json
// @Success 200 {object} models.QRSummary
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/qr/download [post]
func (h *QRHandler) Download(c *gin.Context) {
	h.do(c, "QR download", h.service.Download)
}

func (h *QRHandler) do(c *gin.Context, op string, fn func(context.Context) (*models.QRSummary, error)) {
	ctx, cancel := detach(c, h.shutdown)
	defer cancel()

	summary, err := fn(ctx)
	if err != nil {
		writeError(c, h.logger, op, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
