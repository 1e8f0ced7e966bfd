package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/middleware"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type LinkHandler struct {
	service  service.LinkService
	history  repository.HistoryRepository
	shutdown context.Context
	logger   *zap.Logger
}

func NewLinkHandler(shutdown context.Context, links service.LinkService, history repository.HistoryRepository, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service:  links,
		history:  history,
		shutdown: shutdown,
		logger:   logger,
	}
}

// CreateLinks godoc
// @Summary Create tracking links for every row of "Create Links"
// @Tags links
// @Produce json
// @Success 200 {object} models.RunSummary
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/links/create [post]
func (h *LinkHandler) CreateLinks(c *gin.Context) {
	h.run(c, service.RunModeCreate, h.service.CreateLinks)
}

// ReprocessInvalid godoc
// @Summary Resubmit rows without a 200/201 response code
// @Tags links
// @Produce json
// @Success 200 {object} models.RunSummary
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/links/reprocess [post]
func (h *LinkHandler) ReprocessInvalid(c *gin.Context) {
	h.run(c, service.RunModeReprocess, h.service.ReprocessInvalid)
}

func (h *LinkHandler) run(c *gin.Context, mode string, fn func(context.Context) (*models.RunSummary, error)) {
	ctx, cancel := detach(c, h.shutdown)
	defer cancel()

	h.logger.Info("Run requested",
		zap.String("mode", mode),
		zap.String("operator", middleware.Operator(c)),
	)

	summary, err := fn(ctx)
	if err != nil {
		writeError(c, h.logger, "Run "+mode, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetHistory godoc
// @Summary Latest created links, newest first
// @Tags links
// @Produce json
// @Param limit query int false "Number of entries" default(100)
// @Success 200 {array} models.HistoryEntry
// @Router /api/v1/history [get]
func (h *LinkHandler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be between 1 and 1000",
			})
			return
		}
		limit = n
	}

	entries, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.logger, "List history", err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
