package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorStatus сопоставление ошибок сервисов HTTP статусам
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrRunInProgress, http.StatusConflict, "run_in_progress"},
	{service.ErrMissingAPIKey, http.StatusUnprocessableEntity, "missing_account_key"},
	{service.ErrHeaderLayoutMissing, http.StatusUnprocessableEntity, "header_layout_missing"},
	{service.ErrLongLinkColumnMissing, http.StatusUnprocessableEntity, "long_link_column_missing"},
	{repository.ErrSheetNotFound, http.StatusBadRequest, "sheet_not_found"},
	{repository.ErrInvalidCell, http.StatusBadRequest, "invalid_cell"},
	{linksapi.ErrUnexpectedStatus, http.StatusBadGateway, "links_api_error"},
}

// writeError пишет ErrorResponse; неизвестные ошибки - 500
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			logger.Warn(op+" rejected", zap.Error(err))
			c.JSON(e.status, ErrorResponse{Error: e.code, Message: err.Error()})
			return
		}
	}

	logger.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}

// detach контекст запуска не отменяется при обрыве соединения клиента,
// но отменяется при остановке сервера (shutdown)
func detach(c *gin.Context, shutdown context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	if shutdown.Err() != nil {
		cancel()
		return ctx, cancel
	}
	stop := context.AfterFunc(shutdown, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tracking-links",
	})
}
