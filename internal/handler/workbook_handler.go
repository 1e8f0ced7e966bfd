package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Exporter книга целиком в формате xlsx
type Exporter interface {
	Export() ([]byte, error)
}

// WorkbookHandler аккаунт, заголовки и правки ячеек
type WorkbookHandler struct {
	store    repository.SheetStore
	exporter Exporter
	account  service.AccountService
	edits    *service.EditDispatcher
	logger   *zap.Logger
}

func NewWorkbookHandler(
	store repository.SheetStore,
	exporter Exporter,
	account service.AccountService,
	edits *service.EditDispatcher,
	logger *zap.Logger,
) *WorkbookHandler {
	return &WorkbookHandler{
		store:    store,
		exporter: exporter,
		account:  account,
		edits:    edits,
		logger:   logger,
	}
}

// SyncAccount godoc
// @Summary Load apps and domains of the account into "Account Data"
// @Tags account
// @Produce json
// @Param refresh query bool false "Bypass the catalog cache"
// @Success 200 {object} models.SyncSummary
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/account/sync [post]
func (h *WorkbookHandler) SyncAccount(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	summary, err := h.account.Sync(c.Request.Context(), refresh)
	if err != nil {
		writeError(c, h.logger, "Account sync", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCatalog godoc
// @Summary Apps and domains currently on "Account Data"
// @Tags account
// @Produce json
// @Success 200 {object} models.Catalog
// @Router /api/v1/account/catalog [get]
func (h *WorkbookHandler) GetCatalog(c *gin.Context) {
	catalog, err := h.account.Catalog()
	if err != nil {
		writeError(c, h.logger, "Read catalog", err)
		return
	}

	c.JSON(http.StatusOK, catalog)
}

// RebuildHeaders godoc
// @Summary Rebuild the header row of "Create Links" from the checkboxes
// @Tags workbook
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/headers [post]
func (h *WorkbookHandler) RebuildHeaders(c *gin.Context) {
	headers, err := h.edits.RebuildHeaders()
	if err != nil {
		writeError(c, h.logger, "Rebuild headers", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"headers": headers})
}

// GetCell godoc
// @Summary Read one cell
// @Tags workbook
// @Produce json
// @Param sheet query string true "Sheet name"
// @Param cell query string true "A1 reference"
// @Success 200 {object} models.CellEvent
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/cells [get]
func (h *WorkbookHandler) GetCell(c *gin.Context) {
	sheet, cell := c.Query("sheet"), c.Query("cell")
	if sheet == "" || cell == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "sheet and cell are required",
		})
		return
	}

	value, err := h.store.GetCell(sheet, cell)
	if err != nil {
		writeError(c, h.logger, "Read cell", err)
		return
	}

	c.JSON(http.StatusOK, models.CellEvent{Sheet: sheet, Cell: cell, Value: value})
}

// UpdateCell godoc
// @Summary Edit a cell and run its edit handler
// @Tags workbook
// @Accept json
// @Produce json
// @Param request body models.CellEvent true "Cell edit"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/cells [put]
func (h *WorkbookHandler) UpdateCell(c *gin.Context) {
	var event models.CellEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	handled, err := h.edits.Apply(c.Request.Context(), event)
	if err != nil {
		writeError(c, h.logger, "Cell edit", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"handled": handled})
}

// DownloadWorkbook godoc
// @Summary Download the workbook
// @Tags workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /api/v1/workbook [get]
func (h *WorkbookHandler) DownloadWorkbook(c *gin.Context) {
	data, err := h.exporter.Export()
	if err != nil {
		writeError(c, h.logger, "Export workbook", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="tracking_links.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
