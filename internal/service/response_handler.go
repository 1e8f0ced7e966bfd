package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// ResponseHandler разбирает результат вызова API и записывает его в колонки строки
type ResponseHandler struct {
	store   repository.SheetStore
	history repository.HistoryRepository
	clock   Clock
	logger  *zap.Logger
}

func NewResponseHandler(store repository.SheetStore, history repository.HistoryRepository, clock Clock, logger *zap.Logger) *ResponseHandler {
	return &ResponseHandler{
		store:   store,
		history: history,
		clock:   clock,
		logger:  logger,
	}
}

// Classify превращает ответ или ошибку транспорта в результат строки
func (h *ResponseHandler) Classify(resp *linksapi.Response, callErr error) models.LinkResult {
	if callErr != nil {
		terr := newTransportError(callErr)
		return models.LinkResult{
			Kind:         models.OutcomeTransportError,
			StatusCode:   terr.Code,
			Result:       models.ResultError,
			ResponseData: terr.Error(),
		}
	}

	body := string(resp.Body)
	if !resp.Success() {
		return models.LinkResult{
			Kind:         models.OutcomeAPIError,
			StatusCode:   resp.StatusCode,
			Result:       models.ResultError,
			ResponseData: body,
		}
	}

	var decoded models.LinkResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		// успешный статус, но тело не разобрать
		return models.LinkResult{
			Kind:         models.OutcomeAPIError,
			StatusCode:   resp.StatusCode,
			Result:       models.ResultError,
			ResponseData: body,
		}
	}

	return models.LinkResult{
		Kind:             models.OutcomeSuccess,
		StatusCode:       resp.StatusCode,
		Result:           models.ResultSuccess,
		TrackingLinkName: decoded.TrackingLinkName,
		ShortLink:        decoded.ShortLink,
		LongLink:         decoded.ClickTrackingLink,
		ResponseData:     body,
	}
}

// Handle записывает результат в строку и, для успеха, добавляет запись в историю.
// Ошибка записи в книгу возвращается; ошибка истории только логируется.
func (h *ResponseHandler) Handle(ctx context.Context, runID string, row models.Row, layout models.HeaderLayout, resp *linksapi.Response, callErr error) (models.LinkResult, error) {
	result := h.Classify(resp, callErr)

	if err := h.writeResult(row.Index, layout, result); err != nil {
		return result, err
	}

	if result.Kind != models.OutcomeSuccess {
		h.logger.Warn("Link creation failed",
			zap.Int("row", row.Index),
			zap.String("outcome", string(result.Kind)),
			zap.Int("status", result.StatusCode),
		)
		return result, nil
	}

	entry := &models.HistoryEntry{
		RunID:            runID,
		CreatedAt:        h.clock.Now(),
		TrackingLinkName: result.TrackingLinkName,
		ShortLink:        result.ShortLink,
		LongLink:         result.LongLink,
		ResponseData:     result.ResponseData,
	}
	if err := h.history.Append(ctx, entry); err != nil {
		h.logger.Error("Failed to append history", zap.Int("row", row.Index), zap.Error(err))
	}

	h.logger.Info("Link created",
		zap.Int("row", row.Index),
		zap.String("tracking_link_name", result.TrackingLinkName),
		zap.String("short_link", result.ShortLink),
	)
	return result, nil
}

// WriteValidation записывает сообщения проверки в колонку "Result"
func (h *ResponseHandler) WriteValidation(row models.Row, layout models.HeaderLayout, issues []string) error {
	verr := &ValidationError{Row: row.Index, Issues: issues}
	return h.setColumn(row.Index, layout, HeaderResult, verr.Error())
}

type columnValue struct {
	header string
	value  any
}

func (h *ResponseHandler) writeResult(rowIndex int, layout models.HeaderLayout, result models.LinkResult) error {
	var code any = result.StatusCode
	if result.StatusCode == 0 {
		code = ""
	}

	values := []columnValue{
		{HeaderResponseCode, code},
		{HeaderResult, result.Result},
	}
	if result.Kind == models.OutcomeSuccess {
		values = append(values,
			columnValue{HeaderOutputLinkName, result.TrackingLinkName},
			columnValue{HeaderShortLink, result.ShortLink},
			columnValue{HeaderLongLink, result.LongLink},
		)
	}
	values = append(values, columnValue{HeaderResponseData, result.ResponseData})

	for _, v := range values {
		if err := h.setColumn(rowIndex, layout, v.header, v.value); err != nil {
			return err
		}
	}
	return nil
}

// setColumn пишет значение в колонку header; отсутствующая колонка пропускается
func (h *ResponseHandler) setColumn(rowIndex int, layout models.HeaderLayout, header string, value any) error {
	idx := layout.Index(header)
	if idx == -1 {
		return nil
	}
	cell := repository.CellName(idx+1, rowIndex)
	if err := h.store.SetCell(repository.SheetCreateLinks, cell, value); err != nil {
		return fmt.Errorf("failed to write %s for row %d: %w", header, rowIndex, err)
	}
	return nil
}

// clearOutput очищает колонки результата строки
func (h *ResponseHandler) clearOutput(rowIndex int, layout models.HeaderLayout) error {
	for _, header := range outputHeaders {
		idx := layout.Index(header)
		if idx == -1 {
			continue
		}
		cell := repository.CellName(idx+1, rowIndex)
		if err := h.store.ClearRange(repository.SheetCreateLinks, cell); err != nil {
			return fmt.Errorf("failed to clear row %d: %w", rowIndex, err)
		}
	}
	return nil
}
