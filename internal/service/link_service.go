package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/config"
	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/metrics"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// Режимы запуска
const (
	RunModeCreate    = "create"
	RunModeReprocess = "reprocess"
)

// LinkService создание трекинговых ссылок по строкам "Create Links"
type LinkService interface {
	// CreateLinks очищает результаты, проверяет все строки и отправляет валидные
	CreateLinks(ctx context.Context) (*models.RunSummary, error)
	// ReprocessInvalid повторно отправляет строки без статуса 200/201
	ReprocessInvalid(ctx context.Context) (*models.RunSummary, error)
}

type linkService struct {
	store     repository.SheetStore
	client    linksapi.Client
	validator *RowValidator
	builder   *RequestBuilder
	scheduler *BatchScheduler
	handler   *ResponseHandler
	cfg       config.PipelineConfig
	lock      *RunLock
	logger    *zap.Logger
}

func NewLinkService(
	store repository.SheetStore,
	client linksapi.Client,
	history repository.HistoryRepository,
	clock Clock,
	cfg config.PipelineConfig,
	lock *RunLock,
	logger *zap.Logger,
) LinkService {
	return &linkService{
		store:     store,
		client:    client,
		validator: NewRowValidator(),
		builder:   NewRequestBuilder(),
		scheduler: NewBatchScheduler(clock, cfg.BatchDelay, logger),
		handler:   NewResponseHandler(store, history, clock, logger),
		cfg:       cfg,
		lock:      lock,
		logger:    logger,
	}
}

// runState всё, что нужно одному запуску
type runState struct {
	summary  *models.RunSummary
	settings models.Settings
	layout   models.HeaderLayout
}

func (s *linkService) CreateLinks(ctx context.Context) (*models.RunSummary, error) {
	return s.run(ctx, RunModeCreate, s.collectForCreate)
}

func (s *linkService) ReprocessInvalid(ctx context.Context) (*models.RunSummary, error) {
	return s.run(ctx, RunModeReprocess, s.collectForReprocess)
}

// run общая часть запусков: настройки, отбор строк, пачки, сохранение книги
func (s *linkService) run(ctx context.Context, mode string, collect func(*runState) ([]models.Row, error)) (*models.RunSummary, error) {
	release, err := s.lock.TryAcquire()
	if err != nil {
		return nil, err
	}
	defer release()

	metrics.RecordRun(mode)
	state := &runState{summary: &models.RunSummary{RunID: uuid.NewString()}}
	logger := s.logger.With(zap.String("run_id", state.summary.RunID), zap.String("mode", mode))

	if state.settings, err = LoadSettings(s.store); err != nil {
		return nil, err
	}
	if state.layout, err = loadLayout(s.store); err != nil {
		return nil, err
	}
	if !state.layout.Has(HeaderResponseCode) || !state.layout.Has(HeaderResult) {
		return nil, ErrHeaderLayoutMissing
	}
	if state.settings.APIKey == "" {
		logger.Warn("API key is empty, requests will be rejected by the API")
	}

	valid, err := collect(state)
	if err != nil {
		s.flush(logger)
		return nil, err
	}

	batchSize := s.batchSize(state.settings.BatchSize, logger)
	logger.Info("Run started",
		zap.Int("rows", state.summary.Rows),
		zap.Int("valid", len(valid)),
		zap.Int("batch_size", batchSize),
	)

	submit := func(ctx context.Context, row models.Row) error {
		return s.submitRow(ctx, state, row)
	}
	afterBatch := func(int) { s.flush(logger) }

	stats, err := s.scheduler.Run(ctx, valid, batchSize, submit, afterBatch)
	state.summary.Batches = stats.Batches
	state.summary.Pauses = stats.Pauses
	s.flush(logger)
	if err != nil {
		logger.Error("Run aborted", zap.Error(err))
		return state.summary, fmt.Errorf("run %s aborted: %w", state.summary.RunID, err)
	}

	logger.Info("Run finished",
		zap.Int("succeeded", state.summary.Succeeded),
		zap.Int("failed", state.summary.Failed),
		zap.Int("validation_errors", state.summary.ValidationErrors),
		zap.Int("batches", state.summary.Batches),
	)
	return state.summary, nil
}

// collectForCreate очищает результаты всех строк и возвращает прошедшие проверку
func (s *linkService) collectForCreate(state *runState) ([]models.Row, error) {
	rows, err := loadDataRows(s.store)
	if err != nil {
		return nil, err
	}

	valid := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if err := s.handler.clearOutput(row.Index, state.layout); err != nil {
			return nil, err
		}
		if row.IsBlank() {
			continue
		}
		state.summary.Rows++

		ok, err := s.validate(state, row)
		if err != nil {
			return nil, err
		}
		if ok {
			valid = append(valid, row)
		}
	}
	return valid, nil
}

// collectForReprocess отбирает строки без 200/201, очищает их результаты и проверяет заново
func (s *linkService) collectForReprocess(state *runState) ([]models.Row, error) {
	rows, err := loadDataRows(s.store)
	if err != nil {
		return nil, err
	}

	codeIdx := state.layout.Index(HeaderResponseCode)
	valid := make([]models.Row, 0)
	for _, row := range rows {
		if row.IsBlank() || isSuccessCode(row.Value(codeIdx)) {
			continue
		}
		state.summary.Rows++

		if err := s.handler.clearOutput(row.Index, state.layout); err != nil {
			return nil, err
		}
		fresh, err := loadRow(s.store, row.Index)
		if err != nil {
			return nil, err
		}

		ok, err := s.validate(state, fresh)
		if err != nil {
			return nil, err
		}
		if ok {
			valid = append(valid, fresh)
		}
	}
	return valid, nil
}

func (s *linkService) validate(state *runState, row models.Row) (bool, error) {
	issues := s.validator.Validate(row, state.settings, state.layout)
	if len(issues) == 0 {
		return true, nil
	}

	state.summary.ValidationErrors++
	metrics.RecordOutcome(string(models.OutcomeValidationError))
	s.logger.Info("Row failed validation", zap.Int("row", row.Index), zap.Strings("issues", issues))
	if err := s.handler.WriteValidation(row, state.layout, issues); err != nil {
		return false, err
	}
	return false, nil
}

func (s *linkService) submitRow(ctx context.Context, state *runState, row models.Row) error {
	req := s.builder.Build(row, state.settings, state.layout)
	resp, callErr := s.client.CreateLink(ctx, state.settings.APIKey, req)

	state.summary.Submitted++
	result, err := s.handler.Handle(ctx, state.summary.RunID, row, state.layout, resp, callErr)
	if err != nil {
		return err
	}

	metrics.RecordOutcome(string(result.Kind))
	if result.Kind == models.OutcomeSuccess {
		state.summary.Succeeded++
	} else {
		state.summary.Failed++
	}
	return nil
}

// batchSize C27; нечисловое или < 1 значение заменяется значением по умолчанию
func (s *linkService) batchSize(raw string, logger *zap.Logger) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err == nil && n >= 1 {
		return n
	}
	if f, ferr := strconv.ParseFloat(strings.TrimSpace(raw), 64); ferr == nil && f >= 1 {
		return int(f)
	}

	logger.Warn("Invalid batch size, using default",
		zap.String("value", raw),
		zap.Int("default", s.cfg.DefaultBatchSize),
	)
	return s.cfg.DefaultBatchSize
}

func (s *linkService) flush(logger *zap.Logger) {
	if err := s.store.Flush(); err != nil {
		logger.Error("Failed to save workbook", zap.Error(err))
	}
}

func isSuccessCode(v string) bool {
	v = strings.TrimSpace(v)
	return v == "200" || v == "201"
}
