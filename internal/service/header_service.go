package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// Оформление заголовков
var (
	dynamicHeaderStyle = &repository.CellStyle{Fill: "CFE2F3", FontColor: "000000", Bold: true, Center: true, Wrap: true}
	staticHeaderStyle  = &repository.CellStyle{Fill: "D9D2E9", FontColor: "000000", Bold: true, Center: true, Wrap: true}
	catalogHeaderStyle = &repository.CellStyle{Fill: "1434A4", FontColor: "FFFFFF", Bold: true}
)

const firstDynamicColumn = 3 // C

// HeaderService раскладка колонок листа "Create Links"
type HeaderService interface {
	// Setup пересобирает строку заголовков по отмеченным флажкам
	Setup() ([]string, error)
	// Bootstrap заполняет подписи пустой книги
	Bootstrap() error
}

type headerService struct {
	store  repository.SheetStore
	logger *zap.Logger
}

func NewHeaderService(store repository.SheetStore, logger *zap.Logger) HeaderService {
	return &headerService{store: store, logger: logger}
}

func (s *headerService) Setup() ([]string, error) {
	sheet := repository.SheetCreateLinks

	if err := s.store.SetRow(sheet, fmt.Sprintf("A%d", headerRow), []any{HeaderSourceName, HeaderTrackingLinkName}); err != nil {
		return nil, fmt.Errorf("failed to write key headers: %w", err)
	}

	lastCol, err := s.store.LastColumn(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to setup headers: %w", err)
	}
	lastRow, err := s.store.LastRow(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to setup headers: %w", err)
	}

	// старые заголовки и все данные начиная с колонки C
	if lastCol >= firstDynamicColumn {
		headerRange := fmt.Sprintf("%s:%s",
			repository.CellName(firstDynamicColumn, headerRow),
			repository.CellName(lastCol, headerRow),
		)
		if err := s.store.ClearRange(sheet, headerRange); err != nil {
			return nil, fmt.Errorf("failed to clear headers: %w", err)
		}
		if err := s.store.SetStyle(sheet, headerRange, nil); err != nil {
			return nil, fmt.Errorf("failed to reset header style: %w", err)
		}
		if lastRow >= firstDataRow {
			dataRange := fmt.Sprintf("%s:%s",
				repository.CellName(firstDynamicColumn, firstDataRow),
				repository.CellName(lastCol, lastRow),
			)
			if err := s.store.ClearRange(sheet, dataRange); err != nil {
				return nil, fmt.Errorf("failed to clear data columns: %w", err)
			}
		}
	}

	headers := make([]string, 0, len(dynamicHeaders)+len(outputHeaders))
	for _, cb := range dynamicHeaders {
		v, err := s.store.GetCell(sheet, cb.Cell)
		if err != nil {
			return nil, fmt.Errorf("failed to read checkbox %s: %w", cb.Cell, err)
		}
		if isChecked(v) {
			headers = append(headers, cb.Header)
		}
	}
	dynamicCount := len(headers)
	headers = append(headers, outputHeaders...)

	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := s.store.SetRow(sheet, repository.CellName(firstDynamicColumn, headerRow), values); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	if dynamicCount > 0 {
		if err := s.styleColumns(firstDynamicColumn, firstDynamicColumn+dynamicCount-1, dynamicHeaderStyle); err != nil {
			return nil, err
		}
	}
	staticFrom := firstDynamicColumn + dynamicCount
	if err := s.styleColumns(staticFrom, staticFrom+len(outputHeaders)-1, staticHeaderStyle); err != nil {
		return nil, err
	}

	s.logger.Info("Headers rebuilt", zap.Int("dynamic", dynamicCount), zap.Strings("headers", headers))
	return append([]string{HeaderSourceName, HeaderTrackingLinkName}, headers...), nil
}

func (s *headerService) styleColumns(from, to int, style *repository.CellStyle) error {
	rangeRef := fmt.Sprintf("%s:%s", repository.CellName(from, headerRow), repository.CellName(to, headerRow))
	if err := s.store.SetStyle(repository.SheetCreateLinks, rangeRef, style); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}
	return nil
}

// isChecked флажок: TRUE, 1, любое непустое значение кроме FALSE/0
func isChecked(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "false") && v != "0"
}

// подписи "Account Details": ячейка -> текст
var accountDetailsLabels = []struct {
	cell  string
	label string
}{
	{"D1", "API Key"},
	{"D5", "Link Subdomain"},
	{"F4", "DNS Zone"},
	{"D7", "App"},
	{"A10", "Platform"},
	{"B10", "Bundle ID"},
	{"C10", "App ID"},
	{"D10", "App Site ID"},
	{"E10", "Store URL"},
	{"A14", "Deep Link Fallback"},
	{"A15", "Android"},
	{"A16", "iOS"},
	{"A19", "Fallback URL"},
	{"A22", "Click Deterministic Window"},
	{"A23", "Click Probabilistic Window"},
	{"A24", "View Deterministic Window"},
	{"A25", "View Probabilistic Window"},
	{"A26", "Click Deterministic ReEngagement Window"},
	{"A27", "Batch Size"},
	{"A28", "Enable Reengagement"},
	{"A29", "SM Type"},
}

// Bootstrap ничего не делает, если "Account Details" уже заполнен
func (s *headerService) Bootstrap() error {
	last, err := s.store.LastRow(repository.SheetAccountDetails)
	if err != nil {
		return fmt.Errorf("failed to bootstrap workbook: %w", err)
	}
	if last > 0 {
		return nil
	}

	for _, l := range accountDetailsLabels {
		if err := s.store.SetCell(repository.SheetAccountDetails, l.cell, l.label); err != nil {
			return fmt.Errorf("failed to bootstrap workbook: %w", err)
		}
	}

	// флажок в ячейке, подпись справа от него
	for _, cb := range dynamicHeaders {
		if err := s.store.SetCell(repository.SheetCreateLinks, cb.Cell, false); err != nil {
			return fmt.Errorf("failed to bootstrap workbook: %w", err)
		}
		col, row := checkboxLabelCell(cb.Cell)
		if err := s.store.SetCell(repository.SheetCreateLinks, repository.CellName(col, row), cb.Header); err != nil {
			return fmt.Errorf("failed to bootstrap workbook: %w", err)
		}
	}
	if err := s.store.SetCell(repository.SheetCreateLinks, "G5", "QR Size"); err != nil {
		return fmt.Errorf("failed to bootstrap workbook: %w", err)
	}
	if err := s.store.SetCell(repository.SheetCreateLinks, cellQRSize, defaultQRSize); err != nil {
		return fmt.Errorf("failed to bootstrap workbook: %w", err)
	}

	headers := make([]any, len(repository.HistoryHeaders))
	for i, h := range repository.HistoryHeaders {
		headers[i] = h
	}
	if err := s.store.SetRow(repository.SheetLinksHistory, "A1", headers); err != nil {
		return fmt.Errorf("failed to bootstrap workbook: %w", err)
	}

	if _, err := s.Setup(); err != nil {
		return err
	}

	s.logger.Info("Workbook bootstrapped")
	return s.store.Flush()
}

// checkboxLabelCell ячейка справа от флажка
func checkboxLabelCell(cell string) (col, row int) {
	col = int(cell[0]-'A') + 1
	row = int(cell[1] - '0')
	return col + 1, row
}
