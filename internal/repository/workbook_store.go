package repository

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

var workbookSheets = []string{
	SheetAccountDetails,
	SheetAccountData,
	SheetCreateLinks,
	SheetLinksHistory,
}

// WorkbookStore реализация SheetStore поверх .xlsx книги (excelize).
// Пустой path - книга только в памяти (тесты).
type WorkbookStore struct {
	mu     sync.Mutex
	file   *excelize.File
	path   string
	styles map[CellStyle]int
}

// NewWorkbookStore открывает книгу по пути path или создаёт новую со всеми листами
func NewWorkbookStore(path string) (*WorkbookStore, error) {
	var (
		f       *excelize.File
		err     error
		created bool
	)

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			f, err = excelize.OpenFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open workbook: %w", err)
			}
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat workbook: %w", statErr)
		}
	}
	if f == nil {
		f = excelize.NewFile()
		created = true
	}

	s := &WorkbookStore{
		file:   f,
		path:   path,
		styles: make(map[CellStyle]int),
	}
	if err := s.ensureSheets(created); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *WorkbookStore) ensureSheets(created bool) error {
	defaultSheet := s.file.GetSheetName(0)

	for _, name := range workbookSheets {
		idx, err := s.file.GetSheetIndex(name)
		if err != nil {
			return fmt.Errorf("failed to look up sheet %q: %w", name, err)
		}
		if idx != -1 {
			continue
		}
		if _, err := s.file.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}

	// Удаляем лист по умолчанию новой книги
	if created && defaultSheet == "Sheet1" {
		if err := s.file.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}

	return nil
}

func (s *WorkbookStore) checkSheet(sheet string) error {
	idx, err := s.file.GetSheetIndex(sheet)
	if err != nil || idx == -1 {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	return nil
}

func (s *WorkbookStore) GetCell(sheet, cell string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return "", err
	}
	v, err := s.file.GetCellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("failed to read %s!%s: %w", sheet, cell, err)
	}
	return v, nil
}

func (s *WorkbookStore) SetCell(sheet, cell string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	if err := s.file.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func (s *WorkbookStore) SetRow(sheet, cell string, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	if err := s.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func (s *WorkbookStore) ClearRange(sheet, rangeRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	c1, r1, c2, r2, err := parseRange(rangeRef)
	if err != nil {
		return err
	}
	return s.clearArea(sheet, c1, r1, c2, r2)
}

// clearArea очищает только существующие непустые ячейки, чтобы не раздувать лист
func (s *WorkbookStore) clearArea(sheet string, c1, r1, c2, r2 int) error {
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	for r := r1; r <= r2 && r <= len(rows); r++ {
		row := rows[r-1]
		for c := c1; c <= c2 && c <= len(row); c++ {
			if row[c-1] == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := s.file.SetCellValue(sheet, name, nil); err != nil {
				return fmt.Errorf("failed to clear %s!%s: %w", sheet, name, err)
			}
		}
	}
	return nil
}

func (s *WorkbookStore) ClearSheet(sheet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	lastCol := 0
	for _, row := range rows {
		lastCol = max(lastCol, len(row))
	}
	if len(rows) == 0 || lastCol == 0 {
		return nil
	}
	if err := s.clearArea(sheet, 1, 1, lastCol, len(rows)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(lastCol, len(rows))
	return s.file.SetCellStyle(sheet, "A1", last, 0)
}

func (s *WorkbookStore) Rows(sheet string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return nil, err
	}
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (s *WorkbookStore) Row(sheet string, row int) ([]string, error) {
	rows, err := s.Rows(sheet)
	if err != nil {
		return nil, err
	}
	if row < 1 || row > len(rows) {
		return []string{}, nil
	}
	return rows[row-1], nil
}

func (s *WorkbookStore) LastRow(sheet string) (int, error) {
	rows, err := s.Rows(sheet)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *WorkbookStore) LastColumn(sheet string) (int, error) {
	rows, err := s.Rows(sheet)
	if err != nil {
		return 0, err
	}
	last := 0
	for _, row := range rows {
		last = max(last, len(row))
	}
	return last, nil
}

// SetStyle применяет стиль к диапазону; nil сбрасывает оформление
func (s *WorkbookStore) SetStyle(sheet, rangeRef string, style *CellStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	c1, r1, c2, r2, err := parseRange(rangeRef)
	if err != nil {
		return err
	}
	styleID := 0
	if style != nil {
		if styleID, err = s.styleID(*style); err != nil {
			return err
		}
	}
	from, _ := excelize.CoordinatesToCellName(c1, r1)
	to, _ := excelize.CoordinatesToCellName(c2, r2)
	return s.file.SetCellStyle(sheet, from, to, styleID)
}

func (s *WorkbookStore) styleID(style CellStyle) (int, error) {
	if id, ok := s.styles[style]; ok {
		return id, nil
	}

	xs := &excelize.Style{
		Font: &excelize.Font{Bold: style.Bold, Color: style.FontColor},
	}
	if style.Fill != "" {
		xs.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{style.Fill}}
	}
	if style.Center || style.Wrap {
		xs.Alignment = &excelize.Alignment{WrapText: style.Wrap}
		if style.Center {
			xs.Alignment.Horizontal = "center"
			xs.Alignment.Vertical = "center"
		}
	}

	id, err := s.file.NewStyle(xs)
	if err != nil {
		return 0, fmt.Errorf("failed to create style: %w", err)
	}
	s.styles[style] = id
	return id, nil
}

func (s *WorkbookStore) SetDropList(sheet, cell string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	// старое правило заменяется новым
	_ = s.file.DeleteDataValidation(sheet, cell)

	dv := excelize.NewDataValidation(true)
	dv.Sqref = cell
	if err := dv.SetDropList(values); err != nil {
		if errors.Is(err, excelize.ErrDataValidationFormulaLength) {
			return fmt.Errorf("%w: %s!%s", ErrDropListTooLong, sheet, cell)
		}
		return fmt.Errorf("failed to build drop list for %s!%s: %w", sheet, cell, err)
	}
	if err := s.file.AddDataValidation(sheet, dv); err != nil {
		return fmt.Errorf("failed to add drop list to %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func (s *WorkbookStore) SetDropListRange(sheet, cell, sourceRange string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	_ = s.file.DeleteDataValidation(sheet, cell)

	dv := excelize.NewDataValidation(true)
	dv.Sqref = cell
	dv.SetSqrefDropList(sourceRange)
	if err := s.file.AddDataValidation(sheet, dv); err != nil {
		return fmt.Errorf("failed to add drop list to %s!%s: %w", sheet, cell, err)
	}
	return nil
}

// DropList возвращает формулу списка на ячейке или пустую строку
func (s *WorkbookStore) DropList(sheet, cell string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dvs, err := s.file.GetDataValidations(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to read drop lists of %s: %w", sheet, err)
	}
	for _, dv := range dvs {
		if dv.Sqref == cell {
			return dv.Formula1, nil
		}
	}
	return "", nil
}

func (s *WorkbookStore) ClearDropList(sheet, cell string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSheet(sheet); err != nil {
		return err
	}
	if err := s.file.DeleteDataValidation(sheet, cell); err != nil {
		return fmt.Errorf("failed to clear drop list on %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func (s *WorkbookStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Export возвращает содержимое книги в формате xlsx
func (s *WorkbookStore) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, err := s.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to export workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *WorkbookStore) Close() error {
	return s.file.Close()
}

// parseRange разбирает "A1" или "A1:C3" в координаты (1-based)
func parseRange(rangeRef string) (c1, r1, c2, r2 int, err error) {
	parts := strings.Split(strings.TrimSpace(rangeRef), ":")
	if len(parts) > 2 || parts[0] == "" {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidCell, rangeRef)
	}

	c1, r1, err = excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidCell, rangeRef)
	}
	c2, r2 = c1, r1
	if len(parts) == 2 {
		c2, r2, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidCell, rangeRef)
		}
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	return c1, r1, c2, r2, nil
}
