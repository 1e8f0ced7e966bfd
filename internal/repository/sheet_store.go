package repository

import (
	"errors"

	"github.com/xuri/excelize/v2"
)

// Листы рабочей книги
const (
	SheetAccountDetails = "Account Details"
	SheetAccountData    = "Account Data"
	SheetCreateLinks    = "Create Links"
	SheetLinksHistory   = "Links History"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrInvalidCell   = errors.New("invalid cell reference")

	// ErrDropListTooLong список не помещается в правило проверки (255 символов)
	ErrDropListTooLong = errors.New("drop list is too long")
)

// CellStyle оформление диапазона ячеек
type CellStyle struct {
	Fill      string // hex без '#'
	FontColor string
	Bold      bool
	Center    bool
	Wrap      bool
}

// SheetStore табличное хранилище: значения по адресу (лист, A1-ячейка или диапазон).
// Все значения читаются строками.
type SheetStore interface {
	GetCell(sheet, cell string) (string, error)
	SetCell(sheet, cell string, value any) error
	// SetRow записывает values горизонтально начиная с ячейки cell
	SetRow(sheet, cell string, values []any) error
	// ClearRange очищает значения диапазона вида "A11:E12" или одной ячейки
	ClearRange(sheet, rangeRef string) error
	ClearSheet(sheet string) error
	// Rows возвращает все строки листа; хвостовые пустые строки и ячейки отброшены
	Rows(sheet string) ([][]string, error)
	// Row возвращает строку с номером row (1-based)
	Row(sheet string, row int) ([]string, error)
	LastRow(sheet string) (int, error)
	LastColumn(sheet string) (int, error)
	SetStyle(sheet, rangeRef string, style *CellStyle) error
	SetDropList(sheet, cell string, values []string) error
	// SetDropListRange список значений берётся из диапазона, например "'Account Data'!$A$2:$A$20"
	SetDropListRange(sheet, cell, sourceRange string) error
	ClearDropList(sheet, cell string) error
	// Flush сохраняет книгу на диск
	Flush() error
}

// CellName адрес ячейки по 1-based колонке и строке: (3, 8) -> "C8"
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}

// ColumnName буквенное имя 1-based колонки: 3 -> "C"
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}
