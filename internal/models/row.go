package models

import "strings"

// Row одна строка листа "Create Links": желаемая трекинговая ссылка
type Row struct {
	Index  int      // номер строки на листе (1-based)
	Values []string // значения ячеек начиная с колонки A
}

// Value возвращает значение колонки по 0-based индексу (пустая строка, если колонки нет)
func (r Row) Value(col int) string {
	if col < 0 || col >= len(r.Values) {
		return ""
	}
	return r.Values[col]
}

// SourceName колонка A
func (r Row) SourceName() string {
	return strings.TrimSpace(r.Value(0))
}

// TrackingLinkName колонка B
func (r Row) TrackingLinkName() string {
	return strings.TrimSpace(r.Value(1))
}

// IsBlank true, если во всей строке нет ни одного непустого значения
func (r Row) IsBlank() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// HeaderLayout значения строки заголовков (row 7) листа "Create Links"
type HeaderLayout []string

// Index возвращает 0-based индекс колонки с заголовком name или -1
func (l HeaderLayout) Index(name string) int {
	for i, h := range l {
		if h == name {
			return i
		}
	}
	return -1
}

// Has проверяет наличие колонки
func (l HeaderLayout) Has(name string) bool {
	return l.Index(name) != -1
}

// Lookup возвращает значение колонки name в строке row.
// ok == false, если колонки нет в текущей раскладке.
func (l HeaderLayout) Lookup(row Row, name string) (string, bool) {
	idx := l.Index(name)
	if idx == -1 {
		return "", false
	}
	return row.Value(idx), true
}
