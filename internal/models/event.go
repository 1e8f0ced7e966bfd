package models

// CellEvent изменение ячейки пользователем
type CellEvent struct {
	Sheet string `json:"sheet" binding:"required"`
	Cell  string `json:"cell" binding:"required"`
	Value string `json:"value"`
}
