package models

// QRSummary итоги генерации или скачивания QR кодов
type QRSummary struct {
	Rows   int      `json:"rows"`
	Saved  int      `json:"saved"`
	Failed int      `json:"failed"`
	Files  []string `json:"files,omitempty"`
}
