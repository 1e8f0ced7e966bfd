package models

import (
	"time"
)

// RedirectionSpec редирект для одной платформы
type RedirectionSpec struct {
	AppSiteID                      string `json:"app_site_id"`
	DestinationURL                 string `json:"destination_url,omitempty"`
	DestinationDeeplinkURL         string `json:"destination_deeplink_url,omitempty"`
	DestinationDeferredDeeplinkURL string `json:"destination_deferred_deeplink_url,omitempty"`
}

// LinkRequest тело POST /links
type LinkRequest struct {
	AppID                    string            `json:"app_id"`
	PartnerID                string            `json:"partner_id"`
	LinkType                 string            `json:"link_type"`
	SourceName               string            `json:"source_name"`
	EnableReengagement       bool              `json:"enable_reengagement"`
	TrackingLinkName         string            `json:"tracking_link_name"`
	LinkSubdomain            string            `json:"link_subdomain"`
	LinkDNSZone              string            `json:"link_dns_zone"`
	DestinationFallbackURL   string            `json:"destination_fallback_url"`
	ClickDeterministicWindow float64           `json:"click_deterministic_window"`
	ClickProbabilisticWindow float64           `json:"click_probabilistic_window"`
	ViewDeterministicWindow  float64           `json:"view_deterministic_window"`
	ViewProbabilisticWindow  float64           `json:"view_probabilistic_window"`
	ClickReengagementWindow  float64           `json:"click_reengagement_window"`
	EnableCTV                bool              `json:"enable_ctv"`
	LinkParameter            map[string]string `json:"link_parameter"`
	AndroidRedirection       *RedirectionSpec  `json:"android_redirection,omitempty"`
	IOSRedirection           *RedirectionSpec  `json:"ios_redirection,omitempty"`
}

// LinkResponse успешный ответ POST /links
type LinkResponse struct {
	ShortLink         string `json:"short_link"`
	ClickTrackingLink string `json:"click_tracking_link"`
	TrackingLinkName  string `json:"tracking_link_name"`
}

// OutcomeKind тип результата обработки строки
type OutcomeKind string

const (
	OutcomeSuccess         OutcomeKind = "success"
	OutcomeValidationError OutcomeKind = "validation_error"
	OutcomeAPIError        OutcomeKind = "api_error"
	OutcomeTransportError  OutcomeKind = "transport_error"
)

// Значения колонки "Result"
const (
	ResultSuccess = "success"
	ResultError   = "Error"
)

// LinkResult результат отправки одной строки
type LinkResult struct {
	Kind             OutcomeKind
	StatusCode       int // 0, если код неизвестен
	Result           string
	TrackingLinkName string
	ShortLink        string
	LongLink         string
	ResponseData     string
}

// HistoryEntry запись журнала "Links History" (только добавление)
type HistoryEntry struct {
	ID               int64     `json:"id,omitempty"`
	RunID            string    `json:"run_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	TrackingLinkName string    `json:"tracking_link_name"`
	ShortLink        string    `json:"short_link"`
	LongLink         string    `json:"long_link"`
	ResponseData     string    `json:"response_data"`
}

// RunSummary итоги запуска создания/перезапуска
type RunSummary struct {
	RunID            string `json:"run_id"`
	Rows             int    `json:"rows"`
	ValidationErrors int    `json:"validation_errors"`
	Submitted        int    `json:"submitted"`
	Succeeded        int    `json:"succeeded"`
	Failed           int    `json:"failed"`
	Batches          int    `json:"batches"`
	Pauses           int    `json:"pauses"`
}
