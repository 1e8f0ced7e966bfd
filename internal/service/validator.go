package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SergeiKhy/tracking-links/internal/models"
)

// Сообщения проверок строки (пишутся в колонку "Result")
const (
	msgAppIDMissing     = "App ID is missing."
	msgSourceName       = `Source Name is incorrect (must be one of "Social", "Email", "SMS", "Crosspromo").`
	msgTrackingLinkName = "Tracking Link Name is missing."
	msgSubdomainMissing = "Link Subdomain is missing."
	msgFallbackURL      = "Fallback URL is missing or incorrect should start with http or https."
	msgWindowOutOfRange = "%s is missing, not a number, or out of the valid range (0-%d)."
	fallbackUnavailable = "data not available"
)

var allowedSources = map[string]struct{}{
	"social":     {},
	"email":      {},
	"sms":        {},
	"crosspromo": {},
}

type windowRule struct {
	name  string
	max   float64
	value func(models.AttributionWindows) string
}

var windowRules = []windowRule{
	{"Click Deterministic Window", 30, func(w models.AttributionWindows) string { return w.ClickDeterministic }},
	{"Click Probabilistic Window", 24, func(w models.AttributionWindows) string { return w.ClickProbabilistic }},
	{"View Deterministic Window", 24, func(w models.AttributionWindows) string { return w.ViewDeterministic }},
	{"View Probabilistic Window", 24, func(w models.AttributionWindows) string { return w.ViewProbabilistic }},
	{"Click Deterministic ReEngagement Window", 30, func(w models.AttributionWindows) string { return w.ClickDeterministicReengagement }},
}

// RowValidator проверяет строку перед отправкой.
// Все проверки выполняются, результат - список сообщений в фиксированном порядке.
type RowValidator struct{}

func NewRowValidator() *RowValidator {
	return &RowValidator{}
}

// Validate возвращает nil для валидной строки
func (v *RowValidator) Validate(row models.Row, settings models.Settings, layout models.HeaderLayout) []string {
	var issues []string

	if settings.ResolvedAppID() == "" {
		issues = append(issues, msgAppIDMissing)
	}

	if _, ok := allowedSources[strings.ToLower(row.SourceName())]; !ok {
		issues = append(issues, msgSourceName)
	}

	if row.TrackingLinkName() == "" {
		issues = append(issues, msgTrackingLinkName)
	}

	if strings.TrimSpace(settings.Subdomain) == "" {
		issues = append(issues, msgSubdomainMissing)
	}

	fallback := resolveFallbackURL(row, settings, layout)
	if !strings.HasPrefix(fallback, "http://") && !strings.HasPrefix(fallback, "https://") {
		issues = append(issues, msgFallbackURL)
	}

	for _, rule := range windowRules {
		if _, ok := parseWindow(rule.value(settings.Windows), rule.max); !ok {
			issues = append(issues, windowMessage(rule))
		}
	}

	return issues
}

func windowMessage(rule windowRule) string {
	return fmt.Sprintf(msgWindowOutOfRange, rule.name, int(rule.max))
}

// parseWindow конечное число в диапазоне [0, upper]; NaN и Inf не числа
func parseWindow(raw string, upper float64) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > upper {
		return 0, false
	}
	return v, true
}

// resolveFallbackURL колонка "Fallback URL Web" строки, затем B19
func resolveFallbackURL(row models.Row, settings models.Settings, layout models.HeaderLayout) string {
	if v, ok := layout.Lookup(row, HeaderFallbackURLWeb); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(settings.FallbackURL); v != "" {
		return v
	}
	return fallbackUnavailable
}
