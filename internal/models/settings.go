package models

import "strings"

// Platform платформа приложения
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// PlatformSettings строка 11 (android) или 12 (ios) листа "Account Details"
type PlatformSettings struct {
	Platform         string
	BundleID         string
	AppID            string
	AppSiteID        string
	StoreURL         string
	DeepLinkFallback string // B15 / B16
}

// AttributionWindows сырые значения окон атрибуции (C22..C26)
type AttributionWindows struct {
	ClickDeterministic             string
	ClickProbabilistic             string
	ViewDeterministic              string
	ViewProbabilistic              string
	ClickDeterministicReengagement string
}

// Settings конфигурация запуска, прочитанная из фиксированных ячеек "Account Details".
// Во время запуска не изменяется.
type Settings struct {
	APIKey       string
	Subdomain    string
	DNSZone      string
	App          string
	Android      PlatformSettings
	IOS          PlatformSettings
	FallbackURL  string
	Windows      AttributionWindows
	BatchSize    string
	Reengagement string
	SmType       string
}

// ForPlatform возвращает настройки платформы
func (s Settings) ForPlatform(p Platform) PlatformSettings {
	if p == PlatformIOS {
		return s.IOS
	}
	return s.Android
}

// ResolvedAppID app id первой настроенной платформы (android, затем ios)
func (s Settings) ResolvedAppID() string {
	if id := strings.TrimSpace(s.Android.AppID); id != "" {
		return id
	}
	return strings.TrimSpace(s.IOS.AppID)
}

// ReengagementEnabled true только для значения "true" без учёта регистра
func (s Settings) ReengagementEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(s.Reengagement), "true")
}

// SmTypeEnabled флаг _smtype включён по умолчанию: пустое значение или "true"
func (s Settings) SmTypeEnabled() bool {
	v := strings.TrimSpace(s.SmType)
	return v == "" || strings.EqualFold(v, "true")
}
