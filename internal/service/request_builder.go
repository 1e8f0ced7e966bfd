package service

import (
	"strings"

	"github.com/SergeiKhy/tracking-links/internal/models"
)

// Константы запроса, которые ожидает Links API
const (
	linkTypeCustom   = "custom"
	linkDNSZone      = "sng.link"
	appIDUnavailable = "data not available"
	smTypeKey        = "_smtype"
	smTypeValue      = "3"
)

// linkParameterHeaders колонка -> ключ link_parameter
var linkParameterHeaders = []struct {
	header string
	key    string
}{
	{HeaderCampaignName, "pcn"},
	{HeaderCampaignID, "pcid"},
	{HeaderSubCampaignName, "pscn"},
	{HeaderSubCampaignID, "pscid"},
	{HeaderPassthrough, "_p"},
}

// RequestBuilder собирает тело POST /links из строки, настроек и раскладки заголовков
type RequestBuilder struct{}

func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

func (b *RequestBuilder) Build(row models.Row, settings models.Settings, layout models.HeaderLayout) *models.LinkRequest {
	appID := settings.ResolvedAppID()
	if appID == "" {
		appID = appIDUnavailable
	}

	req := &models.LinkRequest{
		AppID:                  appID,
		PartnerID:              "",
		LinkType:               linkTypeCustom,
		SourceName:             row.SourceName(),
		EnableReengagement:     settings.ReengagementEnabled(),
		TrackingLinkName:       row.TrackingLinkName(),
		LinkSubdomain:          strings.TrimSpace(settings.Subdomain),
		LinkDNSZone:            linkDNSZone,
		DestinationFallbackURL: resolveFallbackURL(row, settings, layout),
		EnableCTV:              false,
		LinkParameter:          b.linkParameter(row, settings, layout),
		AndroidRedirection:     b.redirection(row, settings, models.PlatformAndroid, layout),
		IOSRedirection:         b.redirection(row, settings, models.PlatformIOS, layout),
	}

	w := settings.Windows
	req.ClickDeterministicWindow, _ = parseWindow(w.ClickDeterministic, 30)
	req.ClickProbabilisticWindow, _ = parseWindow(w.ClickProbabilistic, 24)
	req.ViewDeterministicWindow, _ = parseWindow(w.ViewDeterministic, 24)
	req.ViewProbabilisticWindow, _ = parseWindow(w.ViewProbabilistic, 24)
	req.ClickReengagementWindow, _ = parseWindow(w.ClickDeterministicReengagement, 30)

	return req
}

func (b *RequestBuilder) linkParameter(row models.Row, settings models.Settings, layout models.HeaderLayout) map[string]string {
	params := make(map[string]string)
	for _, p := range linkParameterHeaders {
		v, ok := layout.Lookup(row, p.header)
		if !ok {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			params[p.key] = v
		}
	}

	if settings.SmTypeEnabled() {
		params[smTypeKey] = smTypeValue
	}
	return params
}

// redirection nil, если у платформы нет app_site_id
func (b *RequestBuilder) redirection(row models.Row, settings models.Settings, platform models.Platform, layout models.HeaderLayout) *models.RedirectionSpec {
	ps := settings.ForPlatform(platform)
	siteID := strings.TrimSpace(ps.AppSiteID)
	if siteID == "" {
		return nil
	}

	deepHeader, deferredHeader := HeaderDeepLinkAndroid, HeaderDeferredAndroid
	if platform == models.PlatformIOS {
		deepHeader, deferredHeader = HeaderDeepLinkIOS, HeaderDeferredIOS
	}

	column := func(header string) string {
		v, _ := layout.Lookup(row, header)
		return strings.TrimSpace(v)
	}
	fallback := strings.TrimSpace(ps.DeepLinkFallback)

	return &models.RedirectionSpec{
		AppSiteID:      siteID,
		DestinationURL: strings.TrimSpace(ps.StoreURL),
		DestinationDeeplinkURL: firstNonEmpty(
			column(deepHeader),
			column(HeaderDeepLinkAll),
			fallback,
		),
		DestinationDeferredDeeplinkURL: firstNonEmpty(
			column(deferredHeader),
			column(HeaderDeferredDeepLinkAll),
			column(deepHeader),
			column(HeaderDeepLinkAll),
			fallback,
		),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
