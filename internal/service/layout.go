package service

// Раскладка листа "Create Links"
const (
	headerRow    = 7
	firstDataRow = headerRow + 1
)

// Заголовки колонок "Create Links"
const (
	HeaderSourceName       = "Source Name"
	HeaderTrackingLinkName = "Tracking Link Name"

	HeaderDeepLinkAll         = "Deep Link (Android & iOS)"
	HeaderDeferredDeepLinkAll = "Deferred Deep Link (Android & iOS)"
	HeaderDeepLinkAndroid     = "Deep Link (Android)"
	HeaderDeferredAndroid     = "Deferred Deep Link (Android)"
	HeaderDeepLinkIOS         = "Deep Link (iOS)"
	HeaderDeferredIOS         = "Deferred Deep Link (iOS)"
	HeaderCampaignName        = "Campaign Name"
	HeaderCampaignID          = "Campaign ID"
	HeaderSubCampaignName     = "Sub Campaign Name"
	HeaderSubCampaignID       = "Sub Campaign ID"
	HeaderFallbackURLWeb      = "Fallback URL Web"
	HeaderPassthrough         = "Passthrough"

	HeaderResponseCode   = "Response Code"
	HeaderResult         = "Result"
	HeaderOutputLinkName = "Tracking_Link Name"
	HeaderShortLink      = "Short link"
	HeaderLongLink       = "Long Link"
	HeaderResponseData   = "Response data"
	HeaderQRCodeURL      = "QR Code URL"
)

// checkboxHeader флажок на "Create Links" и колонка, которую он включает
type checkboxHeader struct {
	Cell   string
	Header string
}

// dynamicHeaders в порядке вывода
var dynamicHeaders = []checkboxHeader{
	{Cell: "A2", Header: HeaderDeepLinkAll},
	{Cell: "A3", Header: HeaderDeferredDeepLinkAll},
	{Cell: "A4", Header: HeaderDeepLinkAndroid},
	{Cell: "A5", Header: HeaderDeferredAndroid},
	{Cell: "C2", Header: HeaderDeepLinkIOS},
	{Cell: "C3", Header: HeaderDeferredIOS},
	{Cell: "C4", Header: HeaderCampaignName},
	{Cell: "C5", Header: HeaderCampaignID},
	{Cell: "E2", Header: HeaderSubCampaignName},
	{Cell: "E3", Header: HeaderSubCampaignID},
	{Cell: "E4", Header: HeaderFallbackURLWeb},
	{Cell: "E5", Header: HeaderPassthrough},
}

// outputHeaders колонки результата, всегда после динамических
var outputHeaders = []string{
	HeaderResponseCode,
	HeaderResult,
	HeaderOutputLinkName,
	HeaderShortLink,
	HeaderLongLink,
	HeaderResponseData,
	HeaderQRCodeURL,
}

// Ячейки "Account Details"
const (
	cellAPIKey     = "E1"
	cellSubdomain  = "E5"
	cellDNSZone    = "F5"
	cellApp        = "E7"
	androidRow     = 11
	iosRow         = 12
	cellAndroidDL  = "B15"
	cellIOSDL      = "B16"
	cellFallback   = "B19"
	cellClickDet   = "C22"
	cellClickProb  = "C23"
	cellViewDet    = "C24"
	cellViewProb   = "C25"
	cellClickReeng = "C26"
	cellBatchSize  = "C27"
	cellReengage   = "C28"
	cellSmType     = "C29"
)

// QR размер на "Create Links"
const cellQRSize = "H5"
