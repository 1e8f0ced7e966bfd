package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString строка, которая в JSON может прийти числом или null
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(strings.Trim(string(data), `"`))
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// App приложение аккаунта (GET /apps)
type App struct {
	App          FlexString `json:"app"`
	AppID        FlexString `json:"app_id"`
	AppPlatform  FlexString `json:"app_platform"`
	AppLongname  FlexString `json:"app_longname"`
	AppSiteID    FlexString `json:"app_site_id"`
	SitePublicID FlexString `json:"site_public_id"`
	StoreURL     FlexString `json:"store_url"`
}

// Domain домен ссылок аккаунта (GET /domains)
type Domain struct {
	Subdomain FlexString `json:"subdomain"`
	DNSZone   FlexString `json:"dns_zone"`
}

// Catalog снимок приложений и доменов аккаунта
type Catalog struct {
	Apps    []App    `json:"available_apps"`
	Domains []Domain `json:"available_domains"`
}

// SyncSummary итоги синхронизации аккаунта
type SyncSummary struct {
	Apps      int  `json:"apps"`
	Domains   int  `json:"domains"`
	FromCache bool `json:"from_cache"`
}
