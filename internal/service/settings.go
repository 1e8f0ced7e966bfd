package service

import (
	"fmt"
	"strings"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// LoadSettings читает настройки запуска из фиксированных ячеек "Account Details"
func LoadSettings(store repository.SheetStore) (models.Settings, error) {
	var s models.Settings

	cells := []struct {
		cell string
		dst  *string
	}{
		{cellAPIKey, &s.APIKey},
		{cellSubdomain, &s.Subdomain},
		{cellDNSZone, &s.DNSZone},
		{cellApp, &s.App},
		{cellAndroidDL, &s.Android.DeepLinkFallback},
		{cellIOSDL, &s.IOS.DeepLinkFallback},
		{cellFallback, &s.FallbackURL},
		{cellClickDet, &s.Windows.ClickDeterministic},
		{cellClickProb, &s.Windows.ClickProbabilistic},
		{cellViewDet, &s.Windows.ViewDeterministic},
		{cellViewProb, &s.Windows.ViewProbabilistic},
		{cellClickReeng, &s.Windows.ClickDeterministicReengagement},
		{cellBatchSize, &s.BatchSize},
		{cellReengage, &s.Reengagement},
		{cellSmType, &s.SmType},
	}
	for _, c := range cells {
		v, err := store.GetCell(repository.SheetAccountDetails, c.cell)
		if err != nil {
			return s, fmt.Errorf("failed to read settings: %w", err)
		}
		*c.dst = strings.TrimSpace(v)
	}

	var err error
	if s.Android, err = loadPlatform(store, androidRow, s.Android.DeepLinkFallback); err != nil {
		return s, err
	}
	if s.IOS, err = loadPlatform(store, iosRow, s.IOS.DeepLinkFallback); err != nil {
		return s, err
	}

	return s, nil
}

// loadPlatform строка A..E: платформа, bundle id, app id, app_site_id, store url
func loadPlatform(store repository.SheetStore, row int, deepLink string) (models.PlatformSettings, error) {
	values := make([]string, 5)
	for i, col := range []string{"A", "B", "C", "D", "E"} {
		v, err := store.GetCell(repository.SheetAccountDetails, fmt.Sprintf("%s%d", col, row))
		if err != nil {
			return models.PlatformSettings{}, fmt.Errorf("failed to read settings: %w", err)
		}
		values[i] = strings.TrimSpace(v)
	}

	return models.PlatformSettings{
		Platform:         values[0],
		BundleID:         values[1],
		AppID:            values[2],
		AppSiteID:        values[3],
		StoreURL:         values[4],
		DeepLinkFallback: deepLink,
	}, nil
}

// loadLayout строка заголовков "Create Links"
func loadLayout(store repository.SheetStore) (models.HeaderLayout, error) {
	row, err := store.Row(repository.SheetCreateLinks, headerRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	layout := make(models.HeaderLayout, len(row))
	for i, h := range row {
		layout[i] = strings.TrimSpace(h)
	}
	return layout, nil
}

// loadDataRows строки данных начиная с firstDataRow, включая пустые
func loadDataRows(store repository.SheetStore) ([]models.Row, error) {
	all, err := store.Rows(repository.SheetCreateLinks)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	rows := make([]models.Row, 0)
	for i := firstDataRow - 1; i < len(all); i++ {
		rows = append(rows, models.Row{Index: i + 1, Values: all[i]})
	}
	return rows, nil
}

// loadRow перечитывает одну строку данных
func loadRow(store repository.SheetStore, index int) (models.Row, error) {
	values, err := store.Row(repository.SheetCreateLinks, index)
	if err != nil {
		return models.Row{}, fmt.Errorf("failed to read row %d: %w", index, err)
	}
	return models.Row{Index: index, Values: values}, nil
}
