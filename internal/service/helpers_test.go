package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// newTestStore создаёт книгу в памяти
func newTestStore(t *testing.T) *repository.WorkbookStore {
	t.Helper()
	store, err := repository.NewWorkbookStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// defaultAccountDetails валидная конфигурация "Account Details"
func defaultAccountDetails() map[string]any {
	return map[string]any{
		"E1":  "api-key-1",
		"E5":  "demo",
		"F5":  "sng.link",
		"E7":  "Demo App",
		"A11": "android",
		"B11": "com.demo",
		"C11": "app-android",
		"D11": "site-android",
		"E11": "https://play.example/demo",
		"A12": "ios",
		"B12": "com.demo.ios",
		"C12": "app-ios",
		"D12": "site-ios",
		"E12": "https://apps.example/demo",
		"B15": "demo://android",
		"B16": "demo://ios",
		"B19": "https://example.com",
		"C22": 5,
		"C23": 5,
		"C24": 5,
		"C25": 5,
		"C26": 5,
		"C27": 2,
		"C28": "false",
	}
}

// seedAccountDetails записывает конфигурацию; overrides с nil очищают ячейку
func seedAccountDetails(t *testing.T, store repository.SheetStore, overrides map[string]any) {
	t.Helper()
	cells := defaultAccountDetails()
	for k, v := range overrides {
		cells[k] = v
	}
	for cell, v := range cells {
		if v == nil {
			require.NoError(t, store.ClearRange(repository.SheetAccountDetails, cell))
			continue
		}
		require.NoError(t, store.SetCell(repository.SheetAccountDetails, cell, v))
	}
}

// seedLayout отмечает флажки и пересобирает заголовки
func seedLayout(t *testing.T, store repository.SheetStore, checkboxes ...string) []string {
	t.Helper()
	for _, cb := range checkboxes {
		require.NoError(t, store.SetCell(repository.SheetCreateLinks, cb, true))
	}
	headers, err := service.NewHeaderService(store, zap.NewNop()).Setup()
	require.NoError(t, err)
	return headers
}

// seedRow пишет строку данных начиная с колонки A
func seedRow(t *testing.T, store repository.SheetStore, row int, values ...any) {
	t.Helper()
	require.NoError(t, store.SetRow(repository.SheetCreateLinks, repository.CellName(1, row), values))
}

// cellByHeader значение колонки header в строке row
func cellByHeader(t *testing.T, store repository.SheetStore, row int, header string) string {
	t.Helper()
	headers, err := store.Row(repository.SheetCreateLinks, 7)
	require.NoError(t, err)
	for i, h := range headers {
		if h == header {
			v, err := store.GetCell(repository.SheetCreateLinks, repository.CellName(i+1, row))
			require.NoError(t, err)
			return v
		}
	}
	t.Fatalf("header %q not found in %v", header, headers)
	return ""
}
