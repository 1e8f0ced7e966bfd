package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
	"github.com/SergeiKhy/tracking-links/internal/service/mocks"
)

func testApps() []models.App {
	return []models.App{
		{App: "Demo", AppID: "101", AppPlatform: "android", AppLongname: "com.demo", AppSiteID: "201", StoreURL: "https://play.example/demo"},
		{App: "Demo", AppID: "102", AppPlatform: "ios", AppLongname: "com.demo.ios", AppSiteID: "202", StoreURL: "https://apps.example/demo"},
		{App: "Other", AppID: "103", AppPlatform: "android", AppLongname: "com.other", AppSiteID: "203", StoreURL: "https://play.example/other"},
	}
}

func testDomains() []models.Domain {
	return []models.Domain{
		{Subdomain: "demo", DNSZone: "sng.link"},
		{Subdomain: "promo", DNSZone: "go.example"},
	}
}

type accountFixture struct {
	store  *repository.WorkbookStore
	client *mocks.MockLinksClient
	cache  *mocks.MockCatalogCache
	svc    service.AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	f := &accountFixture{
		store:  newTestStore(t),
		client: mocks.NewMockLinksClient(),
		cache:  mocks.NewMockCatalogCache(),
	}
	f.client.Apps = testApps()
	f.client.Domains = testDomains()
	seedAccountDetails(t, f.store, nil)
	headers := service.NewHeaderService(f.store, zap.NewNop())
	f.svc = service.NewAccountService(f.store, f.client, f.cache, headers, time.Hour, service.NewRunLock(), zap.NewNop())
	return f
}

func TestAccountService_Sync(t *testing.T) {
	f := newAccountFixture(t)

	summary, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Apps)
	assert.Equal(t, 2, summary.Domains)
	assert.False(t, summary.FromCache)

	header, err := f.store.Row(repository.SheetAccountData, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "app_id", "app_platform", "app_longname", "app_site_id", "site_public_id", "store_url", "", "subdomain", "dns_zone"}, header)

	second, err := f.store.Row(repository.SheetAccountData, 3)
	require.NoError(t, err)
	assert.Equal(t, "com.demo.ios", second[3])
	assert.Equal(t, "go.example", second[9])

	apps, err := f.store.DropList(repository.SheetAccountDetails, "E7")
	require.NoError(t, err)
	assert.Contains(t, apps, "Demo")
	assert.Contains(t, apps, "Other")
	domains, err := f.store.DropList(repository.SheetAccountDetails, "E5")
	require.NoError(t, err)
	assert.Contains(t, domains, "promo")

	catalog, err := f.svc.Catalog()
	require.NoError(t, err)
	assert.Len(t, catalog.Apps, 3)
	assert.Len(t, catalog.Domains, 2)
	assert.Equal(t, "203", catalog.Apps[2].AppSiteID.String())
}

func TestAccountService_Sync_ResetsSelection(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)

	for _, cell := range []string{"E5", "F5", "E7", "A11", "C11", "E12", "B15", "B16", "B19"} {
		v, err := f.store.GetCell(repository.SheetAccountDetails, cell)
		require.NoError(t, err)
		assert.Empty(t, v, cell)
	}
	// API ключ и окна не трогаются
	key, _ := f.store.GetCell(repository.SheetAccountDetails, "E1")
	assert.Equal(t, "api-key-1", key)
	window, _ := f.store.GetCell(repository.SheetAccountDetails, "C22")
	assert.Equal(t, "5", window)

	headers, err := f.store.Row(repository.SheetCreateLinks, 7)
	require.NoError(t, err)
	assert.Equal(t, service.HeaderSourceName, headers[0])
	assert.Equal(t, service.HeaderResponseCode, headers[2])
}

func TestAccountService_Sync_UsesCache(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)
	summary, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, summary.FromCache)
	assert.Equal(t, 1, f.client.AppsCalls)
	assert.Equal(t, 1, f.client.DomainsCalls)
	assert.Equal(t, 1, f.cache.Sets)
}

func TestAccountService_Sync_RefreshBypassesCache(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)
	summary, err := f.svc.Sync(context.Background(), true)
	require.NoError(t, err)

	assert.False(t, summary.FromCache)
	assert.Equal(t, 2, f.client.AppsCalls)
	assert.Equal(t, 2, f.cache.Sets)
}

func TestAccountService_Sync_MissingAPIKey(t *testing.T) {
	f := newAccountFixture(t)
	require.NoError(t, f.store.ClearRange(repository.SheetAccountDetails, "E1"))

	_, err := f.svc.Sync(context.Background(), false)
	assert.ErrorIs(t, err, service.ErrMissingAPIKey)
	assert.Zero(t, f.client.AppsCalls)
}

func TestAccountService_Sync_APIError(t *testing.T) {
	f := newAccountFixture(t)
	f.client.ListErr = errors.New("unauthorized")

	_, err := f.svc.Sync(context.Background(), false)
	require.Error(t, err)

	// "Account Data" не переписывается
	rows, err := f.store.Rows(repository.SheetAccountData)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAccountService_Sync_LongDropListUsesRange(t *testing.T) {
	f := newAccountFixture(t)
	apps := make([]models.App, 0, 40)
	for i := 0; i < 40; i++ {
		apps = append(apps, models.App{
			App:         models.FlexString(fmt.Sprintf("Application number %02d", i)),
			AppPlatform: "android",
		})
	}
	f.client.Apps = apps

	_, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)

	formula, err := f.store.DropList(repository.SheetAccountDetails, "E7")
	require.NoError(t, err)
	assert.Contains(t, formula, "Account Data")
	assert.Contains(t, formula, "$A$41")
}

func TestAccountService_Sync_EmptyCatalogClearsDropLists(t *testing.T) {
	f := newAccountFixture(t)
	_, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)

	f.client.Apps = nil
	f.client.Domains = nil
	_, err = f.svc.Sync(context.Background(), true)
	require.NoError(t, err)

	formula, err := f.store.DropList(repository.SheetAccountDetails, "E7")
	require.NoError(t, err)
	assert.Empty(t, formula)
}
