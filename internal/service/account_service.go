package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// Колонки листа "Account Data"
var (
	appColumns    = []string{"app", "app_id", "app_platform", "app_longname", "app_site_id", "site_public_id", "store_url"}
	domainColumns = []string{"subdomain", "dns_zone"}
)

const (
	appsFirstColumn    = 1 // A
	domainsFirstColumn = 9 // I
)

// AccountService синхронизация приложений и доменов аккаунта
type AccountService interface {
	// Sync загружает каталог (из кэша, если refresh == false) и переписывает "Account Data"
	Sync(ctx context.Context, refresh bool) (*models.SyncSummary, error)
	// Catalog читает каталог с листа "Account Data"
	Catalog() (*models.Catalog, error)
}

type accountService struct {
	store    repository.SheetStore
	client   linksapi.Client
	cache    repository.CatalogCache
	headers  HeaderService
	cacheTTL time.Duration
	lock     *RunLock
	logger   *zap.Logger
}

func NewAccountService(
	store repository.SheetStore,
	client linksapi.Client,
	cache repository.CatalogCache,
	headers HeaderService,
	cacheTTL time.Duration,
	lock *RunLock,
	logger *zap.Logger,
) AccountService {
	return &accountService{
		store:    store,
		client:   client,
		cache:    cache,
		headers:  headers,
		cacheTTL: cacheTTL,
		lock:     lock,
		logger:   logger,
	}
}

func (s *accountService) Sync(ctx context.Context, refresh bool) (*models.SyncSummary, error) {
	// синхронизация пересобирает заголовки, во время запуска нельзя
	release, err := s.lock.TryAcquire()
	if err != nil {
		return nil, err
	}
	defer release()

	apiKey, err := s.store.GetCell(repository.SheetAccountDetails, cellAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read API key: %w", err)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	catalog, fromCache, err := s.fetchCatalog(ctx, apiKey, refresh)
	if err != nil {
		return nil, err
	}

	if err := s.writeCatalog(catalog); err != nil {
		return nil, err
	}
	if err := s.setupDropdowns(catalog); err != nil {
		return nil, err
	}
	if err := s.resetSelection(); err != nil {
		return nil, err
	}
	if _, err := s.headers.Setup(); err != nil {
		return nil, err
	}
	if err := s.store.Flush(); err != nil {
		return nil, err
	}

	s.logger.Info("Account synced",
		zap.Int("apps", len(catalog.Apps)),
		zap.Int("domains", len(catalog.Domains)),
		zap.Bool("from_cache", fromCache),
	)
	return &models.SyncSummary{
		Apps:      len(catalog.Apps),
		Domains:   len(catalog.Domains),
		FromCache: fromCache,
	}, nil
}

func (s *accountService) fetchCatalog(ctx context.Context, apiKey string, refresh bool) (*models.Catalog, bool, error) {
	if !refresh {
		catalog, err := s.cache.Get(ctx, apiKey)
		if err == nil {
			return catalog, true, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
	}

	apps, err := s.client.ListApps(ctx, apiKey)
	if err != nil {
		return nil, false, err
	}
	domains, err := s.client.ListDomains(ctx, apiKey)
	if err != nil {
		return nil, false, err
	}
	catalog := &models.Catalog{Apps: apps, Domains: domains}

	if err := s.cache.Set(ctx, apiKey, catalog, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache catalog", zap.Error(err))
	}
	return catalog, false, nil
}

func (s *accountService) writeCatalog(catalog *models.Catalog) error {
	sheet := repository.SheetAccountData
	if err := s.store.ClearSheet(sheet); err != nil {
		return fmt.Errorf("failed to clear account data: %w", err)
	}

	if err := s.writeHeader(appsFirstColumn, appColumns); err != nil {
		return err
	}
	for i, app := range catalog.Apps {
		values := []any{
			app.App.String(),
			app.AppID.String(),
			app.AppPlatform.String(),
			app.AppLongname.String(),
			app.AppSiteID.String(),
			app.SitePublicID.String(),
			app.StoreURL.String(),
		}
		if err := s.store.SetRow(sheet, repository.CellName(appsFirstColumn, i+2), values); err != nil {
			return fmt.Errorf("failed to write app: %w", err)
		}
	}

	if err := s.writeHeader(domainsFirstColumn, domainColumns); err != nil {
		return err
	}
	for i, d := range catalog.Domains {
		values := []any{d.Subdomain.String(), d.DNSZone.String()}
		if err := s.store.SetRow(sheet, repository.CellName(domainsFirstColumn, i+2), values); err != nil {
			return fmt.Errorf("failed to write domain: %w", err)
		}
	}
	return nil
}

func (s *accountService) writeHeader(firstColumn int, columns []string) error {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	from := repository.CellName(firstColumn, 1)
	if err := s.store.SetRow(repository.SheetAccountData, from, values); err != nil {
		return fmt.Errorf("failed to write account data headers: %w", err)
	}
	rangeRef := from + ":" + repository.CellName(firstColumn+len(columns)-1, 1)
	if err := s.store.SetStyle(repository.SheetAccountData, rangeRef, catalogHeaderStyle); err != nil {
		return fmt.Errorf("failed to style account data headers: %w", err)
	}
	return nil
}

// setupDropdowns E7 - приложения, E5 - поддомены
func (s *accountService) setupDropdowns(catalog *models.Catalog) error {
	apps := make([]string, 0, len(catalog.Apps))
	for _, a := range catalog.Apps {
		apps = append(apps, a.App.String())
	}
	subdomains := make([]string, 0, len(catalog.Domains))
	for _, d := range catalog.Domains {
		subdomains = append(subdomains, d.Subdomain.String())
	}

	appsRange := sourceRange(appsFirstColumn, len(catalog.Apps))
	if err := s.setDropdown(cellApp, distinct(apps), appsRange); err != nil {
		return err
	}
	domainsRange := sourceRange(domainsFirstColumn, len(catalog.Domains))
	return s.setDropdown(cellSubdomain, distinct(subdomains), domainsRange)
}

// setDropdown длинные списки ссылаются на диапазон "Account Data"
func (s *accountService) setDropdown(cell string, values []string, fallbackRange string) error {
	sheet := repository.SheetAccountDetails
	if len(values) == 0 {
		return s.store.ClearDropList(sheet, cell)
	}

	err := s.store.SetDropList(sheet, cell, values)
	if errors.Is(err, repository.ErrDropListTooLong) {
		err = s.store.SetDropListRange(sheet, cell, fallbackRange)
	}
	if err != nil {
		return fmt.Errorf("failed to set drop list on %s: %w", cell, err)
	}
	return nil
}

// resetSelection очищает E5, F5, E7 и данные выбранного приложения
func (s *accountService) resetSelection() error {
	for _, cell := range []string{cellSubdomain, cellDNSZone, cellApp} {
		if err := s.store.ClearRange(repository.SheetAccountDetails, cell); err != nil {
			return fmt.Errorf("failed to reset selection: %w", err)
		}
	}
	return clearAppSelection(s.store)
}

func (s *accountService) Catalog() (*models.Catalog, error) {
	return readCatalog(s.store)
}

// clearAppSelection строки платформ, запасные deep link, fallback URL и списки bundle id
func clearAppSelection(store repository.SheetStore) error {
	sheet := repository.SheetAccountDetails
	for _, r := range []string{"A11:E12", cellAndroidDL, cellIOSDL, cellFallback} {
		if err := store.ClearRange(sheet, r); err != nil {
			return fmt.Errorf("failed to clear %s: %w", r, err)
		}
	}
	for _, cell := range []string{"B11", "B12"} {
		if err := store.ClearDropList(sheet, cell); err != nil {
			return fmt.Errorf("failed to clear drop list on %s: %w", cell, err)
		}
	}
	return nil
}

// readCatalog разбирает лист "Account Data" обратно в каталог
func readCatalog(store repository.SheetStore) (*models.Catalog, error) {
	rows, err := store.Rows(repository.SheetAccountData)
	if err != nil {
		return nil, fmt.Errorf("failed to read account data: %w", err)
	}

	catalog := &models.Catalog{Apps: []models.App{}, Domains: []models.Domain{}}
	for i := 1; i < len(rows); i++ {
		row := models.Row{Index: i + 1, Values: rows[i]}
		if app := row.Value(0); app != "" {
			catalog.Apps = append(catalog.Apps, models.App{
				App:          models.FlexString(app),
				AppID:        models.FlexString(row.Value(1)),
				AppPlatform:  models.FlexString(row.Value(2)),
				AppLongname:  models.FlexString(row.Value(3)),
				AppSiteID:    models.FlexString(row.Value(4)),
				SitePublicID: models.FlexString(row.Value(5)),
				StoreURL:     models.FlexString(row.Value(6)),
			})
		}
		if sub := row.Value(domainsFirstColumn - 1); sub != "" {
			catalog.Domains = append(catalog.Domains, models.Domain{
				Subdomain: models.FlexString(sub),
				DNSZone:   models.FlexString(row.Value(domainsFirstColumn)),
			})
		}
	}
	return catalog, nil
}

// sourceRange "'Account Data'!$A$2:$A$N"
func sourceRange(column, count int) string {
	col := repository.ColumnName(column)
	return fmt.Sprintf("'%s'!$%s$2:$%s$%d", repository.SheetAccountData, col, col, count+1)
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
