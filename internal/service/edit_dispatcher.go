package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// EditHandler реакция на изменение ячейки
type EditHandler func(ctx context.Context, event models.CellEvent) error

type editKey struct {
	sheet string
	cell  string
}

// EditDispatcher таблица обработчиков изменений по (лист, ячейка)
type EditDispatcher struct {
	store    repository.SheetStore
	headers  HeaderService
	handlers map[editKey]EditHandler
	lock     *RunLock
	logger   *zap.Logger
}

func NewEditDispatcher(store repository.SheetStore, headers HeaderService, lock *RunLock, logger *zap.Logger) *EditDispatcher {
	d := &EditDispatcher{
		store:    store,
		headers:  headers,
		handlers: make(map[editKey]EditHandler),
		lock:     lock,
		logger:   logger,
	}

	d.Register(repository.SheetAccountDetails, cellApp, d.onAppSelected)
	d.Register(repository.SheetAccountDetails, "B11", d.onBundleSelected)
	d.Register(repository.SheetAccountDetails, "B12", d.onBundleSelected)
	d.Register(repository.SheetAccountDetails, cellSubdomain, d.onSubdomainSelected)
	for _, cb := range dynamicHeaders {
		d.Register(repository.SheetCreateLinks, cb.Cell, d.onCheckboxToggled)
	}

	return d
}

// Register заменяет обработчик для ячейки
func (d *EditDispatcher) Register(sheet, cell string, h EditHandler) {
	d.handlers[editKey{sheet: sheet, cell: strings.ToUpper(cell)}] = h
}

// Dispatch вызывает обработчик; handled == false для ячеек без обработчика
func (d *EditDispatcher) Dispatch(ctx context.Context, event models.CellEvent) (bool, error) {
	h, ok := d.handlers[editKey{sheet: event.Sheet, cell: strings.ToUpper(event.Cell)}]
	if !ok {
		return false, nil
	}

	d.logger.Debug("Dispatching cell edit",
		zap.String("sheet", event.Sheet),
		zap.String("cell", event.Cell),
	)
	if err := h(ctx, event); err != nil {
		return true, fmt.Errorf("edit %s!%s: %w", event.Sheet, event.Cell, err)
	}
	return true, nil
}

// Apply записывает значение как пользователь и вызывает обработчик.
// Во время запуска правки отклоняются с ErrRunInProgress.
func (d *EditDispatcher) Apply(ctx context.Context, event models.CellEvent) (bool, error) {
	release, err := d.lock.TryAcquire()
	if err != nil {
		return false, err
	}
	defer release()

	event.Cell = strings.ToUpper(strings.TrimSpace(event.Cell))
	if err := d.store.SetCell(event.Sheet, event.Cell, cellValue(event.Value)); err != nil {
		return false, err
	}

	handled, err := d.Dispatch(ctx, event)
	if ferr := d.store.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return handled, err
}

// RebuildHeaders пересборка заголовков по запросу оператора, под тем же локом, что и правки
func (d *EditDispatcher) RebuildHeaders() ([]string, error) {
	release, err := d.lock.TryAcquire()
	if err != nil {
		return nil, err
	}
	defer release()

	headers, err := d.headers.Setup()
	if err != nil {
		return nil, err
	}
	if err := d.store.Flush(); err != nil {
		return nil, err
	}
	return headers, nil
}

// cellValue TRUE/FALSE сохраняются как логические значения (флажки)
func cellValue(v string) any {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// onAppSelected E7: заполняет строки 11 (android) и 12 (ios) данными выбранного приложения
func (d *EditDispatcher) onAppSelected(ctx context.Context, event models.CellEvent) error {
	if err := clearAppSelection(d.store); err != nil {
		return err
	}

	app := strings.TrimSpace(event.Value)
	if app == "" {
		return nil
	}

	catalog, err := readCatalog(d.store)
	if err != nil {
		return err
	}

	bundles := map[models.Platform][]string{}
	for _, a := range catalog.Apps {
		if a.App.String() != app {
			continue
		}
		platform := models.Platform(a.AppPlatform.String())
		row, ok := platformRow(platform)
		if !ok {
			continue
		}
		bundles[platform] = append(bundles[platform], a.AppLongname.String())

		values := []any{string(platform), a.AppLongname.String(), a.AppID.String(), a.AppSiteID.String(), a.StoreURL.String()}
		if err := d.store.SetRow(repository.SheetAccountDetails, fmt.Sprintf("A%d", row), values); err != nil {
			return err
		}
	}

	for _, platform := range []models.Platform{models.PlatformAndroid, models.PlatformIOS} {
		row, _ := platformRow(platform)
		list := distinct(bundles[platform])
		if len(list) == 0 {
			continue
		}
		cell := fmt.Sprintf("B%d", row)
		if err := d.store.SetDropList(repository.SheetAccountDetails, cell, list); err != nil {
			d.logger.Warn("Failed to set bundle drop list", zap.String("cell", cell), zap.Error(err))
		}
	}

	d.logger.Info("App selected",
		zap.String("app", app),
		zap.Int("android_bundles", len(bundles[models.PlatformAndroid])),
		zap.Int("ios_bundles", len(bundles[models.PlatformIOS])),
	)
	return nil
}

// onBundleSelected B11/B12: app id, app_site_id и store url выбранного bundle id
func (d *EditDispatcher) onBundleSelected(ctx context.Context, event models.CellEvent) error {
	platform := models.PlatformAndroid
	row := androidRow
	if strings.ToUpper(event.Cell) == "B12" {
		platform, row = models.PlatformIOS, iosRow
	}

	bundle := strings.TrimSpace(event.Value)
	app, err := d.store.GetCell(repository.SheetAccountDetails, cellApp)
	if err != nil {
		return err
	}
	app = strings.TrimSpace(app)
	if app == "" || bundle == "" {
		return nil
	}

	catalog, err := readCatalog(d.store)
	if err != nil {
		return err
	}
	for _, a := range catalog.Apps {
		if a.App.String() == app && a.AppPlatform.String() == string(platform) && a.AppLongname.String() == bundle {
			values := []any{a.AppID.String(), a.AppSiteID.String(), a.StoreURL.String()}
			return d.store.SetRow(repository.SheetAccountDetails, fmt.Sprintf("C%d", row), values)
		}
	}
	return nil
}

// onSubdomainSelected E5: DNS зона в F5
func (d *EditDispatcher) onSubdomainSelected(ctx context.Context, event models.CellEvent) error {
	subdomain := strings.TrimSpace(event.Value)
	if subdomain == "" {
		return nil
	}

	catalog, err := readCatalog(d.store)
	if err != nil {
		return err
	}
	for _, dom := range catalog.Domains {
		if dom.Subdomain.String() == subdomain {
			return d.store.SetCell(repository.SheetAccountDetails, cellDNSZone, dom.DNSZone.String())
		}
	}
	return nil
}

func (d *EditDispatcher) onCheckboxToggled(ctx context.Context, event models.CellEvent) error {
	_, err := d.headers.Setup()
	return err
}

func platformRow(p models.Platform) (int, bool) {
	switch p {
	case models.PlatformAndroid:
		return androidRow, true
	case models.PlatformIOS:
		return iosRow, true
	}
	return 0, false
}
