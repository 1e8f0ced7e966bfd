package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
)

// newSyncedStore книга после синхронизации каталога
func newSyncedStore(t *testing.T) (*repository.WorkbookStore, *service.EditDispatcher) {
	t.Helper()
	f := newAccountFixture(t)
	_, err := f.svc.Sync(context.Background(), false)
	require.NoError(t, err)
	return f.store, service.NewEditDispatcher(f.store, service.NewHeaderService(f.store, zap.NewNop()), service.NewRunLock(), zap.NewNop())
}

func accountCell(t *testing.T, store repository.SheetStore, cell string) string {
	t.Helper()
	v, err := store.GetCell(repository.SheetAccountDetails, cell)
	require.NoError(t, err)
	return v
}

func TestEditDispatcher_AppSelected(t *testing.T) {
	store, d := newSyncedStore(t)

	handled, err := d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "E7", Value: "Demo"})
	require.NoError(t, err)
	assert.True(t, handled)

	assert.Equal(t, "android", accountCell(t, store, "A11"))
	assert.Equal(t, "com.demo", accountCell(t, store, "B11"))
	assert.Equal(t, "101", accountCell(t, store, "C11"))
	assert.Equal(t, "201", accountCell(t, store, "D11"))
	assert.Equal(t, "https://play.example/demo", accountCell(t, store, "E11"))
	assert.Equal(t, "ios", accountCell(t, store, "A12"))
	assert.Equal(t, "102", accountCell(t, store, "C12"))

	bundles, err := store.DropList(repository.SheetAccountDetails, "B11")
	require.NoError(t, err)
	assert.Contains(t, bundles, "com.demo")

	// выбор другого приложения очищает строку ios
	_, err = d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "E7", Value: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "com.other", accountCell(t, store, "B11"))
	assert.Equal(t, "", accountCell(t, store, "A12"))
	assert.Equal(t, "", accountCell(t, store, "C12"))
}

func TestEditDispatcher_AppCleared(t *testing.T) {
	store, d := newSyncedStore(t)
	_, err := d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "E7", Value: "Demo"})
	require.NoError(t, err)

	_, err = d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "E7", Value: ""})
	require.NoError(t, err)
	assert.Equal(t, "", accountCell(t, store, "C11"))
	assert.Equal(t, "", accountCell(t, store, "C12"))
}

func TestEditDispatcher_BundleSelected(t *testing.T) {
	store, d := newSyncedStore(t)
	_, err := d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "E7", Value: "Demo"})
	require.NoError(t, err)
	require.NoError(t, store.ClearRange(repository.SheetAccountDetails, "C12:E12"))

	handled, err := d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "b12", Value: "com.demo.ios"})
	require.NoError(t, err)
	assert.True(t, handled)

	assert.Equal(t, "102", accountCell(t, store, "C12"))
	assert.Equal(t, "202", accountCell(t, store, "D12"))
	assert.Equal(t, "https://apps.example/demo", accountCell(t, store, "E12"))
}

func TestEditDispatcher_SubdomainSelected(t *testing.T) {
	store, d := newSyncedStore(t)

	_, err := d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "E5", Value: "promo"})
	require.NoError(t, err)
	assert.Equal(t, "go.example", accountCell(t, store, "F5"))

	_, err = d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetAccountDetails, Cell: "E5", Value: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, "go.example", accountCell(t, store, "F5"))
}

func TestEditDispatcher_CheckboxRebuildsHeaders(t *testing.T) {
	store, d := newSyncedStore(t)

	handled, err := d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetCreateLinks, Cell: "C4", Value: "TRUE"})
	require.NoError(t, err)
	assert.True(t, handled)

	headers, err := store.Row(repository.SheetCreateLinks, 7)
	require.NoError(t, err)
	assert.Equal(t, service.HeaderCampaignName, headers[2])
	assert.Equal(t, service.HeaderResponseCode, headers[3])

	_, err = d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetCreateLinks, Cell: "C4", Value: "false"})
	require.NoError(t, err)
	headers, err = store.Row(repository.SheetCreateLinks, 7)
	require.NoError(t, err)
	assert.Equal(t, service.HeaderResponseCode, headers[2])
}

func TestEditDispatcher_UnknownCell(t *testing.T) {
	store, d := newSyncedStore(t)

	handled, err := d.Apply(context.Background(), models.CellEvent{Sheet: repository.SheetCreateLinks, Cell: "A8", Value: "Social"})
	require.NoError(t, err)
	assert.False(t, handled)

	v, err := store.GetCell(repository.SheetCreateLinks, "A8")
	require.NoError(t, err)
	assert.Equal(t, "Social", v)
}

func TestEditDispatcher_Register(t *testing.T) {
	_, d := newSyncedStore(t)

	var got models.CellEvent
	d.Register(repository.SheetCreateLinks, "h5", func(ctx context.Context, e models.CellEvent) error {
		got = e
		return nil
	})

	handled, err := d.Dispatch(context.Background(), models.CellEvent{Sheet: repository.SheetCreateLinks, Cell: "H5", Value: "300"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "300", got.Value)
}
