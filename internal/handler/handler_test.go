package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/handler"
	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/middleware"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
	"github.com/SergeiKhy/tracking-links/internal/service/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLinkService struct {
	summary *models.RunSummary
	err     error
	calls   []string
	ctxErr  error
}

func (f *fakeLinkService) CreateLinks(ctx context.Context) (*models.RunSummary, error) {
	f.calls = append(f.calls, service.RunModeCreate)
	f.ctxErr = ctx.Err()
	return f.summary, f.err
}

func (f *fakeLinkService) ReprocessInvalid(ctx context.Context) (*models.RunSummary, error) {
	f.calls = append(f.calls, service.RunModeReprocess)
	f.ctxErr = ctx.Err()
	return f.summary, f.err
}

type fakeAccountService struct {
	refresh []bool
	err     error
}

func (f *fakeAccountService) Sync(ctx context.Context, refresh bool) (*models.SyncSummary, error) {
	f.refresh = append(f.refresh, refresh)
	if f.err != nil {
		return nil, f.err
	}
	return &models.SyncSummary{Apps: 3, Domains: 2, FromCache: !refresh}, nil
}

func (f *fakeAccountService) Catalog() (*models.Catalog, error) {
	return &models.Catalog{Domains: []models.Domain{{Subdomain: "demo", DNSZone: "sng.link"}}}, nil
}

type fakeHeaderService struct {
	setups int
}

func (f *fakeHeaderService) Setup() ([]string, error) {
	f.setups++
	return []string{service.HeaderSourceName, service.HeaderTrackingLinkName}, nil
}

func (f *fakeHeaderService) Bootstrap() error { return nil }

type fakeQRService struct {
	err error
}

func (f *fakeQRService) GenerateURLs(ctx context.Context) (*models.QRSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.QRSummary{Rows: 2, Saved: 2}, nil
}

func (f *fakeQRService) Download(ctx context.Context) (*models.QRSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.QRSummary{Rows: 1, Saved: 1, Files: []string{"promo_a.png"}}, nil
}

type routerFixture struct {
	router   *gin.Engine
	store    *repository.WorkbookStore
	links    *fakeLinkService
	account  *fakeAccountService
	headers  *fakeHeaderService
	qr       *fakeQRService
	history  *mocks.MockHistoryRepository
	lock     *service.RunLock
	shutdown context.CancelFunc
}

func newRouterFixture(t *testing.T, keys map[string]string) *routerFixture {
	t.Helper()

	store, err := repository.NewWorkbookStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &routerFixture{
		store:   store,
		links:   &fakeLinkService{summary: &models.RunSummary{RunID: "run-1", Rows: 2, Submitted: 2, Succeeded: 2, Batches: 1}},
		account: &fakeAccountService{},
		headers: &fakeHeaderService{},
		qr:      &fakeQRService{},
		history: mocks.NewMockHistoryRepository(),
	}

	shutdown, cancel := context.WithCancel(context.Background())
	f.shutdown = cancel
	t.Cleanup(cancel)

	logger := zap.NewNop()
	f.lock = service.NewRunLock()
	edits := service.NewEditDispatcher(store, f.headers, f.lock, logger)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{RequestsPerSecond: 1000, BurstSize: 1000, CleanupInterval: time.Minute})
	t.Cleanup(rl.Stop)

	f.router = handler.NewRouter(handler.Handlers{
		Links:    handler.NewLinkHandler(shutdown, f.links, f.history, logger),
		Workbook: handler.NewWorkbookHandler(store, store, f.account, edits, logger),
		QR:       handler.NewQRHandler(shutdown, f.qr, logger),
	}, rl, middleware.NewAPIKey(middleware.APIKeyConfig{ValidKeys: keys}), logger)

	return f
}

func (f *routerFixture) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	f := newRouterFixture(t, map[string]string{"secret": "alice"})

	w := f.do(t, http.MethodGet, "/api/v1/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"tracking-links"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_RequiresOperatorKey(t *testing.T) {
	f := newRouterFixture(t, map[string]string{"secret": "alice"})

	w := f.do(t, http.MethodPost, "/api/v1/links/create", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.links.calls)

	w = f.do(t, http.MethodPost, "/api/v1/links/create", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{service.RunModeCreate}, f.links.calls)
}

func TestLinkHandler_CreateLinks(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/links/create", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var summary models.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 2, summary.Succeeded)
	assert.NoError(t, f.links.ctxErr)
}

func TestLinkHandler_Reprocess(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/links/reprocess", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{service.RunModeReprocess}, f.links.calls)
}

func TestLinkHandler_RunErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"run in progress", service.ErrRunInProgress, http.StatusConflict, "run_in_progress"},
		{"missing account key", service.ErrMissingAPIKey, http.StatusUnprocessableEntity, "missing_account_key"},
		{"no header layout", fmt.Errorf("load: %w", service.ErrHeaderLayoutMissing), http.StatusUnprocessableEntity, "header_layout_missing"},
		{"sheet missing", repository.ErrSheetNotFound, http.StatusBadRequest, "sheet_not_found"},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, nil)
			f.links.err = tt.err
			f.links.summary = nil

			w := f.do(t, http.MethodPost, "/api/v1/links/create", "", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Error)
		})
	}
}

func TestLinkHandler_ShutdownCancelsRun(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.shutdown()

	w := f.do(t, http.MethodPost, "/api/v1/links/create", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.ErrorIs(t, f.links.ctxErr, context.Canceled)
}

func TestLinkHandler_GetHistory(t *testing.T) {
	f := newRouterFixture(t, nil)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, f.history.Append(context.Background(), &models.HistoryEntry{TrackingLinkName: name}))
	}

	w := f.do(t, http.MethodGet, "/api/v1/history?limit=2", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].TrackingLinkName)
	assert.Equal(t, "b", entries[1].TrackingLinkName)
}

func TestLinkHandler_GetHistory_InvalidLimit(t *testing.T) {
	f := newRouterFixture(t, nil)

	for _, limit := range []string{"abc", "0", "5000"} {
		w := f.do(t, http.MethodGet, "/api/v1/history?limit="+limit, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
}

func TestWorkbookHandler_SyncAccount(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/account/sync", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/v1/account/sync?refresh=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []bool{false, true}, f.account.refresh)
	var summary models.SyncSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Apps)
}

func TestWorkbookHandler_SyncAccount_APIError(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.account.err = fmt.Errorf("failed to list apps: %w", linksapi.ErrUnexpectedStatus)

	w := f.do(t, http.MethodPost, "/api/v1/account/sync", "", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "links_api_error", decodeError(t, w).Error)
}

func TestWorkbookHandler_GetCatalog(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/account/catalog", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sng.link")
}

func TestWorkbookHandler_RebuildHeaders(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/headers", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.headers.setups)
	assert.JSONEq(t, `{"headers":["Source Name","Tracking Link Name"]}`, w.Body.String())
}

func TestWorkbookHandler_Cells(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPut, "/api/v1/cells", `{"sheet":"Create Links","cell":"a8","value":"Social"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"handled":false}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/cells?sheet=Create%20Links&cell=A8", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sheet":"Create Links","cell":"A8","value":"Social"}`, w.Body.String())
}

func TestWorkbookHandler_CheckboxEditRebuildsHeaders(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPut, "/api/v1/cells", `{"sheet":"Create Links","cell":"C4","value":"TRUE"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"handled":true}`, w.Body.String())
	assert.Equal(t, 1, f.headers.setups)
}

func TestWorkbookHandler_Cells_BadRequest(t *testing.T) {
	f := newRouterFixture(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   string
	}{
		{"missing cell in body", http.MethodPut, "/api/v1/cells", `{"sheet":"Create Links"}`, "invalid_request"},
		{"unknown sheet", http.MethodPut, "/api/v1/cells", `{"sheet":"Nope","cell":"A1","value":"x"}`, "sheet_not_found"},
		{"missing query", http.MethodGet, "/api/v1/cells?sheet=Create%20Links", "", "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Error)
		})
	}
}

func TestWorkbookHandler_DownloadWorkbook(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/workbook", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tracking_links.xlsx")
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestQRHandler(t *testing.T) {
	f := newRouterFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/qr/urls", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":2,"saved":2,"failed":0}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/qr/download", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "promo_a.png")
}

func TestQRHandler_MissingLongLinkColumn(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.qr.err = service.ErrLongLinkColumnMissing

	w := f.do(t, http.MethodPost, "/api/v1/qr/urls", "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "long_link_column_missing", decodeError(t, w).Error)
}

func TestWorkbookHandler_EditsRejectedDuringRun(t *testing.T) {
	f := newRouterFixture(t, nil)
	release, err := f.lock.TryAcquire()
	require.NoError(t, err)

	w := f.do(t, http.MethodPut, "/api/v1/cells", `{"sheet":"Create Links","cell":"C4","value":"TRUE"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "run_in_progress", decodeError(t, w).Error)

	w = f.do(t, http.MethodPost, "/api/v1/headers", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, f.headers.setups)

	release()
	w = f.do(t, http.MethodPost, "/api/v1/headers", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
