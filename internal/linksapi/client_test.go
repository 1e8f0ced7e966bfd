package linksapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeiKhy/tracking-links/internal/config"
	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) linksapi.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return linksapi.NewClient(config.LinksAPIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestClient_ListApps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/apps", r.URL.Path)
		assert.Equal(t, "key 1", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"available_apps":[{"app":"Demo","app_id":42,"app_platform":"android","app_longname":"com.demo","app_site_id":7,"site_public_id":"p","store_url":"https://play"}]}`))
	})

	apps, err := client.ListApps(context.Background(), "key 1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Demo", apps[0].App.String())
	assert.Equal(t, "42", apps[0].AppID.String())
	assert.Equal(t, "7", apps[0].AppSiteID.String())
	assert.Equal(t, "com.demo", apps[0].AppLongname.String())
}

func TestClient_ListDomains(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domains", r.URL.Path)
		w.Write([]byte(`{"available_domains":[{"subdomain":"demo","dns_zone":"sng.link"}]}`))
	})

	domains, err := client.ListDomains(context.Background(), "k")
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "demo", domains[0].Subdomain.String())
	assert.Equal(t, "sng.link", domains[0].DNSZone.String())
}

func TestClient_ListApps_UnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	})

	_, err := client.ListApps(context.Background(), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, linksapi.ErrUnexpectedStatus)
}

func TestClient_CreateLink(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/links", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "custom", payload["link_type"])
		assert.NotContains(t, payload, "ios_redirection")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"short_link":"https://sng.link/abc"}`))
	})

	resp, err := client.CreateLink(context.Background(), "secret", &models.LinkRequest{LinkType: "custom"})
	require.NoError(t, err)
	assert.True(t, resp.Success())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"short_link":"https://sng.link/abc"}`, string(resp.Body))
}

func TestClient_CreateLink_APIErrorIsNotTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid app"}`))
	})

	resp, err := client.CreateLink(context.Background(), "k", &models.LinkRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClient_CreateLink_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := linksapi.NewClient(config.LinksAPIConfig{BaseURL: srv.URL, Timeout: time.Second})

	resp, err := client.CreateLink(context.Background(), "k", &models.LinkRequest{})
	require.Error(t, err)
	assert.Nil(t, resp)
}
