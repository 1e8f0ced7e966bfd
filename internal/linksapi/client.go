// Package linksapi is a client for the Singular Links API: account apps,
// link domains and custom tracking link creation.
package linksapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SergeiKhy/tracking-links/internal/config"
	"github.com/SergeiKhy/tracking-links/internal/metrics"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"golang.org/x/time/rate"
)

var ErrUnexpectedStatus = errors.New("unexpected status from links API")

// Response сырой ответ API: код и тело как есть
type Response struct {
	StatusCode int
	Body       []byte
}

// Success 200 или 201
func (r *Response) Success() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// Client операции Links API
type Client interface {
	ListApps(ctx context.Context, apiKey string) ([]models.App, error)
	ListDomains(ctx context.Context, apiKey string) ([]models.Domain, error)
	// CreateLink возвращает ответ для любого HTTP статуса; error - только транспортные ошибки
	CreateLink(ctx context.Context, apiKey string, req *models.LinkRequest) (*Response, error)
}

type client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient создаёт клиента; при RequestsPerSecond > 0 запросы ограничиваются token bucket
func NewClient(cfg config.LinksAPIConfig) Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.BurstSize
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

type appsResponse struct {
	AvailableApps []models.App `json:"available_apps"`
}

type domainsResponse struct {
	AvailableDomains []models.Domain `json:"available_domains"`
}

func (c *client) ListApps(ctx context.Context, apiKey string) ([]models.App, error) {
	var out appsResponse
	if err := c.getJSON(ctx, "apps", apiKey, &out); err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	return out.AvailableApps, nil
}

func (c *client) ListDomains(ctx context.Context, apiKey string) ([]models.Domain, error) {
	var out domainsResponse
	if err := c.getJSON(ctx, "domains", apiKey, &out); err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return out.AvailableDomains, nil
}

func (c *client) getJSON(ctx context.Context, endpoint, apiKey string, out any) error {
	u := fmt.Sprintf("%s/%s?api_key=%s", c.baseURL, endpoint, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, truncate(resp.Body, 200))
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *client) CreateLink(ctx context.Context, apiKey string, linkReq *models.LinkRequest) (*Response, error) {
	body, err := json.Marshal(linkReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/links", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "links")
}

func (c *client) do(req *http.Request, endpoint string) (*Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	metrics.ObserveAPIRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response (status %d): %w", endpoint, resp.StatusCode, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
