package mocks

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/models"
)

// MockLinksClient implements linksapi.Client for testing.
// By default every CreateLink succeeds with 201 and links derived from the tracking link name.
type MockLinksClient struct {
	mu       sync.Mutex
	Apps     []models.App
	Domains  []models.Domain
	Requests []models.LinkRequest
	APIKeys  []string
	ListErr  error

	// per tracking link name overrides
	responses map[string]*linksapi.Response
	errs      map[string]error

	AppsCalls    int
	DomainsCalls int
}

func NewMockLinksClient() *MockLinksClient {
	return &MockLinksClient{
		responses: make(map[string]*linksapi.Response),
		errs:      make(map[string]error),
	}
}

// RespondWith fixes the response for a tracking link name
func (m *MockLinksClient) RespondWith(name string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[name] = &linksapi.Response{StatusCode: status, Body: []byte(body)}
}

// FailWith makes CreateLink return a transport error for a tracking link name
func (m *MockLinksClient) FailWith(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[name] = err
}

func (m *MockLinksClient) ListApps(ctx context.Context, apiKey string) ([]models.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppsCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Apps, nil
}

func (m *MockLinksClient) ListDomains(ctx context.Context, apiKey string) ([]models.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DomainsCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Domains, nil
}

func (m *MockLinksClient) CreateLink(ctx context.Context, apiKey string, req *models.LinkRequest) (*linksapi.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, *req)
	m.APIKeys = append(m.APIKeys, apiKey)

	if err, ok := m.errs[req.TrackingLinkName]; ok {
		return nil, err
	}
	if resp, ok := m.responses[req.TrackingLinkName]; ok {
		return resp, nil
	}

	body, _ := json.Marshal(models.LinkResponse{
		ShortLink:         "https://sng.link/" + req.TrackingLinkName,
		ClickTrackingLink: "https://sng.link/" + req.TrackingLinkName + "/click",
		TrackingLinkName:  req.TrackingLinkName,
	})
	return &linksapi.Response{StatusCode: http.StatusCreated, Body: body}, nil
}

// SubmittedNames returns tracking link names in submission order
func (m *MockLinksClient) SubmittedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Requests))
	for i, r := range m.Requests {
		names[i] = r.TrackingLinkName
	}
	return names
}

func (m *MockLinksClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = nil
	m.APIKeys = nil
}
