package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
)

// MockHistoryRepository implements repository.HistoryRepository for testing
type MockHistoryRepository struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
	nextID  int64
	Err     error // returned by Append when set
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{nextID: 1}
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	entry.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MockHistoryRepository) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.HistoryEntry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Entries returns appended entries in insertion order
func (m *MockHistoryRepository) Entries() []models.HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.HistoryEntry(nil), m.entries...)
}

func (m *MockHistoryRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.nextID = 1
}

// MockCatalogCache implements repository.CatalogCache for testing
type MockCatalogCache struct {
	mu      sync.RWMutex
	catalog map[string]*models.Catalog
	Sets    int
}

func NewMockCatalogCache() *MockCatalogCache {
	return &MockCatalogCache{catalog: make(map[string]*models.Catalog)}
}

func (m *MockCatalogCache) Get(ctx context.Context, apiKey string) (*models.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.catalog[apiKey]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return c, nil
}

func (m *MockCatalogCache) Set(ctx context.Context, apiKey string, catalog *models.Catalog, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[apiKey] = catalog
	m.Sets++
	return nil
}

func (m *MockCatalogCache) Delete(ctx context.Context, apiKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.catalog, apiKey)
	return nil
}

// ErrMockTransport simulates a network failure
var ErrMockTransport = errors.New(`Post "https://api.example/links": dial tcp: connection refused`)
