package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("catalog cache miss")

// CatalogCache кэш приложений и доменов аккаунта (ключ - API ключ аккаунта)
type CatalogCache interface {
	Get(ctx context.Context, apiKey string) (*models.Catalog, error)
	Set(ctx context.Context, apiKey string, catalog *models.Catalog, ttl time.Duration) error
	Delete(ctx context.Context, apiKey string) error
}

type catalogCache struct {
	redis *RedisDB
}

func NewCatalogCache(redis *RedisDB) CatalogCache {
	return &catalogCache{redis: redis}
}

func (r *catalogCache) Get(ctx context.Context, apiKey string) (*models.Catalog, error) {
	data, err := r.redis.Client.Get(ctx, r.key(apiKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var catalog models.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	return &catalog, nil
}

func (r *catalogCache) Set(ctx context.Context, apiKey string, catalog *models.Catalog, ttl time.Duration) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(apiKey), data, ttl).Err()
}

func (r *catalogCache) Delete(ctx context.Context, apiKey string) error {
	return r.redis.Client.Del(ctx, r.key(apiKey)).Err()
}

// ключ не содержит сам API ключ
func (r *catalogCache) key(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "catalog:" + hex.EncodeToString(sum[:8])
}

type noopCatalogCache struct{}

// NewNoopCatalogCache кэш-заглушка, когда Redis не настроен
func NewNoopCatalogCache() CatalogCache {
	return noopCatalogCache{}
}

func (noopCatalogCache) Get(context.Context, string) (*models.Catalog, error) {
	return nil, ErrCacheMiss
}

func (noopCatalogCache) Set(context.Context, string, *models.Catalog, time.Duration) error {
	return nil
}

func (noopCatalogCache) Delete(context.Context, string) error {
	return nil
}
