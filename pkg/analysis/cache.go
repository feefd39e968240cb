package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukex/journeyc/pkg/models"
)

// Cache stores analysis results keyed by workflow id and version. Entries
// are immutable values, never mutated after insertion.
type Cache interface {
	Get(ctx context.Context, key string) (*models.WorkflowAnalysisResult, bool, error)
	Set(ctx context.Context, key string, result *models.WorkflowAnalysisResult) error
}

// NewCache selects a cache backend by URL scheme: redis:// selects Redis,
// anything else the in-memory map.
func NewCache(cacheURL string) (Cache, error) {
	if strings.HasPrefix(cacheURL, "redis://") || strings.HasPrefix(cacheURL, "rediss://") {
		options, err := redis.ParseURL(cacheURL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache url: %w", err)
		}

		return NewRedisCache(redis.NewClient(options)), nil
	}

	return NewMemoryCache(), nil
}

// MemoryCache is a mutex-guarded map, safe for concurrent read and insert.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*models.WorkflowAnalysisResult
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*models.WorkflowAnalysisResult)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*models.WorkflowAnalysisResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result, ok := c.entries[key]

	return result, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, result *models.WorkflowAnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = result

	return nil
}

const redisKeyPrefix = "journeyc:analysis:"

// RedisCache stores JSON-serialized results in Redis. Entries never expire:
// a workflow version is immutable, so its analysis never goes stale.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.WorkflowAnalysisResult, bool, error) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("redis cache get: %w", err)
	}

	var result models.WorkflowAnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("redis cache decode: %w", err)
	}

	return &result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result *models.WorkflowAnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis cache encode: %w", err)
	}

	if err := c.client.Set(ctx, redisKeyPrefix+key, payload, time.Duration(0)).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}

	return nil
}
