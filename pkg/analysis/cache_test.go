package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/journeyc/pkg/models"
)

func TestMemoryCache_GetMiss(t *testing.T) {
	cache := NewMemoryCache()

	_, ok, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache()
	result := &models.WorkflowAnalysisResult{WorkflowID: "wf-1"}

	require.NoError(t, cache.Set(context.Background(), "wf-1@v1", result))

	cached, ok, err := cache.Get(context.Background(), "wf-1@v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, result, cached)
}

func TestNewCache_SchemeSelection(t *testing.T) {
	tests := []struct {
		name     string
		cacheURL string
		wantType any
	}{
		{
			name:     "empty url selects memory cache",
			cacheURL: "",
			wantType: &MemoryCache{},
		},
		{
			name:     "redis scheme selects redis cache",
			cacheURL: "redis://localhost:6379/0",
			wantType: &RedisCache{},
		},
		{
			name:     "rediss scheme selects redis cache",
			cacheURL: "rediss://localhost:6380/0",
			wantType: &RedisCache{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, err := NewCache(tt.cacheURL)
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, cache)
		})
	}
}

func TestNewCache_InvalidRedisURL(t *testing.T) {
	_, err := NewCache("redis://[invalid")
	assert.Error(t, err)
}
