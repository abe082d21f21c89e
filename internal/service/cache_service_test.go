package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

type cacheRepoStub struct {
	data   map[string]interface{}
	getErr error
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = v.(string)
	return nil
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *cacheRepoStub) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestCacheServiceLocalFallback(t *testing.T) {
	svc := NewCacheService(nil, nil, time.Minute, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()
	assert.False(t, svc.Remote())

	var out string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", out)

	now = now.Add(2 * time.Minute)
	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", "v2", time.Hour))
	require.NoError(t, svc.Invalidate(ctx, "k"))
	hit, _ = svc.Get(ctx, "k", &out)
	assert.False(t, hit)
}

func TestCacheServiceRemote(t *testing.T) {
	repo := &cacheRepoStub{data: map[string]interface{}{}}
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil)
	ctx := context.Background()
	assert.True(t, svc.Remote())

	require.NoError(t, svc.Set(ctx, "k", "remote", 0))
	var out string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "remote", out)

	repo.getErr = errors.New("connection refused")
	hit, err = svc.Get(ctx, "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}
