package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "summary:record:r1", map[string]string{"text": "ok"}, time.Minute))
	var dest map[string]string
	err := repo.Get(ctx, "summary:record:r1", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Delete(ctx, "summary:record:r1"))
	assert.NoError(t, repo.Close())
}

func TestNamespacedKey(t *testing.T) {
	assert.Equal(t, "autohub:summary:record:r1", namespacedKey("summary:record:r1"))
}
