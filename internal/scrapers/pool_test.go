package scrapers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
)

// NewTab must bring the pool up on first use rather than rejecting the
// call outright. Chrome may not be installed where tests run, so a
// startup failure is acceptable; refusing to start is not.
func TestNewTabStartsPoolOnFirstUse(t *testing.T) {
	pool := NewBrowserPool(common.GetLogger(), &common.ScrapersConfig{Headless: true, PoolSize: 1})
	defer pool.Shutdown()

	tab, cancel, err := pool.NewTab(context.Background())
	if err != nil {
		assert.NotContains(t, err.Error(), "not initialized")
		assert.Contains(t, err.Error(), "startup failed")
		return
	}
	defer cancel()
	assert.NotNil(t, tab)
	assert.True(t, pool.initialized)
}

func TestInitRejectsDoubleInit(t *testing.T) {
	pool := NewBrowserPool(common.GetLogger(), &common.ScrapersConfig{Headless: true, PoolSize: 1})
	defer pool.Shutdown()

	pool.mu.Lock()
	pool.initialized = true
	pool.mu.Unlock()

	require.Error(t, pool.Init())
}
