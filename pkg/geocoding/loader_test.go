package geocoding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

func TestLoader_BuildsProviderOnce(t *testing.T) {
	loader := NewLoader(mapsConfig("http://localhost"))

	var builds int32
	loader.build = func(cfg environments.MapsConfig) Provider {
		atomic.AddInt32(&builds, 1)
		return &fakeProvider{}
	}

	var wg sync.WaitGroup
	providers := make([]Provider, 10)
	for i := range providers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := loader.Ready(context.Background())
			assert.NoError(t, err)
			providers[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	for _, p := range providers {
		assert.Same(t, providers[0], p)
	}
}

func TestLoader_MissingKeyIsConfigurationError(t *testing.T) {
	cfg := mapsConfig("http://localhost")
	cfg.APIKey = ""
	loader := NewLoader(cfg)

	for i := 0; i < 2; i++ {
		_, err := loader.Ready(context.Background())
		var cfgErr *domain.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(mapsConfig("http://localhost")).Ready(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
