package geocoding

import (
	"context"
	"sync"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

// Loader builds the map provider once per process. Every caller of Ready gets
// the same provider, or the same configuration error.
type Loader struct {
	cfg   environments.MapsConfig
	build func(environments.MapsConfig) Provider

	once     sync.Once
	provider Provider
	err      error
}

func NewLoader(cfg environments.MapsConfig) *Loader {
	return &Loader{
		cfg: cfg,
		build: func(cfg environments.MapsConfig) Provider {
			return NewClient(cfg)
		},
	}
}

func (l *Loader) Ready(ctx context.Context) (Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.once.Do(func() {
		if err := l.cfg.Validate(); err != nil {
			l.err = err
			logger.Errorf("Map provider not configured: %v", err)
			return
		}
		l.provider = l.build(l.cfg)
		logger.Infof("Map provider ready (languages: %s, %s)", l.cfg.PrimaryLanguage, l.cfg.FallbackLanguage)
	})

	return l.provider, l.err
}
