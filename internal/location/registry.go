package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

type session struct {
	picker   *Picker
	lastUsed time.Time
}

// Registry keeps the open picker sessions of the HTTP API, keyed by ULID.
type Registry struct {
	resolver addressResolver
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(resolver addressResolver) *Registry {
	return &Registry{
		resolver: resolver,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (r *Registry) Create(capabilities Capabilities) (string, *Picker) {
	id := ulid.Make().String()
	picker := NewPicker(r.resolver, capabilities)

	r.mu.Lock()
	r.sessions[id] = &session{picker: picker, lastUsed: r.now()}
	r.mu.Unlock()

	return id, picker
}

func (r *Registry) Get(id string) (*Picker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("location session %s: %w", id, domain.ErrNotFound)
	}
	s.lastUsed = r.now()

	return s.picker, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("location session %s: %w", id, domain.ErrNotFound)
	}
	delete(r.sessions, id)

	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions unused for longer than idle and reports how many went.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is done. A
// non-positive interval or idle timeout disables sweeping.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		logger.Warnf("Location session janitor disabled (interval %v, idle timeout %v)", interval, idle)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(idle); removed > 0 {
				logger.Debugf("Removed %d idle location sessions", removed)
			}
		}
	}
}
