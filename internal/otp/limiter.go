package otp

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type phoneLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// sendLimiter allows a fixed number of sends per minute for every phone.
type sendLimiter struct {
	limit rate.Limit
	now   func() time.Time

	mu     sync.Mutex
	phones map[string]*phoneLimiter
}

func newSendLimiter(perMinute int) *sendLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}

	return &sendLimiter{
		limit:  limit,
		now:    time.Now,
		phones: make(map[string]*phoneLimiter),
	}
}

// Reserve takes a send slot for phone. The returned release gives the slot
// back and is called when the dispatch fails, so a failed send never blocks
// the retry.
func (l *sendLimiter) Reserve(phone string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	for p, entry := range l.phones {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.phones, p)
		}
	}

	entry, found := l.phones[phone]
	if !found {
		entry = &phoneLimiter{limiter: rate.NewLimiter(l.limit, 1)}
		l.phones[phone] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return nil, false
	}
	if reservation.DelayFrom(now) > 0 {
		reservation.CancelAt(now)
		return nil, false
	}

	return func() { reservation.CancelAt(l.now()) }, true
}
