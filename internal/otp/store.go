package otp

import (
	"context"
	"sync"
	"time"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
)

// Store persists sessions by phone number. GetOtpSession returns nil, nil when
// nothing is stored. The attempt counter lives beside the session and is
// reported through OtpSession.Attempts; IncrementOtpAttempts must be atomic so
// parallel guesses each see a distinct count.
type Store interface {
	SaveOtpSession(ctx context.Context, session *domain.OtpSession, ttl time.Duration) error
	GetOtpSession(ctx context.Context, phone string) (*domain.OtpSession, error)
	IncrementOtpAttempts(ctx context.Context, phone string, ttl time.Duration) (int, error)
	DeleteOtpSession(ctx context.Context, phone string) error
}

type memoryEntry struct {
	session   domain.OtpSession
	attempts  int
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. It is used when Redis is unavailable.
type MemoryStore struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) SaveOtpSession(_ context.Context, session *domain.OtpSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[session.Phone] = memoryEntry{
		session:   *session,
		attempts:  session.Attempts,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// live returns the unexpired entry for phone. Callers hold s.mu.
func (s *MemoryStore) live(phone string) (memoryEntry, bool) {
	entry, ok := s.entries[phone]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, phone)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemoryStore) GetOtpSession(_ context.Context, phone string) (*domain.OtpSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(phone)
	if !ok {
		return nil, nil
	}

	session := entry.session
	session.Attempts = entry.attempts
	return &session, nil
}

// IncrementOtpAttempts bumps the counter of a stored session. Without a
// session there is nothing to guess against; the counter still reports one
// attempt so callers never treat it as free.
func (s *MemoryStore) IncrementOtpAttempts(_ context.Context, phone string, _ time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(phone)
	if !ok {
		return 1, nil
	}

	entry.attempts++
	s.entries[phone] = entry
	return entry.attempts, nil
}

func (s *MemoryStore) DeleteOtpSession(_ context.Context, phone string) error {
	s.mu.Lock()
	delete(s.entries, phone)
	s.mu.Unlock()
	return nil
}
