package cache

import (
	"context"
	"sync"
	"time"

	"github.com/retail/backend/internal/domain/shared"
)

// DefaultSweepInterval is how often expired event IDs are swept from memory
const DefaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed event IDs in a map. State is
// per-process, so it only deduplicates within a single instance.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*InMemoryIdempotencyStore)

// WithClock overrides the time source
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		s.now = now
	}
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper.
// A non-positive sweep interval disables background sweeping.
func NewInMemoryIdempotencyStore(sweepEvery time.Duration, opts ...InMemoryOption) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if sweepEvery > 0 {
		s.wg.Add(1)
		go s.sweepLoop(sweepEvery)
	}
	return s
}

// MarkProcessed records eventID until ttl elapses. It returns false when the
// ID is already recorded and not yet expired.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expires[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[eventID] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether eventID is recorded and unexpired
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expires[eventID]
	return ok && s.now().Before(exp), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Len returns the number of stored IDs, expired ones included until swept
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

func (s *InMemoryIdempotencyStore) sweepLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, id)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
