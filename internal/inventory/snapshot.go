package inventory

import (
	"context"
	"sync"
	"time"
)

// Snapshot memoizes the availability report across requests behind a short
// TTL. The public availability page has no caller identity to scope a
// request cache to, and hammering the store on every anonymous page load
// would be the single hottest read path in the system.
type Snapshot struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	build   func(context.Context) (*Availability, error)
	builtAt time.Time
	current *Availability
}

func NewSnapshot(ttl time.Duration, build func(context.Context) (*Availability, error)) *Snapshot {
	return &Snapshot{ttl: ttl, now: time.Now, build: build}
}

// Get returns the memoized availability, rebuilding it once the TTL lapses.
// A failed rebuild is not cached; the next caller retries.
func (s *Snapshot) Get(ctx context.Context) (*Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.now().Sub(s.builtAt) <= s.ttl {
		return s.current, nil
	}

	avail, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.current = avail
	s.builtAt = s.now()
	return avail, nil
}
