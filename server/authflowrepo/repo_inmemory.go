package authflowrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
)

// DefaultMaxAge is how long a started login stays redeemable.
const DefaultMaxAge = 10 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.Mutex
	states  map[string]*PendingAuthorization
	maxAge  time.Duration
	nowTime func() time.Time
}

// Option configures an InMemoryRepo.
type Option func(*InMemoryRepo)

// WithMaxAge sets how long entries remain redeemable.
func WithMaxAge(maxAge time.Duration) Option {
	return func(r *InMemoryRepo) {
		if maxAge > 0 {
			r.maxAge = maxAge
		}
	}
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(opts ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		states:  make(map[string]*PendingAuthorization),
		maxAge:  DefaultMaxAge,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put stores a copy of the pending authorization
func (r *InMemoryRepo) Put(state string, pending *PendingAuthorization) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if pending == nil {
		return errors.New("pending authorization cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *pending
	r.states[state] = &copied
	return nil
}

// TakeIfValid looks up and deletes state in one critical section, so a state
// can be redeemed at most once.
func (r *InMemoryRepo) TakeIfValid(state string) (*PendingAuthorization, error) {
	if state == "" {
		return nil, relayerrors.ErrInvalidOrExpiredState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending, exists := r.states[state]
	if !exists {
		return nil, relayerrors.ErrInvalidOrExpiredState
	}
	delete(r.states, state)

	if r.nowTime().Sub(pending.CreatedAt) > r.maxAge {
		return nil, relayerrors.ErrInvalidOrExpiredState
	}

	copied := *pending
	return &copied, nil
}

// SweepExpired removes every entry older than maxAge
func (r *InMemoryRepo) SweepExpired(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	removed := 0
	for state, pending := range r.states {
		if now.Sub(pending.CreatedAt) > maxAge {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}

func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Run sweeps expired entries every interval until ctx is cancelled. A
// non-positive interval disables the sweep.
func (r *InMemoryRepo) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.SweepExpired(r.maxAge)
		case <-ctx.Done():
			return
		}
	}
}
