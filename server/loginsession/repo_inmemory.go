package loginsession

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
)

const (
	sessionIDBytes = 32
	maxIDAttempts  = 3

	DefaultMaxAge      = 24 * time.Hour
	DefaultIdleTimeout = 2 * time.Hour
)

// NewSessionID returns 32 random bytes, hex encoded.
func NewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// InMemoryLoginSessionRepo is an in-memory implementation of Repo
type InMemoryLoginSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session

	maxAge      time.Duration
	idleTimeout time.Duration
	nowTime     func() time.Time
	newID       func() (string, error)
}

type Option func(*InMemoryLoginSessionRepo)

// WithMaxAge sets the absolute session lifetime. Zero disables it.
func WithMaxAge(d time.Duration) Option {
	return func(r *InMemoryLoginSessionRepo) { r.maxAge = d }
}

// WithIdleTimeout sets how long a session survives without being read. Zero
// disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *InMemoryLoginSessionRepo) { r.idleTimeout = d }
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(r *InMemoryLoginSessionRepo) { r.nowTime = nowFunc }
}

// WithIDGenerator replaces the identifier generator (primarily for testing)
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *InMemoryLoginSessionRepo) { r.newID = gen }
}

// NewInMemoryLoginSessionRepo creates a new in-memory login session repository
func NewInMemoryLoginSessionRepo(opts ...Option) *InMemoryLoginSessionRepo {
	r := &InMemoryLoginSessionRepo{
		sessions:    make(map[string]Session),
		maxAge:      DefaultMaxAge,
		idleTimeout: DefaultIdleTimeout,
		nowTime:     time.Now,
		newID:       NewSessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a copy of the session under a new identifier
func (r *InMemoryLoginSessionRepo) Create(session Session) (string, error) {
	if !session.Valid() {
		return "", fmt.Errorf("session of kind %q does not carry matching credentials", session.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return "", err
		}
		if _, taken := r.sessions[id]; taken {
			continue
		}

		now := r.nowTime()
		stored := session.clone()
		stored.ID = id
		stored.CreatedAt = now
		stored.LastAccessedAt = now
		r.sessions[id] = stored
		return id, nil
	}
	return "", fmt.Errorf("could not allocate a unique session id after %d attempts", maxIDAttempts)
}

// Get returns a copy of the session and marks it as used
func (r *InMemoryLoginSessionRepo) Get(sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, relayerrors.ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, relayerrors.ErrSessionNotFound
	}

	now := r.nowTime()
	if r.expired(session, now) {
		delete(r.sessions, sessionID)
		return Session{}, relayerrors.ErrSessionNotFound
	}

	session.LastAccessedAt = now
	r.sessions[sessionID] = session
	return session.clone(), nil
}

// Delete removes a login session
func (r *InMemoryLoginSessionRepo) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// UpdateTokens rotates the tokens of a federated session. Every other field
// is left as it was.
func (r *InMemoryLoginSessionRepo) UpdateTokens(sessionID, accessToken, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok || r.expired(session, r.nowTime()) {
		return relayerrors.ErrSessionNotFound
	}
	if session.Kind != KindFederated || session.Federated == nil {
		return relayerrors.ErrUnsupportedForSessionType
	}

	fed := *session.Federated
	fed.AccessToken = accessToken
	fed.RefreshToken = refreshToken
	session.Federated = &fed
	r.sessions[sessionID] = session
	return nil
}

// DeleteExpired removes every session past its lifetime
func (r *InMemoryLoginSessionRepo) DeleteExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	removed := 0
	for id, session := range r.sessions {
		if r.expired(session, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *InMemoryLoginSessionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run removes expired sessions every interval until ctx is cancelled. A
// non-positive interval disables the sweep.
func (r *InMemoryLoginSessionRepo) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.DeleteExpired()
		case <-ctx.Done():
			return
		}
	}
}

func (r *InMemoryLoginSessionRepo) expired(s Session, now time.Time) bool {
	if r.maxAge > 0 && now.Sub(s.CreatedAt) > r.maxAge {
		return true
	}
	if r.idleTimeout > 0 && now.Sub(s.LastAccessedAt) > r.idleTimeout {
		return true
	}
	return false
}
