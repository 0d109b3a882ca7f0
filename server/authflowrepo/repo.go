package authflowrepo

import (
	"time"
)

// PendingAuthorization is the server-side half of an identity provider login
// that has been started but not yet redeemed at the callback.
type PendingAuthorization struct {
	CodeVerifier string
	ClientUserID string // chat platform user that started the login, optional
	CreatedAt    time.Time
}

// Repo stores pending authorizations keyed by the OAuth state token.
type Repo interface {
	// Put stores or replaces the pending authorization for state
	Put(state string, pending *PendingAuthorization) error

	// TakeIfValid removes and returns the pending authorization for state.
	// Unknown, already redeemed or expired states return
	// errors.ErrInvalidOrExpiredState.
	TakeIfValid(state string) (*PendingAuthorization, error)

	// SweepExpired removes entries older than maxAge and returns how many went
	SweepExpired(maxAge time.Duration) int

	// Len returns the number of stored entries, expired ones included
	Len() int
}
