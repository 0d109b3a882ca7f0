package server

import (
	"context"
	"net/http"

	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the resolved session
	ContextKeySession ContextKey = "session"
)

// RequireSession resolves the bearer session identifier and injects the
// session into the request context. Missing, unknown and expired sessions are
// all answered with 401.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID := bearerToken(r)
			if sessionID == "" {
				s.fail(w, r, relayerrors.ErrSessionNotFound)
				return
			}

			session, err := s.auth.Session(sessionID)
			if err != nil {
				s.fail(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// sessionFromContext returns the session injected by RequireSession.
func sessionFromContext(ctx context.Context) (loginsession.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(loginsession.Session)
	return session, ok
}
