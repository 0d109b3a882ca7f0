package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// bearerToken extracts the session identifier from "Authorization: Bearer <id>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// frontendRedirect sends the browser back to the mini-app with a single query
// parameter appended to the configured frontend URL.
func (s *Server) frontendRedirect(w http.ResponseWriter, r *http.Request, key, value string) {
	target, err := url.Parse(s.frontendURL)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Invalid frontend URL")
		s.fail(w, r, errInternal)
		return
	}
	q := target.Query()
	q.Set(key, value)
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// fail records upstream failures and writes the error envelope.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if service := upstreamService(err); service != "" {
		s.metrics.ObserveUpstreamFailure(service)
	}
	writeError(w, r, err)
}
