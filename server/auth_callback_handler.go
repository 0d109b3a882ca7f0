package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/savendebyc-boop/sgo-telma/auth"
)

const methodFederated = "federated"

// FederatedLoginHandler starts an identity provider login and returns the
// authorization URL the mini-app has to open.
func (s *Server) FederatedLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := s.auth.BeginFederatedLogin(r.Context(), r.URL.Query().Get("clientUserId"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, federatedLoginResponse{Success: true, AuthURL: authURL})
	}
}

type federatedLoginResponse struct {
	Success bool   `json:"success"`
	AuthURL string `json:"authUrl"`
}

// FederatedCallbackHandler redeems the provider redirect and sends the browser
// back to the frontend with either the new session or an error code.
func (s *Server) FederatedCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		sessionID, err := s.auth.CompleteFederatedLogin(r.Context(), auth.CallbackParams{
			Code:             query.Get("code"),
			State:            query.Get("state"),
			Error:            query.Get("error"),
			ErrorDescription: query.Get("error_description"),
		})
		if err != nil {
			code := callbackErrorCode(err)
			s.metrics.ObserveLogin(methodFederated, callbackOutcome(err))
			if service := upstreamService(err); service != "" {
				s.metrics.ObserveUpstreamFailure(service)
			}
			log.Ctx(r.Context()).Warn().Err(err).Str("code", code).Msg("Federated login failed")
			s.frontendRedirect(w, r, "error", code)
			return
		}

		s.metrics.ObserveLogin(methodFederated, outcomeSuccess)
		s.frontendRedirect(w, r, "session", sessionID)
	}
}

// RefreshHandler rotates the identity provider tokens of the current session.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			s.fail(w, r, errInternal)
			return
		}
		if err := s.auth.RefreshFederatedTokens(r.Context(), session.ID); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true})
	}
}
