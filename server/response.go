package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/savendebyc-boop/sgo-telma/auth"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
)

var errInternal = errors.New("internal error")

// APIResponse is the envelope of every non data response.
type APIResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

// writeRaw relays an upstream JSON document unchanged.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message, details := errorResponse(err)

	event := log.Ctx(r.Context()).Debug()
	if status >= http.StatusInternalServerError {
		event = log.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("Request failed")

	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// errorResponse maps an error chain onto a status and a client facing
// message. Wrapped context stays in the logs.
func errorResponse(err error) (int, string, json.RawMessage) {
	var upstream *relayerrors.UpstreamError
	var provider *auth.ProviderError

	switch {
	case relayerrors.As(err, &upstream):
		return http.StatusInternalServerError, relayerrors.ErrUpstreamUnavailable.Error(), upstream.Details
	case relayerrors.As(err, &provider):
		return http.StatusBadRequest, provider.Error(), nil
	case relayerrors.Is(err, relayerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, relayerrors.ErrInvalidCredentials.Error(), nil
	case relayerrors.Is(err, relayerrors.ErrSessionNotFound):
		return http.StatusUnauthorized, relayerrors.ErrSessionNotFound.Error(), nil
	case relayerrors.Is(err, relayerrors.ErrUnsupportedForSessionType):
		return http.StatusBadRequest, relayerrors.ErrUnsupportedForSessionType.Error(), nil
	case relayerrors.Is(err, relayerrors.ErrMissingParameters):
		return http.StatusBadRequest, relayerrors.ErrMissingParameters.Error(), nil
	case relayerrors.Is(err, relayerrors.ErrInvalidOrExpiredState):
		return http.StatusBadRequest, relayerrors.ErrInvalidOrExpiredState.Error(), nil
	case relayerrors.Is(err, relayerrors.ErrInvalidRequest):
		return http.StatusBadRequest, relayerrors.ErrInvalidRequest.Error(), nil
	case relayerrors.Is(err, relayerrors.ErrUpstreamUnavailable):
		return http.StatusInternalServerError, relayerrors.ErrUpstreamUnavailable.Error(), nil
	default:
		return http.StatusInternalServerError, errInternal.Error(), nil
	}
}

// callbackErrorCode is the error query parameter of a failed identity
// provider callback.
func callbackErrorCode(err error) string {
	var provider *auth.ProviderError
	switch {
	case relayerrors.As(err, &provider):
		return provider.Code
	case relayerrors.Is(err, relayerrors.ErrMissingParameters):
		return "missing_parameters"
	case relayerrors.Is(err, relayerrors.ErrInvalidOrExpiredState):
		return "invalid_state"
	default:
		return "upstream_unavailable"
	}
}

// upstreamService names the upstream behind a failure, "" for local errors.
func upstreamService(err error) string {
	var upstream *relayerrors.UpstreamError
	if relayerrors.As(err, &upstream) {
		return upstream.Service
	}
	return ""
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case relayerrors.Is(err, relayerrors.ErrInvalidCredentials):
		return outcomeInvalidCredentials
	case relayerrors.Is(err, relayerrors.ErrUpstreamUnavailable):
		return outcomeUpstreamFailure
	default:
		return outcomeError
	}
}

func callbackOutcome(err error) string {
	var provider *auth.ProviderError
	switch {
	case relayerrors.As(err, &provider),
		relayerrors.Is(err, relayerrors.ErrMissingParameters),
		relayerrors.Is(err, relayerrors.ErrInvalidOrExpiredState):
		return outcomeRejected
	default:
		return loginOutcome(err)
	}
}
