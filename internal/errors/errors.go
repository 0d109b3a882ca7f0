package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common error types for the relay
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session errors
	ErrSessionNotFound           = errors.New("session not found")
	ErrUnsupportedForSessionType = errors.New("operation not supported for this session type")

	// OAuth protocol errors
	ErrInvalidOrExpiredState = errors.New("invalid or expired state")
	ErrMissingParameters     = errors.New("missing code or state parameter")

	// Upstream errors (school system or identity provider)
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
)

// UpstreamError describes a failed call to the school system or the identity
// provider. It matches ErrUpstreamUnavailable with errors.Is.
type UpstreamError struct {
	Service string          // "school" or "identity"
	Status  int             // HTTP status, 0 when the request never completed
	Details json.RawMessage // upstream error payload when one was returned
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s upstream unavailable", e.Service)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// NewUpstreamError builds an UpstreamError. The body is kept as details when it
// is valid JSON, otherwise it is stored as a JSON string.
func NewUpstreamError(service string, status int, body []byte, err error) *UpstreamError {
	ue := &UpstreamError{Service: service, Status: status, Err: err}
	if len(body) > 0 {
		if json.Valid(body) {
			ue.Details = json.RawMessage(body)
		} else if quoted, qerr := json.Marshal(string(body)); qerr == nil {
			ue.Details = quoted
		}
	}
	return ue
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
