package identity

import (
	"bytes"
	"context"
	"encoding/json"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SubjectFromIDToken returns the subject identifier carried by an identity
// token, preferring the provider specific claim over "sub". A malformed or
// unverifiable token yields "" so the caller fails on the profile fetch.
func (c *Client) SubjectFromIDToken(ctx context.Context, rawIDToken string) string {
	if rawIDToken == "" {
		return ""
	}

	claims, err := c.idTokenClaims(ctx, rawIDToken)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read identity token claims")
		return ""
	}

	if subject := claimString(claims[c.subjectClaim]); subject != "" {
		return subject
	}
	return claimString(claims["sub"])
}

func (c *Client) idTokenClaims(ctx context.Context, rawIDToken string) (map[string]any, error) {
	if c.verifier != nil {
		idToken, err := c.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, errors.Wrap(err, "identity token verification failed")
		}
		var payload json.RawMessage
		if err := idToken.Claims(&payload); err != nil {
			return nil, errors.Wrap(err, "failed to read identity token claims")
		}
		claims := map[string]any{}
		decoder := json.NewDecoder(bytes.NewReader(payload))
		decoder.UseNumber()
		if err := decoder.Decode(&claims); err != nil {
			return nil, errors.Wrap(err, "failed to decode identity token claims")
		}
		return claims, nil
	}

	// The provider signs with algorithms the parser does not know. The claims
	// are decoded before the algorithm lookup, so that error is tolerated.
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser(jwtlib.WithJSONNumber()).ParseUnverified(rawIDToken, claims); err != nil && !errors.Is(err, jwtlib.ErrTokenUnverifiable) {
		return nil, errors.Wrap(err, "malformed identity token")
	}
	return claims, nil
}

// claimString renders string and numeric claims. Both decoding paths keep
// numbers as json.Number so large ids survive digit for digit.
func claimString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
