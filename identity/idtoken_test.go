package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/savendebyc-boop/sgo-telma/identity"
	"github.com/stretchr/testify/require"
)

func unsignedToken(t *testing.T, header, claims map[string]any) string {
	t.Helper()
	h, err := json.Marshal(header)
	require.NoError(t, err)
	c, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(h) + "." + base64.RawURLEncoding.EncodeToString(c) + ".c2lnbmF0dXJl"
}

func TestClient_SubjectFromIDToken_Unverified(t *testing.T) {
	_, client := newProviderClient(t)
	ctx := context.Background()

	hs256 := func(claims jwtlib.MapClaims) string {
		signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("any-key"))
		require.NoError(t, err)
		return signed
	}

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{
			name:  "provider claim preferred over sub",
			token: hs256(jwtlib.MapClaims{"urn:esia:sbj_id": "1000299654", "sub": "other"}),
			want:  "1000299654",
		},
		{
			name:  "numeric provider claim has no exponent",
			token: hs256(jwtlib.MapClaims{"urn:esia:sbj_id": 1000299654}),
			want:  "1000299654",
		},
		{
			name:  "falls back to sub",
			token: hs256(jwtlib.MapClaims{"sub": "user-42"}),
			want:  "user-42",
		},
		{
			name: "unknown signing algorithm still yields claims",
			token: unsignedToken(t,
				map[string]any{"alg": "GOST3410_2012_256", "typ": "JWT"},
				map[string]any{"urn:esia:sbj_id": int64(12345678901234567)}),
			want: "12345678901234567",
		},
		{
			name:  "no subject claims",
			token: hs256(jwtlib.MapClaims{"iss": "provider"}),
			want:  "",
		},
		{
			name:  "not a token",
			token: "not-a-token",
			want:  "",
		},
		{
			name:  "payload is not JSON",
			token: "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.c2ln",
			want:  "",
		},
		{
			name:  "header is not JSON",
			token: "bm90LWpzb24.eyJzdWIiOiJ4In0.c2ln",
			want:  "",
		},
		{
			name:  "empty",
			token: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, client.SubjectFromIDToken(ctx, tt.token))
		})
	}
}

func TestClient_SubjectFromIDToken_CustomClaim(t *testing.T) {
	_, client := newProviderClient(t, func(s *identity.Settings) {
		s.SubjectClaim = "oid"
	})
	token := unsignedToken(t, map[string]any{"alg": "none"}, map[string]any{"oid": "abc", "urn:esia:sbj_id": "ignored"})

	require.Equal(t, "abc", client.SubjectFromIDToken(context.Background(), token))
}

func TestClient_SubjectFromIDToken_Verified(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{
				"kty": "RSA",
				"kid": "k1",
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(jwks.Close)

	_, client := newProviderClient(t, func(s *identity.Settings) {
		s.Issuer = "https://provider.example/"
		s.JWKSURL = jwks.URL
	})

	sign := func(k *rsa.PrivateKey, claims jwtlib.MapClaims) string {
		token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
		token.Header["kid"] = "k1"
		signed, err := token.SignedString(k)
		require.NoError(t, err)
		return signed
	}
	claims := func() jwtlib.MapClaims {
		return jwtlib.MapClaims{
			"iss":             "https://provider.example/",
			"aud":             testClientID,
			"exp":             time.Now().Add(time.Hour).Unix(),
			"iat":             time.Now().Unix(),
			"sub":             "fallback",
			"urn:esia:sbj_id": 1000299654,
		}
	}
	ctx := context.Background()

	t.Run("valid signature", func(t *testing.T) {
		require.Equal(t, "1000299654", client.SubjectFromIDToken(ctx, sign(key, claims())))
	})

	t.Run("numeric subject beyond float64 precision", func(t *testing.T) {
		c := claims()
		c["urn:esia:sbj_id"] = json.Number("12345678901234567891")
		require.Equal(t, "12345678901234567891", client.SubjectFromIDToken(ctx, sign(key, c)))
	})

	t.Run("foreign key", func(t *testing.T) {
		require.Empty(t, client.SubjectFromIDToken(ctx, sign(otherKey, claims())))
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := claims()
		c["aud"] = "someone-else"
		require.Empty(t, client.SubjectFromIDToken(ctx, sign(key, c)))
	})

	t.Run("expired", func(t *testing.T) {
		c := claims()
		c["exp"] = time.Now().Add(-time.Hour).Unix()
		require.Empty(t, client.SubjectFromIDToken(ctx, sign(key, c)))
	})
}
