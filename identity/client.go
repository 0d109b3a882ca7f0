// Package identity is the relay's client for the federated identity provider.
package identity

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/savendebyc-boop/sgo-telma/internal/config"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/pkce"
	"golang.org/x/oauth2"
)

const (
	serviceName = "identity"

	// TimestampLayout is the provider's format for the timestamp parameter.
	TimestampLayout = "2006.01.02 15:04:05 -0700"

	// DefaultSubjectClaim is the provider specific subject identifier.
	DefaultSubjectClaim = "urn:esia:sbj_id"

	DefaultTimeout = 15 * time.Second
)

// Settings describes the registered client and the provider endpoints.
type Settings struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	RedirectURL  string
	Scopes       []string
	SubjectClaim string
	Issuer       string
	JWKSURL      string // identity tokens are verified only when set
}

// SettingsFromConfig reads the identity provider settings from configuration.
func SettingsFromConfig(cfg config.OAuthConfig) Settings {
	return Settings{
		ClientID:     cfg.GetIDPClientID(),
		ClientSecret: cfg.GetIDPClientSecret(),
		AuthURL:      cfg.GetIDPAuthURL(),
		TokenURL:     cfg.GetIDPTokenURL(),
		ProfileURL:   cfg.GetIDPProfileURL(),
		RedirectURL:  cfg.GetIDPRedirectURL(),
		Scopes:       strings.Fields(cfg.GetIDPScope()),
		SubjectClaim: cfg.GetIDPSubjectClaim(),
		Issuer:       cfg.GetIDPIssuer(),
		JWKSURL:      cfg.GetIDPJWKSURL(),
	}
}

// Tokens is the result of a code exchange or a refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
}

// Client speaks OAuth2 with the identity provider.
type Client struct {
	oauth        *oauth2.Config
	clientSecret string
	profileURL   string
	subjectClaim string
	verifier     *oidc.IDTokenVerifier
	httpClient   *http.Client
}

// ClientOption configures the identity client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for every provider call.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new identity provider client.
func NewClient(settings Settings, opts ...ClientOption) (*Client, error) {
	if settings.AuthURL == "" || settings.TokenURL == "" {
		return nil, errors.New("[identity.NewClient] auth and token URLs are required")
	}

	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			RedirectURL:  settings.RedirectURL,
			Scopes:       settings.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   settings.AuthURL,
				TokenURL:  settings.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		clientSecret: settings.ClientSecret,
		profileURL:   strings.TrimSuffix(settings.ProfileURL, "/"),
		subjectClaim: settings.SubjectClaim,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
	}
	if c.subjectClaim == "" {
		c.subjectClaim = DefaultSubjectClaim
	}
	for _, opt := range opts {
		opt(c)
	}

	if settings.JWKSURL != "" {
		keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), c.httpClient), settings.JWKSURL)
		c.verifier = oidc.NewVerifier(settings.Issuer, keySet, &oidc.Config{
			ClientID:        settings.ClientID,
			SkipIssuerCheck: settings.Issuer == "",
		})
	}
	return c, nil
}

// AuthCodeURL builds the URL the end user is sent to. Besides the standard
// parameters the provider expects the client secret and a timestamp in the
// query string.
func (c *Client) AuthCodeURL(state, codeChallenge string, now time.Time) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("client_secret", c.clientSecret),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.MethodS256),
		oauth2.SetAuthURLParam("timestamp", now.Format(TimestampLayout)),
	)
}

// Exchange redeems an authorization code. The client credentials travel in the
// form body together with the PKCE verifier and the state.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier, state string) (*Tokens, error) {
	tok, err := c.oauth.Exchange(c.clientContext(ctx), code,
		oauth2.VerifierOption(codeVerifier),
		oauth2.SetAuthURLParam("state", state),
	)
	if err != nil {
		return nil, upstreamError("token exchange failed", err)
	}
	return tokensFrom(tok), nil
}

// Refresh trades a refresh token for a new token pair. A response without a
// new refresh token keeps the old one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, errors.New("[Refresh] refresh token is required")
	}
	tok, err := c.oauth.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, upstreamError("token refresh failed", err)
	}
	return tokensFrom(tok), nil
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func tokensFrom(tok *oauth2.Token) *Tokens {
	t := &Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		t.IDToken = idToken
	}
	return t
}

// upstreamError keeps the provider's status and error body when the token
// endpoint answered.
func upstreamError(msg string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return relayerrors.NewUpstreamError(serviceName, re.Response.StatusCode, re.Body, errors.Wrap(err, msg))
	}
	return relayerrors.NewUpstreamError(serviceName, 0, nil, errors.Wrap(err, msg))
}
