package config

import "time"

const (
	idpClientIDVar      = "IDP_CLIENT_ID"
	idpClientSecretVar  = "IDP_CLIENT_SECRET"
	idpAuthURLVar       = "IDP_AUTH_URL"
	idpTokenURLVar      = "IDP_TOKEN_URL"
	idpProfileURLVar    = "IDP_PROFILE_URL"
	idpRedirectURLVar   = "IDP_REDIRECT_URL"
	idpScopeVar         = "IDP_SCOPE"
	idpSubjectClaimVar  = "IDP_SUBJECT_CLAIM"
	idpIssuerVar        = "IDP_ISSUER"
	idpJWKSURLVar       = "IDP_JWKS_URL"
	authStateTimeoutVar = "AUTH_STATE_TIMEOUT"
)

// OAuthConfig describes the identity provider the relay federates with.
type OAuthConfig interface {
	GetIDPClientID() string
	GetIDPClientSecret() string
	GetIDPAuthURL() string
	GetIDPTokenURL() string
	GetIDPProfileURL() string
	GetIDPRedirectURL() string
	GetIDPScope() string
	GetIDPSubjectClaim() string
	GetIDPIssuer() string
	GetIDPJWKSURL() string
	GetAuthStateTimeout() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetIDPClientID() string {
	return GetEnv(idpClientIDVar, "")
}

func (OAuth) GetIDPClientSecret() string {
	return GetEnv(idpClientSecretVar, "")
}

func (OAuth) GetIDPAuthURL() string {
	return GetEnv(idpAuthURLVar, "https://esia.gosuslugi.ru/aas/oauth2/ac")
}

func (OAuth) GetIDPTokenURL() string {
	return GetEnv(idpTokenURLVar, "https://esia.gosuslugi.ru/aas/oauth2/te")
}

func (OAuth) GetIDPProfileURL() string {
	return GetEnv(idpProfileURLVar, "https://esia.gosuslugi.ru/rs/prns")
}

func (OAuth) GetIDPRedirectURL() string {
	return GetEnv(idpRedirectURLVar, EnvVars{}.GetBaseURL()+"/api/auth/esia/callback")
}

func (OAuth) GetIDPScope() string {
	return GetEnv(idpScopeVar, "openid fullname birthdate snils email mobile")
}

func (OAuth) GetIDPSubjectClaim() string {
	return GetEnv(idpSubjectClaimVar, "urn:esia:sbj_id")
}

// GetIDPIssuer is only checked when the identity token is verified.
func (OAuth) GetIDPIssuer() string {
	return GetEnv(idpIssuerVar, "")
}

// GetIDPJWKSURL enables identity token signature verification when set.
func (OAuth) GetIDPJWKSURL() string {
	return GetEnv(idpJWKSURLVar, "")
}

func (OAuth) GetAuthStateTimeout() time.Duration {
	return GetEnvDuration(authStateTimeoutVar, 10*time.Minute)
}
