package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/server/authflowrepo"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a token refresh that no longer follows the
// request that started it.
const DefaultRefreshTimeout = 30 * time.Second

// AuthorizationService runs the password and identity provider logins and
// owns the lifecycle of the sessions they create.
type AuthorizationService struct {
	repos       Repos            // All repository dependencies
	school      SchoolSystem     // Password login upstream
	idp         IdentityProvider // Federated login upstream
	nowTime     func() time.Time // nowTime function (injectable for testing)
	stateMaxAge time.Duration    // How long a started federated login may wait for its callback
	refreshes   singleflight.Group

	refreshTimeout time.Duration // Bounds a shared token refresh once detached from its request
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithStateMaxAge sets the age after which pending authorizations are swept
func WithStateMaxAge(maxAge time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if maxAge > 0 {
			as.stateMaxAge = maxAge
		}
	}
}

// WithRefreshTimeout bounds a token refresh call to the identity provider
func WithRefreshTimeout(timeout time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if timeout > 0 {
			as.refreshTimeout = timeout
		}
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(
	repos Repos,
	schoolSystem SchoolSystem,
	idp IdentityProvider,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthorizationService] Sessions repo is required")
	}
	if repos.AuthFlows == nil {
		return nil, errors.New("[NewAuthorizationService] AuthFlows repo is required")
	}
	if schoolSystem == nil {
		return nil, errors.New("[NewAuthorizationService] school system is required")
	}
	if idp == nil {
		return nil, errors.New("[NewAuthorizationService] identity provider is required")
	}

	authService := &AuthorizationService{
		repos:       repos,
		school:      schoolSystem,
		idp:         idp,
		nowTime:     time.Now,
		stateMaxAge: authflowrepo.DefaultMaxAge,

		refreshTimeout: DefaultRefreshTimeout,
	}

	for _, opt := range options {
		opt(authService)
	}

	return authService, nil
}

// PasswordLoginResult is returned to the client after a password login.
type PasswordLoginResult struct {
	SessionID   string
	AccountInfo json.RawMessage
}

// PasswordLogin authenticates against the school system of the given region
// and stores the resulting upstream credentials in a new session.
func (as *AuthorizationService) PasswordLogin(ctx context.Context, username, password, region string) (*PasswordLoginResult, error) {
	result, err := as.school.Login(ctx, username, password, region)
	if err != nil {
		return nil, errors.Wrap(err, "[PasswordLogin] school system login failed")
	}

	sessionID, err := as.repos.Sessions.Create(loginsession.NewPasswordSession(loginsession.PasswordCredentials{
		Cookies:     result.Cookies,
		BaseURL:     result.BaseURL,
		AccessToken: result.AccessToken,
		UserID:      result.UserID,
		AccountInfo: result.AccountInfo,
	}))
	if err != nil {
		return nil, errors.Wrap(err, "[PasswordLogin] failed to create session")
	}

	log.Ctx(ctx).Info().Str("baseUrl", result.BaseURL).Msg("Password login succeeded")
	return &PasswordLoginResult{SessionID: sessionID, AccountInfo: result.AccountInfo}, nil
}

// Session resolves a session identifier.
func (as *AuthorizationService) Session(sessionID string) (loginsession.Session, error) {
	return as.repos.Sessions.Get(sessionID)
}

// Logout ends the session. Password sessions are logged out upstream first;
// an upstream failure is logged and does not keep the session alive. Unknown
// sessions are already logged out.
func (as *AuthorizationService) Logout(ctx context.Context, sessionID string) error {
	session, err := as.repos.Sessions.Get(sessionID)
	if errors.Is(err, relayerrors.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[Logout] failed to load session")
	}

	if session.Kind == loginsession.KindPassword {
		if err := as.school.Logout(ctx, session.Password.Credentials()); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Upstream logout failed")
		}
	}

	if err := as.repos.Sessions.Delete(sessionID); err != nil {
		return errors.Wrap(err, "[Logout] failed to delete session")
	}
	return nil
}
