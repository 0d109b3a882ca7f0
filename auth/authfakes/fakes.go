// Package authfakes provides in-memory stand-ins for the upstreams of the
// auth package.
package authfakes

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/savendebyc-boop/sgo-telma/auth"
	"github.com/savendebyc-boop/sgo-telma/cookies"
	"github.com/savendebyc-boop/sgo-telma/identity"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/school"
)

var (
	_ auth.SchoolSystem     = (*FakeSchoolSystem)(nil)
	_ auth.IdentityProvider = (*FakeIdentityProvider)(nil)
)

// FakeSchoolSystem accepts a single username/password pair.
type FakeSchoolSystem struct {
	Username    string
	Password    string
	UserID      string
	BaseURL     string
	LogoutErr   error
	LoginErr    error
	lock        sync.Mutex
	logouts     []school.Credentials
	loginCalled int
}

func NewFakeSchoolSystem(username, password string) *FakeSchoolSystem {
	return &FakeSchoolSystem{
		Username: username,
		Password: password,
		UserID:   "7",
		BaseURL:  "https://school.example",
	}
}

func (f *FakeSchoolSystem) Login(_ context.Context, username, password, region string) (*school.LoginResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.loginCalled++

	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	if username != f.Username || password != f.Password {
		return nil, relayerrors.ErrInvalidCredentials
	}
	info, _ := json.Marshal(map[string]any{"user": map[string]any{"id": json.Number(f.UserID), "name": username}})
	return &school.LoginResult{
		Credentials: school.Credentials{
			BaseURL:     f.BaseURL,
			Cookies:     cookies.Jar{"NSSESSIONID": "fake"},
			AccessToken: "at-" + username,
		},
		UserID:      f.UserID,
		AccountInfo: info,
	}, nil
}

func (f *FakeSchoolSystem) Logout(_ context.Context, creds school.Credentials) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logouts = append(f.logouts, creds)
	return f.LogoutErr
}

// Logouts returns the credentials of every upstream logout so far.
func (f *FakeSchoolSystem) Logouts() []school.Credentials {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]school.Credentials(nil), f.logouts...)
}

// FakeIdentityProvider issues tokens for the codes it was told about.
type FakeIdentityProvider struct {
	Subject    string
	Profile    identity.Profile
	ExchangeFn func(code, codeVerifier, state string) (*identity.Tokens, error)
	RefreshFn  func(ctx context.Context, refreshToken string) (*identity.Tokens, error)
	ProfileErr error

	lock          sync.Mutex
	exchangeCalls int
	refreshCalls  int
	refreshTokens []string
	lastVerifier  string
}

func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{
		Subject: "1000299654",
		Profile: identity.Profile{
			GivenName:  "Ivan",
			FamilyName: "Petrov",
			Patronymic: "Sergeevich",
			BirthDate:  "01.02.2010",
			NationalID: "000-000-600 06",
		},
	}
}

func (f *FakeIdentityProvider) AuthCodeURL(state, codeChallenge string, now time.Time) string {
	return "https://idp.example/ac?state=" + state + "&code_challenge=" + codeChallenge
}

func (f *FakeIdentityProvider) Exchange(_ context.Context, code, codeVerifier, state string) (*identity.Tokens, error) {
	f.lock.Lock()
	f.exchangeCalls++
	f.lastVerifier = codeVerifier
	fn := f.ExchangeFn
	f.lock.Unlock()

	if fn != nil {
		return fn(code, codeVerifier, state)
	}
	return &identity.Tokens{
		AccessToken:  "idp-access",
		RefreshToken: "idp-refresh",
		IDToken:      "id-token",
	}, nil
}

func (f *FakeIdentityProvider) Refresh(ctx context.Context, refreshToken string) (*identity.Tokens, error) {
	f.lock.Lock()
	f.refreshCalls++
	f.refreshTokens = append(f.refreshTokens, refreshToken)
	fn := f.RefreshFn
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx, refreshToken)
	}
	return &identity.Tokens{AccessToken: "idp-access-2", RefreshToken: "idp-refresh-2"}, nil
}

func (f *FakeIdentityProvider) SubjectFromIDToken(_ context.Context, rawIDToken string) string {
	if rawIDToken == "" {
		return ""
	}
	return f.Subject
}

func (f *FakeIdentityProvider) FetchProfile(_ context.Context, accessToken, subject string) (*identity.Profile, error) {
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	if subject == "" {
		return nil, relayerrors.NewUpstreamError("identity", 0, nil, nil)
	}
	p := f.Profile
	return &p, nil
}

func (f *FakeIdentityProvider) ExchangeCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.exchangeCalls
}

func (f *FakeIdentityProvider) RefreshCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshCalls
}

// RefreshTokens returns the refresh token sent by every refresh so far.
func (f *FakeIdentityProvider) RefreshTokens() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.refreshTokens...)
}

// LastVerifier is the PKCE verifier of the most recent exchange.
func (f *FakeIdentityProvider) LastVerifier() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.lastVerifier
}

func (f *FakeSchoolSystem) LoginCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.loginCalled
}
