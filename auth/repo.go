package auth

import (
	"context"
	"time"

	"github.com/savendebyc-boop/sgo-telma/identity"
	"github.com/savendebyc-boop/sgo-telma/school"
	"github.com/savendebyc-boop/sgo-telma/server/authflowrepo"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
)

// Repos holds all repository dependencies for the AuthorizationService
type Repos struct {
	Sessions  loginsession.Repo // Established sessions
	AuthFlows authflowrepo.Repo // Identity provider logins awaiting their callback
}

// SchoolSystem is the password login upstream.
type SchoolSystem interface {
	Login(ctx context.Context, username, password, region string) (*school.LoginResult, error)
	Logout(ctx context.Context, creds school.Credentials) error
}

// IdentityProvider is the federated login upstream.
type IdentityProvider interface {
	AuthCodeURL(state, codeChallenge string, now time.Time) string
	Exchange(ctx context.Context, code, codeVerifier, state string) (*identity.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.Tokens, error)
	SubjectFromIDToken(ctx context.Context, rawIDToken string) string
	FetchProfile(ctx context.Context, accessToken, subject string) (*identity.Profile, error)
}

var (
	_ SchoolSystem     = (*school.Client)(nil)
	_ IdentityProvider = (*identity.Client)(nil)
)
