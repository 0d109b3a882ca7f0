package loginsession

import (
	"encoding/json"
	"time"

	"github.com/savendebyc-boop/sgo-telma/cookies"
	"github.com/savendebyc-boop/sgo-telma/school"
)

// Kind tags which credential variant a session carries.
type Kind string

const (
	KindPassword  Kind = "password"
	KindFederated Kind = "federated"
)

// Session maps an opaque identifier to the credentials needed upstream.
// Exactly one of Password or Federated is set, matching Kind.
type Session struct {
	ID        string
	Kind      Kind
	Password  *PasswordCredentials
	Federated *FederatedCredentials

	// Session management
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// PasswordCredentials is what a school system login leaves behind.
type PasswordCredentials struct {
	Cookies     cookies.Jar
	BaseURL     string
	AccessToken string
	UserID      string
	AccountInfo json.RawMessage // raw upstream profile
}

// Credentials is what the school client needs to act for the session.
func (p *PasswordCredentials) Credentials() school.Credentials {
	return school.Credentials{
		BaseURL:     p.BaseURL,
		Cookies:     p.Cookies,
		AccessToken: p.AccessToken,
	}
}

// FederatedCredentials is what an identity provider login leaves behind.
type FederatedCredentials struct {
	AccessToken  string
	RefreshToken string
	Profile      Profile
	ClientUserID string
	CreatedAt    time.Time
}

// Profile is the normalized identity provider profile.
type Profile struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	Patronymic string `json:"patronymic,omitempty"`
	BirthDate  string `json:"birthDate,omitempty"`
	NationalID string `json:"nationalId,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func NewPasswordSession(creds PasswordCredentials) Session {
	return Session{Kind: KindPassword, Password: &creds}
}

func NewFederatedSession(creds FederatedCredentials) Session {
	return Session{Kind: KindFederated, Federated: &creds}
}

// Valid reports whether the populated variant matches the kind tag.
func (s Session) Valid() bool {
	switch s.Kind {
	case KindPassword:
		return s.Password != nil && s.Federated == nil
	case KindFederated:
		return s.Federated != nil && s.Password == nil
	default:
		return false
	}
}

func (s Session) clone() Session {
	c := s
	if s.Password != nil {
		p := *s.Password
		p.Cookies = s.Password.Cookies.Clone()
		if s.Password.AccountInfo != nil {
			p.AccountInfo = append(json.RawMessage(nil), s.Password.AccountInfo...)
		}
		c.Password = &p
	}
	if s.Federated != nil {
		f := *s.Federated
		c.Federated = &f
	}
	return c
}

type Repo interface {
	// Create stores the session under a fresh identifier and returns it
	Create(session Session) (string, error)

	// Get returns a copy of the session; unknown or expired ids return
	// errors.ErrSessionNotFound
	Get(sessionID string) (Session, error)

	// Delete removes a session; deleting an unknown id is not an error
	Delete(sessionID string) error

	// UpdateTokens replaces both tokens of a federated session in place
	UpdateTokens(sessionID, accessToken, refreshToken string) error

	// DeleteExpired removes sessions past their idle or absolute lifetime
	DeleteExpired() int

	Len() int
}
