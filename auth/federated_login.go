package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/savendebyc-boop/sgo-telma/identity"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/pkce"
	"github.com/savendebyc-boop/sgo-telma/server/authflowrepo"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
)

// CallbackParams are the query parameters of the identity provider callback.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// BeginFederatedLogin starts an identity provider login and returns the URL
// the end user has to visit. clientUserID optionally names the chat platform
// user that asked for the login.
func (as *AuthorizationService) BeginFederatedLogin(ctx context.Context, clientUserID string) (string, error) {
	state, err := pkce.GenerateState()
	if err != nil {
		return "", errors.Wrap(err, "[BeginFederatedLogin] failed to generate state")
	}
	pair, err := pkce.Generate()
	if err != nil {
		return "", errors.Wrap(err, "[BeginFederatedLogin] failed to generate PKCE pair")
	}

	now := as.nowTime()
	if err := as.repos.AuthFlows.Put(state, &authflowrepo.PendingAuthorization{
		CodeVerifier: pair.Verifier,
		ClientUserID: clientUserID,
		CreatedAt:    now,
	}); err != nil {
		return "", errors.Wrap(err, "[BeginFederatedLogin] failed to store pending authorization")
	}

	if swept := as.repos.AuthFlows.SweepExpired(as.stateMaxAge); swept > 0 {
		log.Ctx(ctx).Debug().Int("swept", swept).Msg("Removed expired pending authorizations")
	}

	return as.idp.AuthCodeURL(state, pair.Challenge, now), nil
}

// CompleteFederatedLogin redeems the callback of a login started with
// BeginFederatedLogin and returns the identifier of the new session. Nothing
// is sent to the provider unless the callback names a pending authorization.
func (as *AuthorizationService) CompleteFederatedLogin(ctx context.Context, params CallbackParams) (string, error) {
	if params.Error != "" {
		return "", &ProviderError{Code: params.Error, Description: params.ErrorDescription}
	}
	if params.Code == "" || params.State == "" {
		return "", relayerrors.ErrMissingParameters
	}

	pending, err := as.repos.AuthFlows.TakeIfValid(params.State)
	if err != nil {
		return "", errors.Wrap(err, "[CompleteFederatedLogin] state not redeemable")
	}

	tokens, err := as.idp.Exchange(ctx, params.Code, pending.CodeVerifier, params.State)
	if err != nil {
		return "", errors.Wrap(err, "[CompleteFederatedLogin] code exchange failed")
	}

	subject := as.idp.SubjectFromIDToken(ctx, tokens.IDToken)
	profile, err := as.idp.FetchProfile(ctx, tokens.AccessToken, subject)
	if err != nil {
		return "", errors.Wrap(err, "[CompleteFederatedLogin] profile fetch failed")
	}

	sessionID, err := as.repos.Sessions.Create(loginsession.NewFederatedSession(loginsession.FederatedCredentials{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Profile:      sessionProfile(profile),
		ClientUserID: pending.ClientUserID,
		CreatedAt:    as.nowTime(),
	}))
	if err != nil {
		return "", errors.Wrap(err, "[CompleteFederatedLogin] failed to create session")
	}

	log.Ctx(ctx).Info().Bool("clientUser", pending.ClientUserID != "").Msg("Federated login succeeded")
	return sessionID, nil
}

// RefreshFederatedTokens rotates the identity provider tokens of a federated
// session. On failure the session keeps its current tokens. Concurrent
// refreshes of one session share a single upstream call, which outlives the
// request that started it.
func (as *AuthorizationService) RefreshFederatedTokens(ctx context.Context, sessionID string) error {
	if _, err := as.refreshableSession(sessionID); err != nil {
		return err
	}

	results := as.refreshes.DoChan(sessionID, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), as.refreshTimeout)
		defer cancel()
		return nil, as.refreshTokens(refreshCtx, sessionID)
	})

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "[RefreshFederatedTokens] request ended before the refresh completed")
	case res := <-results:
		if res.Err != nil {
			return errors.Wrap(res.Err, "[RefreshFederatedTokens] refresh failed")
		}
		if res.Shared {
			log.Ctx(ctx).Debug().Msg("Token refresh shared with a concurrent request")
		}
		return nil
	}
}

// refreshTokens reads the refresh token inside the shared call so a caller
// that looked the session up before a rotation never replays the old token.
func (as *AuthorizationService) refreshTokens(ctx context.Context, sessionID string) error {
	session, err := as.refreshableSession(sessionID)
	if err != nil {
		return err
	}
	tokens, err := as.idp.Refresh(ctx, session.Federated.RefreshToken)
	if err != nil {
		return err
	}
	return as.repos.Sessions.UpdateTokens(sessionID, tokens.AccessToken, tokens.RefreshToken)
}

func (as *AuthorizationService) refreshableSession(sessionID string) (loginsession.Session, error) {
	session, err := as.repos.Sessions.Get(sessionID)
	if err != nil {
		return loginsession.Session{}, err
	}
	if session.Kind != loginsession.KindFederated || session.Federated.RefreshToken == "" {
		return loginsession.Session{}, relayerrors.ErrUnsupportedForSessionType
	}
	return session, nil
}

func sessionProfile(p *identity.Profile) loginsession.Profile {
	return loginsession.Profile{
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		Patronymic: p.Patronymic,
		BirthDate:  p.BirthDate,
		NationalID: p.NationalID,
		Email:      p.Email,
		Phone:      p.Phone,
	}
}
