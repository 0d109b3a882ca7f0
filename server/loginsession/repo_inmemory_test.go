package loginsession_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/savendebyc-boop/sgo-telma/cookies"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
	"github.com/stretchr/testify/require"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newRepo(t *testing.T, opts ...loginsession.Option) (*loginsession.InMemoryLoginSessionRepo, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
	opts = append([]loginsession.Option{loginsession.WithNowTime(clock.Now)}, opts...)
	return loginsession.NewInMemoryLoginSessionRepo(opts...), clock
}

func passwordSession() loginsession.Session {
	return loginsession.NewPasswordSession(loginsession.PasswordCredentials{
		Cookies:     cookies.Jar{"NSSESSIONID": "abc"},
		BaseURL:     "https://sgo.example",
		AccessToken: "token123",
		UserID:      "7",
		AccountInfo: json.RawMessage(`{"user":{"id":7}}`),
	})
}

func federatedSession() loginsession.Session {
	return loginsession.NewFederatedSession(loginsession.FederatedCredentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Profile:      loginsession.Profile{GivenName: "Ivan", FamilyName: "Petrov", NationalID: "123-456-789 00"},
		ClientUserID: "555",
		CreatedAt:    time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
	})
}

func TestNewSessionID(t *testing.T) {
	id, err := loginsession.NewSessionID()
	require.NoError(t, err)
	require.Len(t, id, 64)

	other, err := loginsession.NewSessionID()
	require.NoError(t, err)
	require.NotEqual(t, id, other)
}

func TestInMemoryLoginSessionRepo_Create(t *testing.T) {
	t.Run("returns an id the session can be read back with", func(t *testing.T) {
		repo, clock := newRepo(t)
		id, err := repo.Create(passwordSession())
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := repo.Get(id)
		require.NoError(t, err)
		require.Equal(t, id, got.ID)
		require.Equal(t, loginsession.KindPassword, got.Kind)
		require.Equal(t, "token123", got.Password.AccessToken)
		require.Equal(t, clock.Now(), got.CreatedAt)
	})

	t.Run("rejects a session whose variant does not match its kind", func(t *testing.T) {
		repo, _ := newRepo(t)
		bad := passwordSession()
		bad.Kind = loginsession.KindFederated
		_, err := repo.Create(bad)
		require.Error(t, err)

		both := passwordSession()
		both.Federated = &loginsession.FederatedCredentials{}
		_, err = repo.Create(both)
		require.Error(t, err)
	})

	t.Run("retries on collision", func(t *testing.T) {
		ids := []string{"dup", "dup", "fresh"}
		repo, _ := newRepo(t, loginsession.WithIDGenerator(func() (string, error) {
			id := ids[0]
			ids = ids[1:]
			return id, nil
		}))

		first, err := repo.Create(passwordSession())
		require.NoError(t, err)
		require.Equal(t, "dup", first)

		second, err := repo.Create(passwordSession())
		require.NoError(t, err)
		require.Equal(t, "fresh", second)
	})

	t.Run("generator failure is returned", func(t *testing.T) {
		repo, _ := newRepo(t, loginsession.WithIDGenerator(func() (string, error) {
			return "", errors.New("no entropy")
		}))
		_, err := repo.Create(passwordSession())
		require.Error(t, err)
	})
}

func TestInMemoryLoginSessionRepo_Get(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		repo, _ := newRepo(t)
		_, err := repo.Get("missing")
		require.ErrorIs(t, err, relayerrors.ErrSessionNotFound)
		_, err = repo.Get("")
		require.ErrorIs(t, err, relayerrors.ErrSessionNotFound)
	})

	t.Run("returns a copy", func(t *testing.T) {
		repo, _ := newRepo(t)
		id, err := repo.Create(passwordSession())
		require.NoError(t, err)

		got, err := repo.Get(id)
		require.NoError(t, err)
		got.Password.Cookies["NSSESSIONID"] = "tampered"
		got.Password.AccessToken = "tampered"

		again, err := repo.Get(id)
		require.NoError(t, err)
		require.Equal(t, "abc", again.Password.Cookies["NSSESSIONID"])
		require.Equal(t, "token123", again.Password.AccessToken)
	})

	t.Run("idle timeout", func(t *testing.T) {
		repo, clock := newRepo(t, loginsession.WithIdleTimeout(time.Hour))
		id, err := repo.Create(passwordSession())
		require.NoError(t, err)

		clock.now = clock.now.Add(50 * time.Minute)
		_, err = repo.Get(id)
		require.NoError(t, err)

		// reading refreshed the idle timer
		clock.now = clock.now.Add(50 * time.Minute)
		_, err = repo.Get(id)
		require.NoError(t, err)

		clock.now = clock.now.Add(61 * time.Minute)
		_, err = repo.Get(id)
		require.ErrorIs(t, err, relayerrors.ErrSessionNotFound)
		require.Zero(t, repo.Len())
	})

	t.Run("absolute lifetime", func(t *testing.T) {
		repo, clock := newRepo(t, loginsession.WithMaxAge(3*time.Hour), loginsession.WithIdleTimeout(time.Hour))
		id, err := repo.Create(passwordSession())
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			clock.now = clock.now.Add(55 * time.Minute)
			_, err = repo.Get(id)
			require.NoError(t, err)
		}
		clock.now = clock.now.Add(20 * time.Minute)
		_, err = repo.Get(id)
		require.ErrorIs(t, err, relayerrors.ErrSessionNotFound)
	})
}

func TestInMemoryLoginSessionRepo_Delete(t *testing.T) {
	repo, _ := newRepo(t)
	id, err := repo.Create(passwordSession())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(id))
	_, err = repo.Get(id)
	require.ErrorIs(t, err, relayerrors.ErrSessionNotFound)

	require.NoError(t, repo.Delete(id))
}

func TestInMemoryLoginSessionRepo_UpdateTokens(t *testing.T) {
	t.Run("updates both tokens and nothing else", func(t *testing.T) {
		repo, _ := newRepo(t)
		id, err := repo.Create(federatedSession())
		require.NoError(t, err)
		before, err := repo.Get(id)
		require.NoError(t, err)

		require.NoError(t, repo.UpdateTokens(id, "access-2", "refresh-2"))

		after, err := repo.Get(id)
		require.NoError(t, err)
		require.Equal(t, "access-2", after.Federated.AccessToken)
		require.Equal(t, "refresh-2", after.Federated.RefreshToken)
		require.Equal(t, before.Federated.Profile, after.Federated.Profile)
		require.Equal(t, before.Federated.ClientUserID, after.Federated.ClientUserID)
		require.Equal(t, before.Federated.CreatedAt, after.Federated.CreatedAt)
		require.Equal(t, before.CreatedAt, after.CreatedAt)
	})

	t.Run("unknown session", func(t *testing.T) {
		repo, _ := newRepo(t)
		require.ErrorIs(t, repo.UpdateTokens("missing", "a", "r"), relayerrors.ErrSessionNotFound)
	})

	t.Run("password session", func(t *testing.T) {
		repo, _ := newRepo(t)
		id, err := repo.Create(passwordSession())
		require.NoError(t, err)
		require.ErrorIs(t, repo.UpdateTokens(id, "a", "r"), relayerrors.ErrUnsupportedForSessionType)
	})
}

func TestInMemoryLoginSessionRepo_DeleteExpired(t *testing.T) {
	repo, clock := newRepo(t, loginsession.WithIdleTimeout(time.Hour), loginsession.WithMaxAge(0))
	stale, err := repo.Create(passwordSession())
	require.NoError(t, err)
	clock.now = clock.now.Add(45 * time.Minute)
	fresh, err := repo.Create(federatedSession())
	require.NoError(t, err)
	clock.now = clock.now.Add(30 * time.Minute)

	require.Equal(t, 1, repo.DeleteExpired())
	require.Equal(t, 1, repo.Len())

	_, err = repo.Get(stale)
	require.ErrorIs(t, err, relayerrors.ErrSessionNotFound)
	_, err = repo.Get(fresh)
	require.NoError(t, err)
}

func TestInMemoryLoginSessionRepo_Run_NonPositiveInterval(t *testing.T) {
	repo, _ := newRepo(t)

	require.NotPanics(t, func() { repo.Run(context.Background(), 0) })
}
