package gateway_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/savendebyc-boop/sgo-telma/cookies"
	"github.com/savendebyc-boop/sgo-telma/gateway"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/school"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
	"github.com/stretchr/testify/require"
)

type call struct {
	creds  school.Credentials
	path   string
	params url.Values
}

type fakeFetcher struct {
	calls []call
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, creds school.Credentials, path string, params url.Values) (json.RawMessage, error) {
	f.calls = append(f.calls, call{creds: creds, path: path, params: params})
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeFetcher) last(t *testing.T) call {
	t.Helper()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func passwordSession() loginsession.Session {
	s := loginsession.NewPasswordSession(loginsession.PasswordCredentials{
		Cookies:     cookies.Jar{"NSSESSIONID": "abc"},
		BaseURL:     "https://sgo.example",
		AccessToken: "tok",
		UserID:      "7",
	})
	s.ID = "sid"
	return s
}

func federatedSession() loginsession.Session {
	s := loginsession.NewFederatedSession(loginsession.FederatedCredentials{
		AccessToken: "a",
		Profile:     loginsession.Profile{GivenName: "Ivan", FamilyName: "Petrov"},
	})
	s.ID = "fid"
	return s
}

func newService() (*gateway.Service, *fakeFetcher) {
	fetcher := &fakeFetcher{}
	now := func() time.Time { return time.Date(2025, 9, 1, 23, 30, 0, 0, time.FixedZone("MSK", 3*60*60)) }
	return gateway.NewService(fetcher, gateway.WithNowTime(now)), fetcher
}

func TestService_Routes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		call       func(s *gateway.Service) (json.RawMessage, error)
		wantPath   string
		wantParams url.Values
	}{
		{
			name:       "profile",
			call:       func(s *gateway.Service) (json.RawMessage, error) { return s.Profile(ctx, passwordSession()) },
			wantPath:   school.PathContext,
			wantParams: nil,
		},
		{
			name: "diary defaults the student",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.Diary(ctx, passwordSession(), gateway.Query{WeekStart: "2025-09-01", WeekEnd: "2025-09-07"})
			},
			wantPath:   school.PathDiary,
			wantParams: url.Values{"studentId": {"7"}, "weekStart": {"2025-09-01"}, "weekEnd": {"2025-09-07"}},
		},
		{
			name: "diary omits empty filters",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.Diary(ctx, passwordSession(), gateway.Query{StudentID: "9"})
			},
			wantPath:   school.PathDiary,
			wantParams: url.Values{"studentId": {"9"}},
		},
		{
			name: "grades default period",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.Grades(ctx, passwordSession(), gateway.Query{})
			},
			wantPath:   school.PathGrades,
			wantParams: url.Values{"studentId": {"7"}, "periodId": {"0"}},
		},
		{
			name: "grades explicit period",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.Grades(ctx, passwordSession(), gateway.Query{PeriodID: "3"})
			},
			wantPath:   school.PathGrades,
			wantParams: url.Values{"studentId": {"7"}, "periodId": {"3"}},
		},
		{
			name: "schedule defaults to today",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.Schedule(ctx, passwordSession(), gateway.Query{})
			},
			wantPath:   school.PathDiary,
			wantParams: url.Values{"studentId": {"7"}, "date": {"2025-09-01"}},
		},
		{
			name: "schedule explicit date",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.Schedule(ctx, passwordSession(), gateway.Query{Date: "2025-10-10"})
			},
			wantPath:   school.PathDiary,
			wantParams: url.Values{"studentId": {"7"}, "date": {"2025-10-10"}},
		},
		{
			name: "homework",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.Homework(ctx, passwordSession(), gateway.Query{FromDate: "2025-09-01", ToDate: "2025-09-05"})
			},
			wantPath:   school.PathAssigns,
			wantParams: url.Values{"studentId": {"7"}, "fromDate": {"2025-09-01"}, "toDate": {"2025-09-05"}},
		},
		{
			name: "total marks",
			call: func(s *gateway.Service) (json.RawMessage, error) {
				return s.TotalMarks(ctx, passwordSession(), gateway.Query{})
			},
			wantPath:   school.PathTotalMarks,
			wantParams: url.Values{"studentId": {"7"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fetcher := newService()

			data, err := tt.call(s)
			require.NoError(t, err)
			require.JSONEq(t, `{"ok":true}`, string(data))

			got := fetcher.last(t)
			require.Equal(t, tt.wantPath, got.path)
			if tt.wantParams == nil {
				require.Empty(t, got.params)
			} else {
				require.Equal(t, tt.wantParams, got.params)
			}
			require.Equal(t, school.Credentials{
				BaseURL:     "https://sgo.example",
				Cookies:     cookies.Jar{"NSSESSIONID": "abc"},
				AccessToken: "tok",
			}, got.creds)
		})
	}
}

func TestService_FederatedSessions(t *testing.T) {
	ctx := context.Background()
	s, fetcher := newService()

	profile, err := s.Profile(ctx, federatedSession())
	require.NoError(t, err)
	require.JSONEq(t, `{"givenName":"Ivan","familyName":"Petrov"}`, string(profile))

	_, err = s.Diary(ctx, federatedSession(), gateway.Query{})
	require.ErrorIs(t, err, relayerrors.ErrUnsupportedForSessionType)
	_, err = s.Grades(ctx, federatedSession(), gateway.Query{})
	require.ErrorIs(t, err, relayerrors.ErrUnsupportedForSessionType)
	_, err = s.Schedule(ctx, federatedSession(), gateway.Query{})
	require.ErrorIs(t, err, relayerrors.ErrUnsupportedForSessionType)
	_, err = s.Homework(ctx, federatedSession(), gateway.Query{})
	require.ErrorIs(t, err, relayerrors.ErrUnsupportedForSessionType)
	_, err = s.TotalMarks(ctx, federatedSession(), gateway.Query{})
	require.ErrorIs(t, err, relayerrors.ErrUnsupportedForSessionType)

	require.Empty(t, fetcher.calls)
}

func TestService_UpstreamFailure(t *testing.T) {
	s, fetcher := newService()
	fetcher.err = relayerrors.NewUpstreamError("school", 500, []byte(`{"message":"boom"}`), nil)

	_, err := s.Diary(context.Background(), passwordSession(), gateway.Query{})
	require.ErrorIs(t, err, relayerrors.ErrUpstreamUnavailable)

	var ue *relayerrors.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.JSONEq(t, `{"message":"boom"}`, string(ue.Details))
}
