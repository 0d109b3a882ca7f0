package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/savendebyc-boop/sgo-telma/gateway"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
)

const (
	methodPassword = "password"

	maxLoginBodyBytes = 64 << 10
)

type passwordLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Region   string `json:"region"`
}

type passwordLoginResponse struct {
	Success   bool            `json:"success"`
	SessionID string          `json:"sessionId"`
	User      json.RawMessage `json:"user"`
}

// PasswordLoginHandler logs in with school system credentials.
func (s *Server) PasswordLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordLoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)).Decode(&req); err != nil {
			s.fail(w, r, errors.Wrap(relayerrors.ErrInvalidRequest, err.Error()))
			return
		}

		result, err := s.auth.PasswordLogin(r.Context(), req.Username, req.Password, req.Region)
		s.metrics.ObserveLogin(methodPassword, loginOutcome(err))
		if err != nil {
			s.fail(w, r, err)
			return
		}

		user := result.AccountInfo
		if len(user) == 0 {
			user = json.RawMessage("null")
		}
		writeJSON(w, http.StatusOK, passwordLoginResponse{
			Success:   true,
			SessionID: result.SessionID,
			User:      user,
		})
	}
}

// LogoutHandler ends the bearer session. Logging out an unknown session
// succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID := bearerToken(r); sessionID != "" {
			if err := s.auth.Logout(r.Context(), sessionID); err != nil {
				s.fail(w, r, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true})
	}
}

type healthResponse struct {
	Status                string `json:"status"`
	Sessions              int    `json:"sessions"`
	PendingAuthorizations int    `json:"pendingAuthorizations"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:                "ok",
			Sessions:              s.repos.Sessions.Len(),
			PendingAuthorizations: s.repos.AuthFlows.Len(),
		})
	}
}

func (s *Server) UserHandler() http.HandlerFunc {
	return s.sessionDataHandler(func(ctx context.Context, session loginsession.Session, _ gateway.Query) (json.RawMessage, error) {
		return s.gateway.Profile(ctx, session)
	})
}

func (s *Server) DiaryHandler() http.HandlerFunc {
	return s.sessionDataHandler(s.gateway.Diary)
}

func (s *Server) GradesHandler() http.HandlerFunc {
	return s.sessionDataHandler(s.gateway.Grades)
}

func (s *Server) ScheduleHandler() http.HandlerFunc {
	return s.sessionDataHandler(s.gateway.Schedule)
}

func (s *Server) HomeworkHandler() http.HandlerFunc {
	return s.sessionDataHandler(s.gateway.Homework)
}

func (s *Server) TotalMarksHandler() http.HandlerFunc {
	return s.sessionDataHandler(s.gateway.TotalMarks)
}

type dataFunc func(ctx context.Context, session loginsession.Session, q gateway.Query) (json.RawMessage, error)

// sessionDataHandler relays one upstream read for the session injected by
// RequireSession. The upstream document is returned as is.
func (s *Server) sessionDataHandler(fetch dataFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			s.fail(w, r, errInternal)
			return
		}

		data, err := fetch(r.Context(), session, queryFrom(r))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeRaw(w, http.StatusOK, data)
	}
}

func queryFrom(r *http.Request) gateway.Query {
	q := r.URL.Query()
	return gateway.Query{
		StudentID: q.Get("studentId"),
		WeekStart: q.Get("weekStart"),
		WeekEnd:   q.Get("weekEnd"),
		PeriodID:  q.Get("periodId"),
		Date:      q.Get("date"),
		FromDate:  q.Get("fromDate"),
		ToDate:    q.Get("toDate"),
	}
}
