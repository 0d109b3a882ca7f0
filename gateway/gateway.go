// Package gateway forwards session scoped read requests to the school system.
package gateway

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/pkg/errors"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/school"
	"github.com/savendebyc-boop/sgo-telma/server/loginsession"
)

// DateLayout is the upstream's calendar date format.
const DateLayout = "2006-01-02"

// Fetcher performs an authenticated GET against the school system.
type Fetcher interface {
	Fetch(ctx context.Context, creds school.Credentials, path string, params url.Values) (json.RawMessage, error)
}

var _ Fetcher = (*school.Client)(nil)

// Query holds the optional filters of the read routes. Empty fields are not
// forwarded unless the route has a default for them.
type Query struct {
	StudentID string
	WeekStart string
	WeekEnd   string
	PeriodID  string
	Date      string
	FromDate  string
	ToDate    string
}

// Service maps relay resources onto upstream resources.
type Service struct {
	school  Fetcher
	nowTime func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the clock used for the schedule's default date
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(fetcher Fetcher, opts ...ServiceOption) *Service {
	s := &Service{
		school:  fetcher,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile returns the current user. Federated sessions have no school system
// account, so their locally held identity profile is returned instead.
func (s *Service) Profile(ctx context.Context, session loginsession.Session) (json.RawMessage, error) {
	if session.Kind == loginsession.KindFederated && session.Federated != nil {
		data, err := json.Marshal(session.Federated.Profile)
		if err != nil {
			return nil, errors.Wrap(err, "[Profile] failed to encode profile")
		}
		return data, nil
	}
	return s.fetch(ctx, session, school.PathContext, nil)
}

func (s *Service) Diary(ctx context.Context, session loginsession.Session, q Query) (json.RawMessage, error) {
	params := url.Values{}
	setIfPresent(params, "weekStart", q.WeekStart)
	setIfPresent(params, "weekEnd", q.WeekEnd)
	return s.forStudent(ctx, session, school.PathDiary, q.StudentID, params)
}

// Grades defaults to period 0, the current period upstream.
func (s *Service) Grades(ctx context.Context, session loginsession.Session, q Query) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("periodId", orDefault(q.PeriodID, "0"))
	return s.forStudent(ctx, session, school.PathGrades, q.StudentID, params)
}

// Schedule is the diary of a single day, today (UTC) unless a date is given.
func (s *Service) Schedule(ctx context.Context, session loginsession.Session, q Query) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("date", orDefault(q.Date, s.nowTime().UTC().Format(DateLayout)))
	return s.forStudent(ctx, session, school.PathDiary, q.StudentID, params)
}

func (s *Service) Homework(ctx context.Context, session loginsession.Session, q Query) (json.RawMessage, error) {
	params := url.Values{}
	setIfPresent(params, "fromDate", q.FromDate)
	setIfPresent(params, "toDate", q.ToDate)
	return s.forStudent(ctx, session, school.PathAssigns, q.StudentID, params)
}

func (s *Service) TotalMarks(ctx context.Context, session loginsession.Session, q Query) (json.RawMessage, error) {
	return s.forStudent(ctx, session, school.PathTotalMarks, q.StudentID, url.Values{})
}

// forStudent defaults the student to the logged in user.
func (s *Service) forStudent(ctx context.Context, session loginsession.Session, path, studentID string, params url.Values) (json.RawMessage, error) {
	if studentID == "" && session.Password != nil {
		studentID = session.Password.UserID
	}
	setIfPresent(params, "studentId", studentID)
	return s.fetch(ctx, session, path, params)
}

func (s *Service) fetch(ctx context.Context, session loginsession.Session, path string, params url.Values) (json.RawMessage, error) {
	if session.Kind != loginsession.KindPassword || session.Password == nil {
		return nil, relayerrors.ErrUnsupportedForSessionType
	}
	data, err := s.school.Fetch(ctx, session.Password.Credentials(), path, params)
	if err != nil {
		return nil, errors.Wrapf(err, "[gateway] GET %s failed", path)
	}
	return data, nil
}

func setIfPresent(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
