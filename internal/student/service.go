// Package student serves a student's participation list, the actions on it and
// the skill progress derived from it.
package student

import (
	"context"
	"errors"
	"log"
	"time"

	"backend-skillpath/internal/action"
	"backend-skillpath/internal/attendance"
	"backend-skillpath/internal/events"
	"backend-skillpath/internal/lifecycle"
	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/skills"
)

var (
	ErrActivityNotFound = errors.New("activity not found for student")
	ErrSkillNotFound    = errors.New("skill not in the student's catalog")
	ErrInvalidInput     = errors.New("invalid input")
)

type Service struct {
	source         records.Source
	confirmer      *attendance.Confirmer
	dispatcher     *action.Dispatcher
	aggregator     *skills.Aggregator
	publisher      events.Publisher
	now            func() time.Time
	loc            *time.Location
	academicYearBE int
	logger         *log.Logger
	onSkip         func(reason string)
	onAction       func(kind, result string)
	onQuiz         func(passed bool)
}

type Option func(*Service)

func WithConfirmer(c *attendance.Confirmer) Option {
	return func(s *Service) {
		s.confirmer = c
	}
}

func WithAggregator(a *skills.Aggregator) Option {
	return func(s *Service) {
		s.aggregator = a
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the zone used to display activity times.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithAcademicYear(be int) Option {
	return func(s *Service) {
		s.academicYearBE = be
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSkipHook is called for every record listed despite inconsistent flags.
func WithSkipHook(fn func(reason string)) Option {
	return func(s *Service) {
		s.onSkip = fn
	}
}

func WithActionObserver(fn func(kind, result string)) Option {
	return func(s *Service) {
		s.onAction = fn
	}
}

func WithQuizObserver(fn func(passed bool)) Option {
	return func(s *Service) {
		s.onQuiz = fn
	}
}

func NewService(source records.Source, opts ...Option) *Service {
	s := &Service{
		source:         source,
		publisher:      events.Discard,
		now:            time.Now,
		loc:            time.UTC,
		academicYearBE: 2568,
		logger:         log.New(log.Writer(), "[student] ", log.LstdFlags),
		onSkip:         func(string) {},
		onAction:       func(string, string) {},
		onQuiz:         func(bool) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.confirmer == nil {
		s.confirmer = attendance.NewConfirmer(source, attendance.WithPublisher(s.publisher), attendance.WithClock(s.now))
	}
	if s.aggregator == nil {
		s.aggregator = skills.NewAggregator(skills.WithSkipHook(s.onSkip))
	}

	s.dispatcher = action.NewDispatcher(action.WithClock(func() time.Time { return s.now() }))
	s.dispatcher.Register(action.Confirm, action.HandlerFunc(s.handleConfirm))
	s.dispatcher.Register(action.Survey, action.HandlerFunc(s.handleSurvey))
	s.dispatcher.Register(action.Certificate, action.HandlerFunc(s.handleCertificate))
	return s
}

// ActivityRow is a participation record with its phase and action as of the
// request time.
type ActivityRow struct {
	participation.Record
	Phase        lifecycle.Phase `json:"phase"`
	Action       action.Action   `json:"action"`
	StartDisplay string          `json:"start_display"`
	EndDisplay   string          `json:"end_display"`
}

// Activities lists the student's participations for tab. Phases and actions
// are recomputed from the current clock on every call.
func (s *Service) Activities(ctx context.Context, studentID string, tab participation.Tab) ([]ActivityRow, error) {
	list, err := s.source.ActivitiesForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rows := []ActivityRow{}
	for _, r := range participation.Filter(now, list, tab) {
		if r.Violation() {
			s.logger.Printf("activity %s for %s has completion flags without confirmation", r.ActivityID, studentID)
			s.onSkip(skills.SkipUnconfirmedFlag)
		}
		phase, act := action.ResolveRecord(now, r)
		rows = append(rows, ActivityRow{
			Record:       r.Sanitized(),
			Phase:        phase,
			Action:       act,
			StartDisplay: lifecycle.FormatTimestamp(r.Start, s.loc),
			EndDisplay:   lifecycle.FormatTimestamp(r.End, s.loc),
		})
	}
	return rows, nil
}

func (s *Service) record(ctx context.Context, studentID, activityID string) (participation.Record, error) {
	list, err := s.source.ActivitiesForStudent(ctx, studentID)
	if err != nil {
		return participation.Record{}, err
	}
	r, ok := participation.Find(list, activityID)
	if !ok {
		return participation.Record{}, ErrActivityNotFound
	}
	return r, nil
}

// Act runs the current action of one activity. requested, when set, must be
// the action the record currently offers.
func (s *Service) Act(ctx context.Context, studentID, activityID string, requested action.Kind, body []byte) (action.Outcome, error) {
	r, err := s.record(ctx, studentID, activityID)
	if err != nil {
		return action.Outcome{}, err
	}

	out, err := s.dispatcher.Dispatch(ctx, action.Request{StudentID: studentID, Record: r, Body: body}, requested)
	kind := string(requested)
	if kind == "" {
		kind = string(out.Kind)
	}
	if err != nil {
		s.onAction(kind, "error")
		return action.Outcome{}, err
	}
	s.onAction(kind, "ok")
	return out, nil
}

// YearLevel prefers the session's year level and falls back to the intake
// year encoded in the student id.
func (s *Service) YearLevel(sessionYear int, studentID string) int {
	if sessionYear >= 1 && sessionYear <= 4 {
		return sessionYear
	}
	return skills.YearLevelFromStudentID(studentID, s.academicYearBE)
}

func (s *Service) notify(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Printf("publish %s for %s: %v", ev.Type, ev.StudentID, err)
	}
}
