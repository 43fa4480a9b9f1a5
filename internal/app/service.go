// Package service provides the analytics service behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rollcall/internal/adapters/cache"
	repository "github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/internal/domain/classifier"
	"github.com/okian/rollcall/internal/domain/overview"
	"github.com/okian/rollcall/internal/domain/risk"
	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

const defaultMaxIterations = 100

// RiskQuery holds the parameters of a risk request. Zero K and Limit select
// the service defaults.
type RiskQuery struct {
	CourseID *int64
	From     *time.Time
	To       *time.Time
	Scope    string
	K        int
	Limit    int
}

// OverviewQuery holds the parameters of an overview request.
type OverviewQuery struct {
	CourseID *int64
	From     *time.Time
	To       *time.Time
	Scope    string
}

// Service implements the analytics operations.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	names     cache.NameSource
	estimator *risk.Estimator

	defaultWindow int
	defaultLimit  int
	maxIterations int

	started   bool
	startedAt time.Time

	riskRequests     atomic.Int64
	overviewRequests atomic.Int64
	trainedResponses atomic.Int64
	deniedRequests   atomic.Int64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultWindow: risk.DefaultWindow,
		defaultLimit:  risk.DefaultLimit,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates dependencies and builds the estimator.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.names == nil {
		s.names = s.store
	}
	if s.estimator == nil {
		s.estimator = risk.NewEstimator(
			risk.WithClassifier(classifier.NewLogistic(classifier.WithMaxIterations(s.maxIterations))),
			risk.WithLogger(s.logger.Named("risk")),
		)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "analytics service started",
		logger.String("algorithm", s.estimator.Algorithm()),
		logger.Int("defaultWindow", s.defaultWindow),
		logger.Int("defaultLimit", s.defaultLimit),
	)
	return nil
}

// Stop releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "analytics service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// principal resolves the caller role, consulting the stored profile first.
func (s *Service) principal(ctx context.Context, id access.Identity) (access.Principal, error) {
	u, err := s.store.User(ctx, id.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return access.Principal{}, fmt.Errorf("resolve principal: %w", err)
	default:
		id.ProfileRole = u.Role
		id.IsSuperuser = id.IsSuperuser || u.IsSuperuser
	}
	return access.NewPrincipal(id), nil
}

// resolve returns the caller's scope and the courses the role may read.
func (s *Service) resolve(
	ctx context.Context,
	id access.Identity,
	courseID *int64,
	from, to *time.Time,
	scope string,
) (access.Scope, []attendance.Course, error) {
	p, err := s.principal(ctx, id)
	if err != nil {
		return access.Scope{}, nil, err
	}

	var teacherID *int64
	if p.Role == access.RoleTeacher {
		teacherID = &p.UserID
	}
	courses, err := s.store.Courses(ctx, teacherID)
	if err != nil {
		return access.Scope{}, nil, fmt.Errorf("list courses: %w", err)
	}
	visible := make([]int64, len(courses))
	for i, c := range courses {
		visible[i] = c.ID
	}

	sc, err := access.Resolve(p, access.Request{
		CourseID:   courseID,
		From:       from,
		To:         to,
		Visibility: access.ParseVisibility(scope),
	}, visible)
	if errors.Is(err, access.ErrAccessDenied) {
		s.deniedRequests.Add(1)
		s.logger.Warn(ctx, "course access denied",
			logger.Int64("user_id", p.UserID), logger.String("role", string(p.Role)))
	}
	return sc, courses, err
}

// Risk ranks the caller's (student, course) pairs by absence risk.
func (s *Service) Risk(ctx context.Context, id access.Identity, q RiskQuery) (types.RiskResponse, error) {
	if !s.running() {
		return types.RiskResponse{}, ErrNotStarted
	}
	s.riskRequests.Add(1)

	sc, _, err := s.resolve(ctx, id, q.CourseID, q.From, q.To, q.Scope)
	if err != nil {
		return types.RiskResponse{}, err
	}
	metrics.RecordRiskRequest(string(sc.Role), string(sc.Visibility))

	if sc.Empty() {
		return types.NewRiskResponse(sc, s.estimator.Empty(), nil, nil), nil
	}

	records, err := s.store.Attendance(ctx, sc.Filter)
	if err != nil {
		return types.RiskResponse{}, fmt.Errorf("load attendance: %w", err)
	}
	params := risk.Params{Window: q.K, Limit: q.Limit}
	if params.Window == 0 {
		params.Window = s.defaultWindow
	}
	if params.Limit == 0 {
		params.Limit = s.defaultLimit
	}
	res, err := s.estimator.Estimate(ctx, attendance.GroupSeries(records), params)
	if err != nil {
		return types.RiskResponse{}, err
	}
	if res.Trained {
		s.trainedResponses.Add(1)
	}

	studentIDs := make([]int64, 0, len(res.Rows))
	courseIDs := make([]int64, 0, len(res.Rows))
	for _, r := range res.Rows {
		studentIDs = append(studentIDs, r.StudentID)
		courseIDs = append(courseIDs, r.CourseID)
	}
	students := s.lookupNames(ctx, "student", studentIDs, s.names.StudentNames)
	courseNames := s.lookupNames(ctx, "course", courseIDs, s.names.CourseNames)

	s.logger.Debug(ctx, "risk estimated",
		logger.String("role", string(sc.Role)),
		logger.String("scope", string(sc.Visibility)),
		logger.Bool("trained", res.Trained),
		logger.Int("samples", res.TrainingSamples),
		logger.Int("rows", len(res.Rows)),
	)
	return types.NewRiskResponse(sc, res, students, courseNames), nil
}

// Overview aggregates the caller's attendance and feedback.
func (s *Service) Overview(ctx context.Context, id access.Identity, q OverviewQuery) (types.OverviewResponse, error) {
	if !s.running() {
		return types.OverviewResponse{}, ErrNotStarted
	}
	s.overviewRequests.Add(1)

	sc, courses, err := s.resolve(ctx, id, q.CourseID, q.From, q.To, q.Scope)
	if err != nil {
		return types.OverviewResponse{}, err
	}
	metrics.RecordOverviewRequest(string(sc.Role), string(sc.Visibility))

	in := overview.Input{Courses: courses}
	lessonFilter := sc.Filter
	lessonFilter.StudentID = nil
	if in.Lessons, err = s.store.Lessons(ctx, lessonFilter); err != nil {
		return types.OverviewResponse{}, fmt.Errorf("load lessons: %w", err)
	}
	if in.Attendance, err = s.store.Attendance(ctx, sc.Filter); err != nil {
		return types.OverviewResponse{}, fmt.Errorf("load attendance: %w", err)
	}
	if in.Feedback, err = s.store.Feedback(ctx, sc.Filter); err != nil {
		return types.OverviewResponse{}, fmt.Errorf("load feedback: %w", err)
	}

	ov := overview.Build(sc, in)
	ov.ApplyNames(s.lookupNames(ctx, "student", ov.StudentIDs(), s.names.StudentNames))
	return types.NewOverviewResponse(ov), nil
}

// lookupNames never fails the request; callers fall back to ids.
func (s *Service) lookupNames(
	ctx context.Context,
	kind string,
	ids []int64,
	fn func(context.Context, []int64) (map[int64]string, error),
) map[int64]string {
	if len(ids) == 0 {
		return nil
	}
	names, err := fn(ctx, ids)
	if err != nil {
		s.logger.Warn(ctx, "name lookup failed",
			logger.String("kind", kind), logger.Int("ids", len(ids)), logger.Error(err))
		return nil
	}
	return names
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"defaultWindow":    s.defaultWindow,
		"defaultLimit":     s.defaultLimit,
		"riskRequests":     s.riskRequests.Load(),
		"overviewRequests": s.overviewRequests.Load(),
		"trainedResponses": s.trainedResponses.Load(),
		"deniedRequests":   s.deniedRequests.Load(),
	}
	if s.started {
		stats["algorithm"] = s.estimator.Algorithm()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
