// Package risk estimates, per (student, course) pair, the probability that
// the student is absent from the next lesson.
//
// Each call to Estimate is self-contained: it builds a sliding-window
// training set from the supplied series, fits the configured classifier when
// the data allows, and otherwise scores with an add-one smoothed absence
// rate. No model outlives the call.
package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/internal/domain/classifier"
	"github.com/okian/rollcall/internal/domain/features"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Window and limit bounds.
const (
	MinWindow     = 2
	MaxWindow     = 20
	DefaultWindow = 5

	MinLimit     = 1
	MaxLimit     = 500
	DefaultLimit = 50
)

// Estimation constants.
const (
	DefaultMinTrainingSamples = 30
	ProbabilityFloor          = 0.005
	ProbabilityCeiling        = 0.995
	HeuristicName             = "heuristic"
)

// Params controls one estimation.
type Params struct {
	Window int
	Limit  int
}

// Row is the risk estimate for one (student, course) pair.
type Row struct {
	StudentID        int64
	CourseID         int64
	TotalRecords     int
	WindowSize       int
	RecentAbsentRate float64
	AbsentStreak     int
	RiskAbsentNext   float64
	Model            string
	Confidence       float64
}

// Result is the ranked output of Estimate.
type Result struct {
	Algorithm       string
	Trained         bool
	TrainingSamples int
	Features        []string
	Rows            []Row
}

// Estimator scores attendance series.
type Estimator struct {
	classifier classifier.Classifier
	minSamples int
	logger     logger.Logger
}

// NewEstimator creates a new estimator with configuration options.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		minSamples: DefaultMinTrainingSamples,
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClampWindow bounds k into [MinWindow, MaxWindow]; zero selects DefaultWindow.
func ClampWindow(k int) int {
	if k == 0 {
		return DefaultWindow
	}
	return max(MinWindow, min(MaxWindow, k))
}

// ClampLimit bounds limit into [MinLimit, MaxLimit]; zero selects DefaultLimit.
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	return max(MinLimit, min(MaxLimit, limit))
}

// Algorithm names the configured algorithm.
func (e *Estimator) Algorithm() string {
	if e.classifier == nil {
		return HeuristicName
	}
	return e.classifier.Name()
}

// Empty returns the untrained result for a scope with no accessible data.
func (e *Estimator) Empty() Result {
	return Result{
		Algorithm: e.Algorithm(),
		Features:  features.Names(),
		Rows:      []Row{},
	}
}

// Estimate scores every non-empty series and returns rows ranked by
// descending risk. Training and per-row scoring failures fall back to the
// heuristic; the only error returned is ctx cancellation.
func (e *Estimator) Estimate(ctx context.Context, series []attendance.Series, p Params) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("estimate cancelled: %w", err)
	}
	k := ClampWindow(p.Window)
	limit := ClampLimit(p.Limit)

	res := e.Empty()
	ts := BuildTrainingSet(series, k)
	model, err := e.train(ctx, ts)
	if err != nil && ctx.Err() != nil {
		return Result{}, fmt.Errorf("estimate cancelled: %w", ctx.Err())
	}
	if model != nil {
		res.Trained = true
		res.TrainingSamples = ts.Len()
	}

	rows := make([]Row, 0, len(series))
	for _, s := range series {
		if len(s.Statuses) == 0 {
			continue
		}
		rows = append(rows, e.score(ctx, s, k, model, res.TrainingSamples))
	}
	metrics.RecordRowsScored(len(rows))

	Rank(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	res.Rows = rows
	return res, nil
}

// train fits the classifier when the training set qualifies. A nil model
// means the heuristic applies to every row.
func (e *Estimator) train(ctx context.Context, ts TrainingSet) (classifier.Model, error) {
	metrics.RecordTrainingSamples(ts.Len())
	if e.classifier == nil {
		metrics.RecordTrainingOutcome(metrics.OutcomeDisabled)
		return nil, nil
	}
	if ts.Len() < e.minSamples {
		metrics.RecordTrainingOutcome(metrics.OutcomeInsufficient)
		e.logger.Debug(ctx, "training skipped",
			logger.Int("samples", ts.Len()),
			logger.Int("min_samples", e.minSamples),
		)
		return nil, ErrInsufficientSamples
	}
	if !ts.HasBothClasses() {
		metrics.RecordTrainingOutcome(metrics.OutcomeSingleClass)
		e.logger.Debug(ctx, "training skipped, single class", logger.Int("samples", ts.Len()))
		return nil, classifier.ErrSingleClass
	}

	start := time.Now()
	model, err := e.fit(ctx, ts)
	metrics.RecordTrainingLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordTrainingOutcome(metrics.OutcomeFailed)
		e.logger.Warn(ctx, "training failed, using heuristic",
			logger.String("algorithm", e.classifier.Name()),
			logger.Int("samples", ts.Len()),
			logger.Error(err),
		)
		return nil, err
	}
	metrics.RecordTrainingOutcome(metrics.OutcomeTrained)
	return model, nil
}

func (e *Estimator) fit(ctx context.Context, ts TrainingSet) (model classifier.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			model, err = nil, fmt.Errorf("%w: %v", ErrFitPanicked, r)
		}
	}()
	model, err = e.classifier.Fit(ctx, ts.X, ts.Absent)
	if err == nil && model == nil {
		err = classifier.ErrNotFitted
	}
	return model, err
}

func predict(model classifier.Model, x []float64) (p float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = 0, fmt.Errorf("%w: %v", ErrPredictPanicked, r)
		}
	}()
	p, err = model.PredictProba(x)
	if err == nil && (math.IsNaN(p) || math.IsInf(p, 0)) {
		err = fmt.Errorf("%w: non-finite probability", classifier.ErrDiverged)
	}
	return p, err
}

// score builds the row for one series. The window is the last min(k, n)
// statuses and the history is the whole series.
func (e *Estimator) score(ctx context.Context, s attendance.Series, k int, model classifier.Model, samples int) Row {
	window := s.Statuses[max(0, len(s.Statuses)-k):]
	v := features.Extract(window, s.Statuses)

	prob := Heuristic(window)
	used := HeuristicName
	if model != nil {
		mp, err := predict(model, v.Slice())
		if err != nil {
			metrics.RecordScoringFallback()
			e.logger.Warn(ctx, "row scoring failed, using heuristic",
				logger.Int64("student_id", s.StudentID),
				logger.Int64("course_id", s.CourseID),
				logger.Error(err),
			)
		} else {
			prob = mp
			used = e.classifier.Name()
		}
	}

	return Row{
		StudentID:        s.StudentID,
		CourseID:         s.CourseID,
		TotalRecords:     len(s.Statuses),
		WindowSize:       len(window),
		RecentAbsentRate: v[features.IdxRecentAbsentRate],
		AbsentStreak:     int(v[features.IdxAbsentStreak]),
		RiskAbsentNext:   Clamp(prob),
		Model:            used,
		Confidence:       Confidence(model != nil, samples, len(s.Statuses)),
	}
}
