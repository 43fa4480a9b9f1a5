package probe

import (
	"errors"
	"fmt"
	"slices"

	"github.com/okian/rollcall/internal/domain/features"
	"github.com/okian/rollcall/internal/domain/risk"
	"github.com/okian/rollcall/internal/domain/types"
)

type pair struct{ student, course int64 }

// Verify checks one risk response requested with window k and limit. A zero
// limit skips the row count check since the server default applies.
func Verify(resp types.RiskResponse, k, limit int) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrViolation}, args...)...))
	}

	if !slices.Equal(resp.Features, features.Names()) {
		fail("features %v", resp.Features)
	}
	if limit > 0 && len(resp.Rows) > risk.ClampLimit(limit) {
		fail("%d rows exceed limit %d", len(resp.Rows), limit)
	}
	if resp.Trained != (resp.TrainingSamples > 0) {
		fail("trained=%t with %d training samples", resp.Trained, resp.TrainingSamples)
	}

	window := risk.ClampWindow(k)
	seen := make(map[pair]struct{}, len(resp.Rows))
	for i, row := range resp.Rows {
		key := pair{row.StudentID, row.CourseID}
		if _, dup := seen[key]; dup {
			fail("row %d repeats student %d course %d", i, row.StudentID, row.CourseID)
		}
		seen[key] = struct{}{}

		if row.TotalRecords < 1 {
			fail("row %d has no records", i)
		}
		if want := min(window, row.TotalRecords); row.WindowSize != want {
			fail("row %d window_size %d, want %d", i, row.WindowSize, want)
		}
		if row.AbsentStreak < 0 || row.AbsentStreak > row.WindowSize {
			fail("row %d absent_streak %d outside window %d", i, row.AbsentStreak, row.WindowSize)
		}
		if row.RiskAbsentNext < risk.ProbabilityFloor || row.RiskAbsentNext > risk.ProbabilityCeiling {
			fail("row %d risk %.4f out of bounds", i, row.RiskAbsentNext)
		}
		if row.RecentAbsentRate < 0 || row.RecentAbsentRate > 1 {
			fail("row %d recent_absent_rate %.4f out of bounds", i, row.RecentAbsentRate)
		}
		if row.Confidence < 0 || row.Confidence > 1 {
			fail("row %d confidence %.4f out of bounds", i, row.Confidence)
		}
		switch {
		case !resp.Trained && row.Model != risk.HeuristicName:
			fail("row %d model %q without training", i, row.Model)
		case resp.Trained && row.Model != risk.HeuristicName && row.Model != resp.Algorithm:
			fail("row %d model %q, algorithm %q", i, row.Model, resp.Algorithm)
		}
		if i > 0 && outranks(row, resp.Rows[i-1]) {
			fail("row %d outranks row %d", i, i-1)
		}
	}
	return errors.Join(errs...)
}

// outranks reports whether a must be listed before b.
func outranks(a, b types.RiskRow) bool {
	if a.RiskAbsentNext != b.RiskAbsentNext {
		return a.RiskAbsentNext > b.RiskAbsentNext
	}
	if a.AbsentStreak != b.AbsentStreak {
		return a.AbsentStreak > b.AbsentStreak
	}
	if a.RecentAbsentRate != b.RecentAbsentRate {
		return a.RecentAbsentRate > b.RecentAbsentRate
	}
	if a.TotalRecords != b.TotalRecords {
		return a.TotalRecords > b.TotalRecords
	}
	if a.StudentID != b.StudentID {
		return a.StudentID < b.StudentID
	}
	return a.CourseID < b.CourseID
}

// Same reports whether two responses for the same request agree.
func Same(a, b types.RiskResponse) error {
	if a.Trained != b.Trained || a.TrainingSamples != b.TrainingSamples {
		return fmt.Errorf("%w: trained %t/%d vs %t/%d", ErrNonDeterministic,
			a.Trained, a.TrainingSamples, b.Trained, b.TrainingSamples)
	}
	if !slices.Equal(a.Rows, b.Rows) {
		return fmt.Errorf("%w: rows differ", ErrNonDeterministic)
	}
	return nil
}
