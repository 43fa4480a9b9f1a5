package risk

import (
	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/internal/domain/features"
)

// TrainingSet holds labelled feature rows. Absent[i] is true when the status
// following the i-th window was "absent".
type TrainingSet struct {
	X      [][]float64
	Absent []bool
}

// Len returns the number of examples.
func (ts TrainingSet) Len() int { return len(ts.X) }

// HasBothClasses reports whether both labels occur.
func (ts TrainingSet) HasBothClasses() bool {
	var pos int
	for _, a := range ts.Absent {
		if a {
			pos++
		}
	}
	return pos > 0 && pos < len(ts.Absent)
}

// BuildTrainingSet emits one example per position t in [k, len) of every
// series, using series[t-k:t] as the window and series[:t] as the history.
// Series shorter than k+1 contribute nothing.
func BuildTrainingSet(series []attendance.Series, k int) TrainingSet {
	var ts TrainingSet
	if k < 1 {
		return ts
	}
	for _, s := range series {
		for t := k; t < len(s.Statuses); t++ {
			v := features.Extract(s.Statuses[t-k:t], s.Statuses[:t])
			ts.X = append(ts.X, v.Slice())
			ts.Absent = append(ts.Absent, attendance.Absent.Is(s.Statuses[t]))
		}
	}
	return ts
}

// Heuristic is the add-one smoothed absence rate of a window.
func Heuristic(window []string) float64 {
	var absent int
	for _, s := range window {
		if attendance.Absent.Is(s) {
			absent++
		}
	}
	return float64(absent+1) / float64(len(window)+2)
}

// Clamp bounds p into [ProbabilityFloor, ProbabilityCeiling]. NaN maps to
// the floor.
func Clamp(p float64) float64 {
	switch {
	case p != p, p < ProbabilityFloor:
		return ProbabilityFloor
	case p > ProbabilityCeiling:
		return ProbabilityCeiling
	default:
		return p
	}
}

// Confidence expresses how much data backs an estimate.
func Confidence(trained bool, trainingSamples, totalRecords int) float64 {
	if trained {
		return min(1, float64(trainingSamples)/200) * min(1, float64(totalRecords)/20)
	}
	return min(0.4, float64(totalRecords)/25)
}
