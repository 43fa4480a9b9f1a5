// Package features turns attendance status sequences into the fixed-size
// numeric vectors used by the risk estimator.
package features

import "github.com/okian/rollcall/internal/domain/attendance"

// Arity is the number of elements in every Vector.
const Arity = 9

// Vector indexes.
const (
	IdxRecentAbsentRate = iota
	IdxRecentLateRate
	IdxRecentExcusedRate
	IdxAbsentStreak
	IdxOverallAbsentRate
	IdxOverallLateRate
	IdxOverallExcusedRate
	IdxHistoryLen
	IdxWindowLen
)

// Vector is one feature row.
type Vector [Arity]float64

// Slice returns a copy of v as a slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Arity)
	copy(out, v[:])
	return out
}

// Names returns the feature names in vector order.
func Names() []string {
	return []string{
		"recent_absent_rate",
		"recent_late_rate",
		"recent_excused_rate",
		"absent_streak",
		"overall_absent_rate",
		"overall_late_rate",
		"overall_excused_rate",
		"history_len",
		"window_len",
	}
}

// counts holds status tallies over the non-empty entries of a sequence.
type counts struct {
	n       int
	absent  int
	late    int
	excused int
}

func tally(statuses []string) counts {
	var c counts
	for _, raw := range statuses {
		switch attendance.Status(attendance.Normalize(raw)) {
		case "":
			continue
		case attendance.Absent:
			c.absent++
		case attendance.Late:
			c.late++
		case attendance.Excused:
			c.excused++
		}
		c.n++
	}
	return c
}

func (c counts) rate(v int) float64 {
	d := c.n
	if d < 1 {
		d = 1
	}
	return float64(v) / float64(d)
}

// AbsentStreak counts trailing "absent" entries, stopping at the first
// non-absent one. Empty entries are skipped.
func AbsentStreak(statuses []string) int {
	streak := 0
	for i := len(statuses) - 1; i >= 0; i-- {
		s := attendance.Normalize(statuses[i])
		if s == "" {
			continue
		}
		if s != string(attendance.Absent) {
			break
		}
		streak++
	}
	return streak
}

// Extract builds the feature vector for a window (most recent last) and the
// history preceding the predicted point. It is a pure function of its inputs.
func Extract(window, history []string) Vector {
	w := tally(window)
	h := tally(history)

	var v Vector
	v[IdxRecentAbsentRate] = w.rate(w.absent)
	v[IdxRecentLateRate] = w.rate(w.late)
	v[IdxRecentExcusedRate] = w.rate(w.excused)
	v[IdxAbsentStreak] = float64(AbsentStreak(window))
	v[IdxOverallAbsentRate] = h.rate(h.absent)
	v[IdxOverallLateRate] = h.rate(h.late)
	v[IdxOverallExcusedRate] = h.rate(h.excused)
	v[IdxHistoryLen] = float64(len(history))
	v[IdxWindowLen] = float64(len(window))
	return v
}
