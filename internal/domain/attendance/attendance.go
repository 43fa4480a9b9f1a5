// Package attendance contains the attendance records consumed by analytics
// and the per-(student, course) status series derived from them.
package attendance

import (
	"sort"
	"strings"
	"time"
)

// Status is a normalized attendance status.
type Status string

// Known statuses. Anything else is carried through verbatim and only ever
// counts as "not absent".
const (
	Present Status = "present"
	Absent  Status = "absent"
	Late    Status = "late"
	Excused Status = "excused"
)

// Normalize lowercases and trims a raw status value.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Is reports whether raw normalizes to s.
func (s Status) Is(raw string) bool {
	return Normalize(raw) == string(s)
}

// Record is one attendance row as exposed by the data-access layer.
type Record struct {
	StudentID  int64
	CourseID   int64
	LessonID   int64
	LessonDate time.Time
	Status     string
}

// Key identifies a (student, course) pair.
type Key struct {
	StudentID int64
	CourseID  int64
}

// Series is the chronologically ordered status history of one student in one
// course. It is rebuilt per request and never stored.
type Series struct {
	StudentID int64
	CourseID  int64
	Statuses  []string
}

// Key returns the (student, course) pair of the series.
func (s Series) Key() Key {
	return Key{StudentID: s.StudentID, CourseID: s.CourseID}
}

// Len returns the number of statuses in the series.
func (s Series) Len() int {
	return len(s.Statuses)
}

// GroupSeries groups records into per-(student, course) series ordered by
// lesson date (ties broken by lesson id). Rows with an empty status are
// dropped. The result is sorted by student id, then course id.
func GroupSeries(records []Record) []Series {
	if len(records) == 0 {
		return nil
	}

	rows := make([]Record, 0, len(records))
	for _, r := range records {
		if Normalize(r.Status) == "" {
			continue
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		if !a.LessonDate.Equal(b.LessonDate) {
			return a.LessonDate.Before(b.LessonDate)
		}
		return a.LessonID < b.LessonID
	})

	var out []Series
	for _, r := range rows {
		n := len(out)
		if n == 0 || out[n-1].StudentID != r.StudentID || out[n-1].CourseID != r.CourseID {
			out = append(out, Series{StudentID: r.StudentID, CourseID: r.CourseID})
			n++
		}
		out[n-1].Statuses = append(out[n-1].Statuses, Normalize(r.Status))
	}
	return out
}
