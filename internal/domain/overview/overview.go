// Package overview aggregates scoped attendance and feedback into the
// analytics dashboard summary.
package overview

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/domain/attendance"
)

// TopAbsentLimit caps the top absent students list.
const TopAbsentLimit = 10

// Input is the scoped data an overview is built from. Lessons must not be
// narrowed to a single student; attendance and feedback must be.
type Input struct {
	Courses    []attendance.Course
	Lessons    []attendance.Lesson
	Attendance []attendance.Record
	Feedback   []attendance.Feedback
}

// CourseOption is a selectable course.
type CourseOption struct {
	ID   int64
	Name string
}

// Summary holds scope-wide totals.
type Summary struct {
	Courses            int
	Lessons            int
	AttendanceTotal    int
	AttendanceAttended int
	AttendanceRate     float64
	FeedbackCount      int
	FeedbackAvg        *float64
}

// Point is one day of the attendance timeseries.
type Point struct {
	Date           time.Time
	Total          int
	Attended       int
	AttendanceRate float64
}

// RatingBucket counts feedback with a rounded rating.
type RatingBucket struct {
	Rating int
	Count  int
}

// AbsentStudent is a student ranked by absence count.
type AbsentStudent struct {
	StudentID   int64
	StudentName string
	Absent      int
	Total       int
	AbsentRate  float64
}

// CourseSummary holds per-course totals.
type CourseSummary struct {
	CourseID       int64
	CourseName     string
	Lessons        int
	AttendanceRate float64
	FeedbackAvg    *float64
	FeedbackCount  int
}

// Overview is the dashboard payload.
type Overview struct {
	Role               access.Role
	Visibility         access.Visibility
	Courses            []CourseOption
	Summary            Summary
	Timeseries         []Point
	RatingDistribution []RatingBucket
	TopAbsentStudents  []AbsentStudent
	CourseSummary      []CourseSummary
}

type tally struct {
	total    int
	attended int
}

func (t *tally) add(status string) {
	t.total++
	if attendance.Attended(status) {
		t.attended++
	}
}

func (t tally) rate() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.attended) / float64(t.total)
}

type ratings struct {
	count int
	sum   float64
}

func (r ratings) avg() *float64 {
	if r.count == 0 {
		return nil
	}
	v := r.sum / float64(r.count)
	return &v
}

// Build aggregates in under scope. Rows outside scope.Filter are ignored.
func Build(scope access.Scope, in Input) Overview {
	f := scope.Filter
	ov := Overview{
		Role:               scope.Role,
		Visibility:         scope.Visibility,
		Courses:            courseOptions(in.Courses),
		Timeseries:         []Point{},
		TopAbsentStudents:  []AbsentStudent{},
		CourseSummary:      []CourseSummary{},
		RatingDistribution: make([]RatingBucket, 5),
	}
	ov.Summary.Courses = len(in.Courses)

	lessonsByCourse := map[int64]int{}
	for _, l := range in.Lessons {
		if !f.MatchesCourse(l.CourseID) || !f.MatchesDate(l.Date) {
			continue
		}
		ov.Summary.Lessons++
		lessonsByCourse[l.CourseID]++
	}

	var all tally
	byDate := map[time.Time]*tally{}
	byCourse := map[int64]*tally{}
	absences := map[int64]*tally{}
	for _, r := range in.Attendance {
		if !f.MatchesCourse(r.CourseID) || !f.MatchesDate(r.LessonDate) || !f.MatchesStudent(r.StudentID) {
			continue
		}
		all.add(r.Status)
		bucket(byDate, day(r.LessonDate)).add(r.Status)
		bucket(byCourse, r.CourseID).add(r.Status)
		bucket(absences, r.StudentID).add(r.Status)
	}
	ov.Summary.AttendanceTotal = all.total
	ov.Summary.AttendanceAttended = all.attended
	ov.Summary.AttendanceRate = all.rate()

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for _, d := range dates {
		t := byDate[d]
		ov.Timeseries = append(ov.Timeseries, Point{Date: d, Total: t.total, Attended: t.attended, AttendanceRate: t.rate()})
	}

	var fb ratings
	fbByCourse := map[int64]*ratings{}
	for i := range ov.RatingDistribution {
		ov.RatingDistribution[i].Rating = i + 1
	}
	for _, r := range in.Feedback {
		if r.Hidden || !f.MatchesCourse(r.CourseID) || !f.MatchesDate(r.LessonDate) || !f.MatchesStudent(r.StudentID) {
			continue
		}
		fb.count++
		fb.sum += r.Rating
		c := fbByCourse[r.CourseID]
		if c == nil {
			c = &ratings{}
			fbByCourse[r.CourseID] = c
		}
		c.count++
		c.sum += r.Rating
		ov.RatingDistribution[ratingBucket(r.Rating)-1].Count++
	}
	ov.Summary.FeedbackCount = fb.count
	ov.Summary.FeedbackAvg = fb.avg()

	if scope.Role.Elevated() && scope.Visibility == access.VisibilityOverall {
		ov.TopAbsentStudents = topAbsent(absences, TopAbsentLimit)
	}

	for _, c := range in.Courses {
		if !f.MatchesCourse(c.ID) {
			continue
		}
		row := CourseSummary{
			CourseID:   c.ID,
			CourseName: c.Name,
			Lessons:    lessonsByCourse[c.ID],
		}
		if t := byCourse[c.ID]; t != nil {
			row.AttendanceRate = t.rate()
		}
		if r := fbByCourse[c.ID]; r != nil {
			row.FeedbackCount = r.count
			row.FeedbackAvg = r.avg()
		}
		ov.CourseSummary = append(ov.CourseSummary, row)
	}
	sort.SliceStable(ov.CourseSummary, func(i, j int) bool {
		return strings.ToLower(ov.CourseSummary[i].CourseName) < strings.ToLower(ov.CourseSummary[j].CourseName)
	})

	return ov
}

// StudentIDs lists students whose display names the overview shows.
func (ov Overview) StudentIDs() []int64 {
	ids := make([]int64, 0, len(ov.TopAbsentStudents))
	for _, s := range ov.TopAbsentStudents {
		ids = append(ids, s.StudentID)
	}
	return ids
}

// ApplyNames fills student names, falling back to "ID {id}".
func (ov *Overview) ApplyNames(names map[int64]string) {
	for i := range ov.TopAbsentStudents {
		s := &ov.TopAbsentStudents[i]
		if n := names[s.StudentID]; n != "" {
			s.StudentName = n
		} else {
			s.StudentName = fmt.Sprintf("ID %d", s.StudentID)
		}
	}
}

func bucket[K comparable](m map[K]*tally, k K) *tally {
	t := m[k]
	if t == nil {
		t = &tally{}
		m[k] = t
	}
	return t
}

// day drops the clock part so map keys compare equal across locations.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ratingBucket rounds half away from zero and clamps into 1..5.
func ratingBucket(r float64) int {
	return int(math.Max(1, math.Min(5, math.Round(r))))
}

func courseOptions(courses []attendance.Course) []CourseOption {
	out := make([]CourseOption, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseOption{ID: c.ID, Name: c.Name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func topAbsent(byStudent map[int64]*tally, limit int) []AbsentStudent {
	out := make([]AbsentStudent, 0, len(byStudent))
	for id, t := range byStudent {
		absent := t.total - t.attended
		rate := 0.0
		if t.total > 0 {
			rate = float64(absent) / float64(t.total)
		}
		out = append(out, AbsentStudent{StudentID: id, Absent: absent, Total: t.total, AbsentRate: rate})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Absent != out[j].Absent {
			return out[i].Absent > out[j].Absent
		}
		return out[i].StudentID < out[j].StudentID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
