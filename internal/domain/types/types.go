// Package types contains the JSON shapes served by the analytics API.
package types

import (
	"fmt"
	"time"

	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/domain/overview"
	"github.com/okian/rollcall/internal/domain/risk"
)

// RiskRow is one ranked risk estimate.
type RiskRow struct {
	StudentID        int64   `json:"student_id"`
	StudentName      string  `json:"student_name"`
	CourseID         int64   `json:"course_id"`
	CourseName       string  `json:"course_name"`
	TotalRecords     int     `json:"total_records"`
	WindowSize       int     `json:"window_size"`
	RecentAbsentRate float64 `json:"recent_absent_rate"`
	AbsentStreak     int     `json:"absent_streak"`
	RiskAbsentNext   float64 `json:"risk_absent_next"`
	Model            string  `json:"model"`
	Confidence       float64 `json:"confidence"`
}

// RiskResponse is the body of GET /api/v1/analytics/risk.
type RiskResponse struct {
	Role            string    `json:"role"`
	Scope           string    `json:"scope"`
	Algorithm       string    `json:"algorithm"`
	Trained         bool      `json:"trained"`
	TrainingSamples int       `json:"training_samples"`
	Features        []string  `json:"features"`
	Rows            []RiskRow `json:"rows"`
}

// NewRiskResponse decorates res with display names. Missing names fall back
// to "ID {id}" for students and "Course {id}" for courses.
func NewRiskResponse(scope access.Scope, res risk.Result, students, courses map[int64]string) RiskResponse {
	out := RiskResponse{
		Role:            string(scope.Role),
		Scope:           string(scope.Visibility),
		Algorithm:       res.Algorithm,
		Trained:         res.Trained,
		TrainingSamples: res.TrainingSamples,
		Features:        res.Features,
		Rows:            make([]RiskRow, 0, len(res.Rows)),
	}
	for _, r := range res.Rows {
		out.Rows = append(out.Rows, RiskRow{
			StudentID:        r.StudentID,
			StudentName:      StudentName(students, r.StudentID),
			CourseID:         r.CourseID,
			CourseName:       CourseName(courses, r.CourseID),
			TotalRecords:     r.TotalRecords,
			WindowSize:       r.WindowSize,
			RecentAbsentRate: r.RecentAbsentRate,
			AbsentStreak:     r.AbsentStreak,
			RiskAbsentNext:   r.RiskAbsentNext,
			Model:            r.Model,
			Confidence:       r.Confidence,
		})
	}
	return out
}

// StudentName looks id up in names.
func StudentName(names map[int64]string, id int64) string {
	if n := names[id]; n != "" {
		return n
	}
	return fmt.Sprintf("ID %d", id)
}

// CourseName looks id up in names.
func CourseName(names map[int64]string, id int64) string {
	if n := names[id]; n != "" {
		return n
	}
	return fmt.Sprintf("Course %d", id)
}

// CourseOption is a course the caller may select.
type CourseOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Summary holds scope-wide totals.
type Summary struct {
	Courses            int      `json:"courses"`
	Lessons            int      `json:"lessons"`
	AttendanceTotal    int      `json:"attendance_total"`
	AttendanceAttended int      `json:"attendance_attended"`
	AttendanceRate     float64  `json:"attendance_rate"`
	FeedbackCount      int      `json:"feedback_count"`
	FeedbackAvg        *float64 `json:"feedback_avg"`
}

// Point is one day of the attendance timeseries.
type Point struct {
	Date           string  `json:"date"`
	Total          int     `json:"total"`
	Attended       int     `json:"attended"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// RatingBucket counts feedback by rounded rating.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// AbsentStudent is a row of the top absent students table.
type AbsentStudent struct {
	StudentID   int64   `json:"student_id"`
	StudentName string  `json:"student_name"`
	Absent      int     `json:"absent"`
	Total       int     `json:"total"`
	AbsentRate  float64 `json:"absent_rate"`
}

// CourseSummary holds per-course totals.
type CourseSummary struct {
	CourseID       int64    `json:"course_id"`
	CourseName     string   `json:"course_name"`
	Lessons        int      `json:"lessons"`
	AttendanceRate float64  `json:"attendance_rate"`
	FeedbackAvg    *float64 `json:"feedback_avg"`
	FeedbackCount  int      `json:"feedback_count"`
}

// OverviewResponse is the body of GET /api/v1/analytics/overview.
type OverviewResponse struct {
	Role               string          `json:"role"`
	Scope              string          `json:"scope"`
	Courses            []CourseOption  `json:"courses"`
	Summary            Summary         `json:"summary"`
	Timeseries         []Point         `json:"timeseries"`
	RatingDistribution []RatingBucket  `json:"rating_distribution"`
	TopAbsentStudents  []AbsentStudent `json:"top_absent_students"`
	CourseSummary      []CourseSummary `json:"course_summary"`
}

// NewOverviewResponse converts ov to its wire shape.
func NewOverviewResponse(ov overview.Overview) OverviewResponse {
	out := OverviewResponse{
		Role:               string(ov.Role),
		Scope:              string(ov.Visibility),
		Courses:            make([]CourseOption, 0, len(ov.Courses)),
		Summary:            Summary(ov.Summary),
		Timeseries:         make([]Point, 0, len(ov.Timeseries)),
		RatingDistribution: make([]RatingBucket, 0, len(ov.RatingDistribution)),
		TopAbsentStudents:  make([]AbsentStudent, 0, len(ov.TopAbsentStudents)),
		CourseSummary:      make([]CourseSummary, 0, len(ov.CourseSummary)),
	}
	for _, c := range ov.Courses {
		out.Courses = append(out.Courses, CourseOption(c))
	}
	for _, p := range ov.Timeseries {
		out.Timeseries = append(out.Timeseries, Point{
			Date:           p.Date.Format(time.DateOnly),
			Total:          p.Total,
			Attended:       p.Attended,
			AttendanceRate: p.AttendanceRate,
		})
	}
	for _, b := range ov.RatingDistribution {
		out.RatingDistribution = append(out.RatingDistribution, RatingBucket(b))
	}
	for _, s := range ov.TopAbsentStudents {
		out.TopAbsentStudents = append(out.TopAbsentStudents, AbsentStudent(s))
	}
	for _, c := range ov.CourseSummary {
		out.CourseSummary = append(out.CourseSummary, CourseSummary(c))
	}
	return out
}
