package attendance

import "time"

// Course is a taught course. TeacherID is nil for unassigned courses.
type Course struct {
	ID        int64
	Name      string
	TeacherID *int64
}

// Lesson is one scheduled lesson of a course.
type Lesson struct {
	ID       int64
	CourseID int64
	Date     time.Time
}

// Feedback is a student's rating of a lesson, joined with the lesson's
// course and date.
type Feedback struct {
	ID         int64
	LessonID   int64
	CourseID   int64
	StudentID  int64
	LessonDate time.Time
	Rating     float64
	Hidden     bool
}

// User is the subset of a user record analytics needs.
type User struct {
	ID          int64
	FullName    string
	Role        string
	IsSuperuser bool
}

// Attended reports whether a status counts as attendance. Everything except
// "absent" does.
func Attended(status string) bool {
	return !Absent.Is(status)
}
