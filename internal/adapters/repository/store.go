// Package repository provides read access to the courses, lessons,
// attendance and feedback that analytics is computed from.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/domain/attendance"
)

// Store is the read side of the attendance data.
//
// Every method taking an access.Filter honors its course, date and teacher
// restrictions. StudentID narrows attendance and feedback only; lessons are
// never per-student.
type Store interface {
	// Courses returns courses ordered by name. A non-nil teacherID keeps
	// only courses taught by that user.
	Courses(ctx context.Context, teacherID *int64) ([]attendance.Course, error)

	// Lessons returns lessons in scope ordered by date.
	Lessons(ctx context.Context, f access.Filter) ([]attendance.Lesson, error)

	// Attendance returns attendance rows joined with their lesson, ordered by
	// student, course, lesson date and lesson id.
	Attendance(ctx context.Context, f access.Filter) ([]attendance.Record, error)

	// Feedback returns visible feedback joined with its lesson.
	Feedback(ctx context.Context, f access.Filter) ([]attendance.Feedback, error)

	// User returns a user record. Returns ErrNotFound for unknown ids.
	User(ctx context.Context, id int64) (attendance.User, error)

	// StudentNames and CourseNames map ids to display names. Unknown ids
	// are omitted.
	StudentNames(ctx context.Context, ids []int64) (map[int64]string, error)
	CourseNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

func validateFilter(f access.Filter) error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return fmt.Errorf("%w: from after to", ErrInvalidFilter)
	}
	return nil
}

// matchesNothing reports whether the filter's course restriction is an
// explicit empty set.
func matchesNothing(f access.Filter) bool {
	return f.CourseIDs != nil && len(f.CourseIDs) == 0
}
