package access

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Visibility selects whose attendance a caller sees.
type Visibility string

// Visibilities.
const (
	VisibilityAuto     Visibility = "auto"
	VisibilityOverall  Visibility = "overall"
	VisibilityPersonal Visibility = "personal"
)

// ParseVisibility normalizes s. Empty or unknown values mean auto.
func ParseVisibility(s string) Visibility {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case VisibilityOverall, VisibilityPersonal:
		return v
	default:
		return VisibilityAuto
	}
}

// ResolveVisibility turns a requested visibility into an effective one.
// Auto means overall for elevated roles and personal otherwise; students are
// always personal.
func ResolveVisibility(role Role, requested Visibility) Visibility {
	v := requested
	if v != VisibilityOverall && v != VisibilityPersonal {
		if role.Elevated() {
			v = VisibilityOverall
		} else {
			v = VisibilityPersonal
		}
	}
	if !role.Elevated() {
		v = VisibilityPersonal
	}
	return v
}

// Request is the scope a caller asks for.
type Request struct {
	CourseID   *int64
	From       *time.Time
	To         *time.Time
	Visibility Visibility
}

// Filter is the predicate set every read path applies. A nil CourseIDs
// means no course restriction; an empty non-nil slice matches nothing.
type Filter struct {
	CourseIDs []int64
	From      *time.Time
	To        *time.Time
	StudentID *int64
	// TeacherID restricts to courses taught by this user.
	TeacherID *int64
}

// MatchesCourse reports whether id passes the course restriction.
func (f Filter) MatchesCourse(id int64) bool {
	return f.CourseIDs == nil || slices.Contains(f.CourseIDs, id)
}

// MatchesDate reports whether d falls in the inclusive date range.
func (f Filter) MatchesDate(d time.Time) bool {
	if f.From != nil && d.Before(*f.From) {
		return false
	}
	if f.To != nil && d.After(*f.To) {
		return false
	}
	return true
}

// MatchesStudent reports whether id passes the student restriction.
func (f Filter) MatchesStudent(id int64) bool {
	return f.StudentID == nil || *f.StudentID == id
}

// Scope is a resolved request.
type Scope struct {
	Role       Role
	Visibility Visibility
	// CourseIDs are the courses the request may read, ordered as given.
	CourseIDs []int64
	Filter    Filter
}

// Empty reports whether the scope can match no data.
func (s Scope) Empty() bool {
	return len(s.CourseIDs) == 0
}

// Resolve narrows req to what p may see. visible lists the courses the role
// can read: all courses for admins and students, owned courses for teachers.
// A teacher naming a course outside visible is rejected; anyone else naming
// an unknown course gets an empty scope.
func Resolve(p Principal, req Request, visible []int64) (Scope, error) {
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return Scope{}, fmt.Errorf("%w: %s after %s", ErrInvalidDateRange,
			req.From.Format(time.DateOnly), req.To.Format(time.DateOnly))
	}

	s := Scope{
		Role:       p.Role,
		Visibility: ResolveVisibility(p.Role, req.Visibility),
	}

	courses := make([]int64, 0, len(visible))
	if req.CourseID != nil {
		if slices.Contains(visible, *req.CourseID) {
			courses = append(courses, *req.CourseID)
		} else if p.Role == RoleTeacher {
			return Scope{}, fmt.Errorf("%w: course %d", ErrAccessDenied, *req.CourseID)
		}
	} else {
		courses = append(courses, visible...)
	}
	s.CourseIDs = courses

	s.Filter = Filter{
		CourseIDs: courses,
		From:      req.From,
		To:        req.To,
	}
	if p.Role == RoleTeacher {
		uid := p.UserID
		s.Filter.TeacherID = &uid
	}
	if s.Visibility == VisibilityPersonal {
		uid := p.UserID
		s.Filter.StudentID = &uid
	}
	return s, nil
}
