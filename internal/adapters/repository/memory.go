package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/pkg/metrics"
)

// Fixtures is the document layout accepted by LoadFixtures.
type Fixtures struct {
	Users      []FixtureUser       `koanf:"users"`
	Courses    []FixtureCourse     `koanf:"courses"`
	Lessons    []FixtureLesson     `koanf:"lessons"`
	Attendance []FixtureAttendance `koanf:"attendance"`
	Feedback   []FixtureFeedback   `koanf:"feedback"`
}

// FixtureUser is a user entry.
type FixtureUser struct {
	ID          int64  `koanf:"id"`
	FullName    string `koanf:"full_name"`
	Role        string `koanf:"role"`
	IsSuperuser bool   `koanf:"is_superuser"`
}

// FixtureCourse is a course entry.
type FixtureCourse struct {
	ID        int64  `koanf:"id"`
	Name      string `koanf:"name"`
	TeacherID *int64 `koanf:"teacher_id"`
}

// FixtureLesson is a lesson entry. Date uses the 2006-01-02 layout.
type FixtureLesson struct {
	ID       int64  `koanf:"id"`
	CourseID int64  `koanf:"course_id"`
	Date     string `koanf:"date"`
}

// FixtureAttendance is an attendance entry.
type FixtureAttendance struct {
	StudentID int64  `koanf:"student_id"`
	LessonID  int64  `koanf:"lesson_id"`
	Status    string `koanf:"status"`
}

// FixtureFeedback is a feedback entry.
type FixtureFeedback struct {
	ID        int64   `koanf:"id"`
	StudentID int64   `koanf:"student_id"`
	LessonID  int64   `koanf:"lesson_id"`
	Rating    float64 `koanf:"rating"`
	Hidden    bool    `koanf:"hidden"`
}

// MemoryStore is an immutable in-memory Store.
type MemoryStore struct {
	users      map[int64]attendance.User
	courses    []attendance.Course
	lessons    []attendance.Lesson
	attendance []attendance.Record
	feedback   []attendance.Feedback
	teacherOf  map[int64]*int64
}

// LoadFixtures reads a YAML fixtures file into a MemoryStore.
func LoadFixtures(path string) (*MemoryStore, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFixtures, path, err)
	}
	var fx Fixtures
	if err := k.UnmarshalWithConf("", &fx, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFixtures, path, err)
	}
	return NewMemoryStore(fx)
}

// NewMemoryStore indexes fixtures. Attendance and feedback must reference
// known lessons and lessons known courses.
func NewMemoryStore(fx Fixtures) (*MemoryStore, error) {
	s := &MemoryStore{
		users:     make(map[int64]attendance.User, len(fx.Users)),
		teacherOf: make(map[int64]*int64, len(fx.Courses)),
	}
	for _, u := range fx.Users {
		s.users[u.ID] = attendance.User{ID: u.ID, FullName: u.FullName, Role: u.Role, IsSuperuser: u.IsSuperuser}
	}
	for _, c := range fx.Courses {
		s.courses = append(s.courses, attendance.Course{ID: c.ID, Name: c.Name, TeacherID: c.TeacherID})
		s.teacherOf[c.ID] = c.TeacherID
	}
	sort.SliceStable(s.courses, func(i, j int) bool { return s.courses[i].Name < s.courses[j].Name })

	lessons := make(map[int64]attendance.Lesson, len(fx.Lessons))
	for _, l := range fx.Lessons {
		if _, ok := s.teacherOf[l.CourseID]; !ok {
			return nil, fmt.Errorf("%w: lesson %d references unknown course %d", ErrLoadFixtures, l.ID, l.CourseID)
		}
		d, err := time.Parse(time.DateOnly, l.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: lesson %d date: %w", ErrLoadFixtures, l.ID, err)
		}
		lesson := attendance.Lesson{ID: l.ID, CourseID: l.CourseID, Date: d}
		lessons[l.ID] = lesson
		s.lessons = append(s.lessons, lesson)
	}
	sort.SliceStable(s.lessons, func(i, j int) bool { return s.lessons[i].Date.Before(s.lessons[j].Date) })

	for _, a := range fx.Attendance {
		l, ok := lessons[a.LessonID]
		if !ok {
			return nil, fmt.Errorf("%w: attendance references unknown lesson %d", ErrLoadFixtures, a.LessonID)
		}
		s.attendance = append(s.attendance, attendance.Record{
			StudentID:  a.StudentID,
			CourseID:   l.CourseID,
			LessonID:   l.ID,
			LessonDate: l.Date,
			Status:     a.Status,
		})
	}
	sort.SliceStable(s.attendance, func(i, j int) bool {
		a, b := s.attendance[i], s.attendance[j]
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

	for _, f := range fx.Feedback {
		l, ok := lessons[f.LessonID]
		if !ok {
			return nil, fmt.Errorf("%w: feedback references unknown lesson %d", ErrLoadFixtures, f.LessonID)
		}
		s.feedback = append(s.feedback, attendance.Feedback{
			ID:         f.ID,
			LessonID:   l.ID,
			CourseID:   l.CourseID,
			StudentID:  f.StudentID,
			LessonDate: l.Date,
			Rating:     f.Rating,
			Hidden:     f.Hidden,
		})
	}
	return s, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// inScope applies the course, teacher and date parts of f.
func (s *MemoryStore) inScope(f access.Filter, courseID int64, d time.Time) bool {
	if !f.MatchesCourse(courseID) || !f.MatchesDate(d) {
		return false
	}
	if f.TeacherID != nil {
		t := s.teacherOf[courseID]
		if t == nil || *t != *f.TeacherID {
			return false
		}
	}
	return true
}

// Courses implements Store.
func (s *MemoryStore) Courses(ctx context.Context, teacherID *int64) ([]attendance.Course, error) {
	defer observe("courses", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]attendance.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if teacherID != nil && (c.TeacherID == nil || *c.TeacherID != *teacherID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Lessons implements Store.
func (s *MemoryStore) Lessons(ctx context.Context, f access.Filter) ([]attendance.Lesson, error) {
	defer observe("lessons", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	out := []attendance.Lesson{}
	for _, l := range s.lessons {
		if s.inScope(f, l.CourseID, l.Date) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Attendance implements Store.
func (s *MemoryStore) Attendance(ctx context.Context, f access.Filter) ([]attendance.Record, error) {
	defer observe("attendance", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	out := []attendance.Record{}
	for _, r := range s.attendance {
		if s.inScope(f, r.CourseID, r.LessonDate) && f.MatchesStudent(r.StudentID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Feedback implements Store.
func (s *MemoryStore) Feedback(ctx context.Context, f access.Filter) ([]attendance.Feedback, error) {
	defer observe("feedback", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	out := []attendance.Feedback{}
	for _, r := range s.feedback {
		if !r.Hidden && s.inScope(f, r.CourseID, r.LessonDate) && f.MatchesStudent(r.StudentID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// User implements Store.
func (s *MemoryStore) User(ctx context.Context, id int64) (attendance.User, error) {
	if err := ctx.Err(); err != nil {
		return attendance.User{}, err
	}
	u, ok := s.users[id]
	if !ok {
		return attendance.User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return u, nil
}

// StudentNames implements Store.
func (s *MemoryStore) StudentNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok && strings.TrimSpace(u.FullName) != "" {
			out[id] = u.FullName
		}
	}
	return out, nil
}

// CourseNames implements Store.
func (s *MemoryStore) CourseNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[int64]string, len(ids))
	for _, c := range s.courses {
		if _, ok := want[c.ID]; ok && strings.TrimSpace(c.Name) != "" {
			out[c.ID] = c.Name
		}
	}
	return out, nil
}
