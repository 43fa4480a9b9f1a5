package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/pkg/logger"
)

const defaultQueryTimeout = 5 * time.Second

// SQLStore reads from PostgreSQL through database/sql.
type SQLStore struct {
	db           *sql.DB
	queryTimeout time.Duration
	logger       logger.Logger
}

// Open connects to databaseURL with the pgx driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewSQLStore(db, opts...), nil
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:           db,
		queryTimeout: defaultQueryTimeout,
		logger:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// columns names the filterable columns of a query.
type columns struct {
	course  string
	date    string
	teacher string
	student string
}

var lessonColumns = columns{course: "l.course_id", date: "l.date", teacher: "c.teacher_id"}

// whereClause renders f as a WHERE clause with positional parameters.
// Extra conditions are appended verbatim. An empty course restriction must
// be short-circuited by the caller.
func whereClause(f access.Filter, cols columns, extra ...string) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(f.CourseIDs) > 0 {
		ph := make([]string, len(f.CourseIDs))
		for i, id := range f.CourseIDs {
			ph[i] = next(id)
		}
		conds = append(conds, cols.course+" IN ("+strings.Join(ph, ", ")+")")
	}
	if f.From != nil {
		conds = append(conds, cols.date+" >= "+next(*f.From))
	}
	if f.To != nil {
		conds = append(conds, cols.date+" <= "+next(*f.To))
	}
	if f.TeacherID != nil && cols.teacher != "" {
		conds = append(conds, cols.teacher+" = "+next(*f.TeacherID))
	}
	if f.StudentID != nil && cols.student != "" {
		conds = append(conds, cols.student+" = "+next(*f.StudentID))
	}
	conds = append(conds, extra...)

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func inClause(col string, ids []int64) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	return col + " IN (" + strings.Join(ph, ", ") + ")", args
}

func (s *SQLStore) query(ctx context.Context, op, q string, args []any, scan func(*sql.Rows) error) error {
	defer observe(op, time.Now())
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logger.Error(ctx, "store query failed", logger.String("operation", op), logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("%w: %s scan: %w", ErrQuery, op, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
	}
	return nil
}

// Courses implements Store.
func (s *SQLStore) Courses(ctx context.Context, teacherID *int64) ([]attendance.Course, error) {
	q := "SELECT id, name, teacher_id FROM courses"
	var args []any
	if teacherID != nil {
		q += " WHERE teacher_id = $1"
		args = append(args, *teacherID)
	}
	q += " ORDER BY name ASC, id ASC"

	out := []attendance.Course{}
	err := s.query(ctx, "courses", q, args, func(rows *sql.Rows) error {
		var c attendance.Course
		var teacher sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &teacher); err != nil {
			return err
		}
		if teacher.Valid {
			t := teacher.Int64
			c.TeacherID = &t
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// Lessons implements Store.
func (s *SQLStore) Lessons(ctx context.Context, f access.Filter) ([]attendance.Lesson, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	out := []attendance.Lesson{}
	if matchesNothing(f) {
		return out, nil
	}
	where, args := whereClause(f, lessonColumns)
	q := "SELECT l.id, l.course_id, l.date FROM lessons l JOIN courses c ON c.id = l.course_id" +
		where + " ORDER BY l.date ASC, l.id ASC"

	err := s.query(ctx, "lessons", q, args, func(rows *sql.Rows) error {
		var l attendance.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Date); err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

// Attendance implements Store.
func (s *SQLStore) Attendance(ctx context.Context, f access.Filter) ([]attendance.Record, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	out := []attendance.Record{}
	if matchesNothing(f) {
		return out, nil
	}
	cols := lessonColumns
	cols.student = "a.student_id"
	where, args := whereClause(f, cols)
	q := "SELECT a.student_id, l.course_id, l.id, l.date, CAST(a.status AS TEXT)" +
		" FROM attendance a JOIN lessons l ON l.id = a.lesson_id JOIN courses c ON c.id = l.course_id" +
		where + " ORDER BY a.student_id ASC, l.course_id ASC, l.date ASC, l.id ASC"

	err := s.query(ctx, "attendance", q, args, func(rows *sql.Rows) error {
		var r attendance.Record
		var status sql.NullString
		if err := rows.Scan(&r.StudentID, &r.CourseID, &r.LessonID, &r.LessonDate, &status); err != nil {
			return err
		}
		r.Status = status.String
		out = append(out, r)
		return nil
	})
	return out, err
}

// Feedback implements Store.
func (s *SQLStore) Feedback(ctx context.Context, f access.Filter) ([]attendance.Feedback, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	out := []attendance.Feedback{}
	if matchesNothing(f) {
		return out, nil
	}
	cols := lessonColumns
	cols.student = "fb.student_id"
	where, args := whereClause(f, cols, "fb.is_hidden = FALSE")
	q := "SELECT fb.id, fb.lesson_id, l.course_id, fb.student_id, l.date, fb.rating" +
		" FROM feedback fb JOIN lessons l ON l.id = fb.lesson_id JOIN courses c ON c.id = l.course_id" +
		where + " ORDER BY l.date ASC, fb.id ASC"

	err := s.query(ctx, "feedback", q, args, func(rows *sql.Rows) error {
		var r attendance.Feedback
		if err := rows.Scan(&r.ID, &r.LessonID, &r.CourseID, &r.StudentID, &r.LessonDate, &r.Rating); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// User implements Store.
func (s *SQLStore) User(ctx context.Context, id int64) (attendance.User, error) {
	defer observe("user", time.Now())
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	var u attendance.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, COALESCE(full_name, ''), COALESCE(CAST(role AS TEXT), ''), is_superuser FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.FullName, &u.Role, &u.IsSuperuser)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return attendance.User{}, fmt.Errorf("%w: user: %w", ErrQuery, err)
	}
	return u, nil
}

// StudentNames implements Store.
func (s *SQLStore) StudentNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return s.names(ctx, "student_names", "users", "full_name", ids)
}

// CourseNames implements Store.
func (s *SQLStore) CourseNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return s.names(ctx, "course_names", "courses", "name", ids)
}

func (s *SQLStore) names(ctx context.Context, op, table, col string, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cond, args := inClause("id", ids)
	q := "SELECT id, " + col + " FROM " + table + " WHERE " + cond

	err := s.query(ctx, op, q, args, func(rows *sql.Rows) error {
		var id int64
		var name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		if n := strings.TrimSpace(name.String); n != "" {
			out[id] = name.String
		}
		return nil
	})
	return out, err
}
