package api

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/domain/risk"
)

const dateLayout = time.DateOnly

// analyticsQuery mirrors the query string of the analytics endpoints.
type analyticsQuery struct {
	CourseID string `json:"course_id" validate:"omitempty,number"`
	FromDate string `json:"from_date" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `json:"to_date" validate:"omitempty,datetime=2006-01-02"`
	Scope    string `json:"scope" validate:"omitempty,max=32"`
	K        string `json:"k" validate:"omitempty,numeric"`
	Limit    string `json:"limit" validate:"omitempty,numeric"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateDateRange, analyticsQuery{})
	return v
}

// validateDateRange rejects from_date after to_date.
func validateDateRange(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(analyticsQuery)
	if !ok || q.FromDate == "" || q.ToDate == "" {
		return
	}
	from, err1 := time.Parse(dateLayout, q.FromDate)
	to, err2 := time.Parse(dateLayout, q.ToDate)
	if err1 == nil && err2 == nil && from.After(to) {
		sl.ReportError(q.ToDate, "to_date", "ToDate", "gtefield", "from_date")
	}
}

func bindQuery(values url.Values) analyticsQuery {
	return analyticsQuery{
		CourseID: strings.TrimSpace(values.Get("course_id")),
		FromDate: strings.TrimSpace(values.Get("from_date")),
		ToDate:   strings.TrimSpace(values.Get("to_date")),
		Scope:    strings.TrimSpace(values.Get("scope")),
		K:        strings.TrimSpace(values.Get("k")),
		Limit:    strings.TrimSpace(values.Get("limit")),
	}
}

// describe flattens validation errors into a single message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			parts = append(parts, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", fe.Field()))
		case "gtefield":
			parts = append(parts, fmt.Sprintf("%s must not be before %s", fe.Field(), fe.Param()))
		case "number", "numeric":
			parts = append(parts, fmt.Sprintf("%s must be an integer", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

func optionalID(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// optionalClamped parses s and bounds it into [lo, hi]. Empty and zero yield
// zero so the service default applies. Values beyond the int range clamp to
// the bound on their side.
func optionalClamped(s string, lo, hi int) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	switch {
	case errors.Is(err, strconv.ErrRange):
		if strings.HasPrefix(s, "-") {
			return lo, nil
		}
		return hi, nil
	case err != nil:
		return 0, err
	case n == 0:
		return 0, nil
	}
	return max(lo, min(hi, n)), nil
}

type parsedQuery struct {
	courseID *int64
	from, to *time.Time
	scope    string
	k, limit int
}

func (h *AnalyticsHandler) parse(values url.Values) (parsedQuery, error) {
	q := bindQuery(values)
	if err := h.validate.Struct(q); err != nil {
		return parsedQuery{}, describe(err)
	}
	var (
		out parsedQuery
		err error
	)
	if out.courseID, err = optionalID(q.CourseID); err != nil {
		return parsedQuery{}, fmt.Errorf("course_id: %w", err)
	}
	if out.from, err = optionalDate(q.FromDate); err != nil {
		return parsedQuery{}, fmt.Errorf("from_date: %w", err)
	}
	if out.to, err = optionalDate(q.ToDate); err != nil {
		return parsedQuery{}, fmt.Errorf("to_date: %w", err)
	}
	if out.k, err = optionalClamped(q.K, risk.MinWindow, risk.MaxWindow); err != nil {
		return parsedQuery{}, fmt.Errorf("k: %w", err)
	}
	if out.limit, err = optionalClamped(q.Limit, risk.MinLimit, risk.MaxLimit); err != nil {
		return parsedQuery{}, fmt.Errorf("limit: %w", err)
	}
	out.scope = q.Scope
	return out, nil
}

func (p parsedQuery) risk() service.RiskQuery {
	return service.RiskQuery{CourseID: p.courseID, From: p.from, To: p.to, Scope: p.scope, K: p.k, Limit: p.limit}
}

func (p parsedQuery) overview() service.OverviewQuery {
	return service.OverviewQuery{CourseID: p.courseID, From: p.from, To: p.to, Scope: p.scope}
}
