package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/domain/access"
	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
)

// AnalyticsDependencies defines the operations behind the analytics routes.
type AnalyticsDependencies interface {
	Risk(ctx context.Context, id access.Identity, q service.RiskQuery) (types.RiskResponse, error)
	Overview(ctx context.Context, id access.Identity, q service.OverviewQuery) (types.OverviewResponse, error)
}

// AnalyticsHandler handles the analytics routes.
type AnalyticsHandler struct {
	deps     AnalyticsDependencies
	validate *validator.Validate
	logger   logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies, log logger.Logger) *AnalyticsHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalyticsHandler{deps: deps, validate: newValidator(), logger: log}
}

// HandleRisk handles GET /api/v1/analytics/risk requests.
func (h *AnalyticsHandler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_risk"
	id, q, ok := h.prepare(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.Risk(r.Context(), id, q.risk())
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleOverview handles GET /api/v1/analytics/overview requests.
func (h *AnalyticsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_overview"
	id, q, ok := h.prepare(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.Overview(r.Context(), id, q.overview())
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AnalyticsHandler) prepare(w http.ResponseWriter, r *http.Request, op string) (access.Identity, parsedQuery, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return access.Identity{}, parsedQuery{}, false
	}
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, NewKind(op, ErrUnauthorized))
		return access.Identity{}, parsedQuery{}, false
	}
	q, err := h.parse(r.URL.Query())
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return access.Identity{}, parsedQuery{}, false
	}
	return id, q, true
}

func (h *AnalyticsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := classify(err); status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "analytics request failed",
			logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeError(w, err)
}
