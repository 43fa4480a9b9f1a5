// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/rollcall/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	AnalyticsDependencies
	StatsProvider
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	auth             *Authenticator
	logger           logger.Logger
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	analyticsHandler *AnalyticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, auth *Authenticator, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		auth:             auth,
		logger:           log,
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		analyticsHandler: NewAnalyticsHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/ping", MetricsMiddleware(s.healthHandler.HandlePing, "ping"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/analytics/risk", s.protected(s.analyticsHandler.HandleRisk, "risk"))
	mux.HandleFunc("/api/v1/analytics/overview", s.protected(s.analyticsHandler.HandleOverview, "overview"))
}

func (s *Server) protected(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(s.auth.Middleware(h), endpoint), s.logger)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
