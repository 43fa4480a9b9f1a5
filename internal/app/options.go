package service

import (
	"github.com/okian/rollcall/internal/adapters/cache"
	repository "github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/domain/risk"
	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the attendance store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithNameSource sets where display names are resolved. Defaults to the store.
func WithNameSource(names cache.NameSource) Option {
	return func(s *Service) {
		s.names = names
	}
}

// WithEstimator replaces the estimator built on Start.
func WithEstimator(e *risk.Estimator) Option {
	return func(s *Service) {
		s.estimator = e
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultWindow sets k used when a request omits it.
func WithDefaultWindow(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.defaultWindow = risk.ClampWindow(k)
		}
	}
}

// WithDefaultLimit sets the row limit used when a request omits it.
func WithDefaultLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.defaultLimit = risk.ClampLimit(limit)
		}
	}
}

// WithMaxTrainingIterations bounds the Newton iterations of the classifier
// built on Start.
func WithMaxTrainingIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}
