package repository

import (
	"time"

	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithQueryTimeout bounds every query. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d >= 0 {
			s.queryTimeout = d
		}
	}
}

// WithLogger sets the logger used for query diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}
