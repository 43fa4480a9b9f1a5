package risk

import (
	"github.com/okian/rollcall/internal/domain/classifier"
	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithClassifier sets the classifier to train. Passing nil keeps the
// estimator heuristic-only.
func WithClassifier(c classifier.Classifier) Option {
	return func(e *Estimator) {
		e.classifier = c
	}
}

// WithMinTrainingSamples sets the minimum number of labelled windows
// required before a fit is attempted.
func WithMinTrainingSamples(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.minSamples = n
		}
	}
}

// WithLogger sets the logger used for training and scoring diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}
