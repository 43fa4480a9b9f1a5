// Package classifier defines the binary classifier contract used by the risk
// estimator and ships a deterministic logistic regression implementation.
package classifier

import "context"

// Model is a fitted classifier.
type Model interface {
	// PredictProba returns the probability of the positive class for x.
	PredictProba(x []float64) (float64, error)
}

// Classifier fits a Model from labelled samples.
type Classifier interface {
	// Name identifies the algorithm in responses.
	Name() string
	// Fit trains on rows X with labels y, honoring ctx for cancellation.
	Fit(ctx context.Context, X [][]float64, y []bool) (Model, error)
}
