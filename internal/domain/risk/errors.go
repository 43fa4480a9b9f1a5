package risk

import "errors"

// Sentinel kinds for estimator errors. Neither escapes Estimate; they
// classify why the heuristic was used.
var (
	ErrInsufficientSamples = errors.New("not enough training samples")
	ErrFitPanicked         = errors.New("classifier fit panicked")
	ErrPredictPanicked     = errors.New("classifier prediction panicked")
)
