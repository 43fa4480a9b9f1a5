package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrNoSamples     = errors.New("no training samples")
	ErrLabelMismatch = errors.New("label count does not match sample count")
	ErrSingleClass   = errors.New("training labels contain a single class")
	ErrFeatureArity  = errors.New("feature vector has unexpected length")
	ErrDiverged      = errors.New("classifier failed to converge")
	ErrNotFitted     = errors.New("classifier is not fitted")
)
