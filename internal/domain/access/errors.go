package access

import "errors"

// Sentinel kinds for access errors.
var (
	ErrAccessDenied     = errors.New("course access denied")
	ErrInvalidDateRange = errors.New("from_date is after to_date")
)
