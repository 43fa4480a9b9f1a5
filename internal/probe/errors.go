package probe

import "errors"

var (
	// ErrUnexpectedStatus is returned when the server answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrViolation is returned when a response breaks a ranking or bounds guarantee.
	ErrViolation = errors.New("response violation")
	// ErrNonDeterministic is returned when repeated requests disagree.
	ErrNonDeterministic = errors.New("non-deterministic response")
)
