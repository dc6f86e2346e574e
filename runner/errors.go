package runner

import "errors"

// Sentinel errors for the runner package.
var (
	// ErrMaxFailures is returned when the max failure limit is reached.
	ErrMaxFailures = errors.New("runner: max failures reached")

	// ErrNoClient is returned when no client is configured.
	ErrNoClient = errors.New("runner: no client configured")

	// ErrExpectation is returned when an expectation does not hold.
	ErrExpectation = errors.New("runner: expectation failed")

	// ErrInvalidExpect is returned when an expectation cannot be compiled or evaluated.
	ErrInvalidExpect = errors.New("runner: invalid expectation")

	// ErrInvalidDirective is returned for a malformed comment directive.
	ErrInvalidDirective = errors.New("runner: invalid directive")
)
