package cyphergremlin

import "errors"

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .cypher-gremlin.yaml is found.
	ErrConfigNotFound = errors.New("cyphergremlin: no .cypher-gremlin.yaml found")

	// ErrUnknownBackend is returned when an unregistered backend is requested.
	ErrUnknownBackend = errors.New("cyphergremlin: unknown backend")

	// ErrNoBackend is returned when the config names no backend.
	ErrNoBackend = errors.New("cyphergremlin: no backend configured")

	// ErrInvalidConfig is returned when a backend receives config it cannot use.
	ErrInvalidConfig = errors.New("cyphergremlin: invalid config")

	// ErrMissingParameter is returned when a statement references an unbound $parameter.
	ErrMissingParameter = errors.New("cyphergremlin: missing parameter")

	// ErrNoRows is returned by ResultSet.Single when the result is empty.
	ErrNoRows = errors.New("cyphergremlin: no rows in result")

	// ErrTooManyRows is returned by ResultSet.Single when more than one row arrives.
	ErrTooManyRows = errors.New("cyphergremlin: more than one row in result")

	// ErrResultClosed is returned when reading from a closed ResultSet.
	ErrResultClosed = errors.New("cyphergremlin: result set closed")

	// ErrMalformedRow is returned when a result item is not a column map.
	ErrMalformedRow = errors.New("cyphergremlin: malformed row")
)
