package gremlin

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors.
var (
	// ErrConnectionClosed is returned for requests on a closed or broken connection.
	ErrConnectionClosed = errors.New("gremlin: connection closed")

	// ErrStreamClosed is returned when reading from a stream the caller closed.
	ErrStreamClosed = errors.New("gremlin: stream closed")

	// ErrAuthRequired is returned when the server asks for credentials and none are configured.
	ErrAuthRequired = errors.New("gremlin: server requires authentication")

	// ErrDuplicateRequest is returned when a request id is already in flight.
	ErrDuplicateRequest = errors.New("gremlin: duplicate request id")

	// ErrUnsupportedType is returned when a value cannot be written as GraphSON.
	ErrUnsupportedType = errors.New("gremlin: unsupported type")

	// ErrMalformedMessage is returned when a frame cannot be decoded.
	ErrMalformedMessage = errors.New("gremlin: malformed message")

	// ErrUnknownSerializer is returned for an unrecognised serializer name.
	ErrUnknownSerializer = errors.New("gremlin: unknown serializer")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("gremlin: invalid config")
)

// ResponseError is a non-successful terminal response.
type ResponseError struct {
	RequestID  uuid.UUID
	Code       StatusCode
	Message    string
	Attributes map[string]any
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gremlin: server returned %d (%s)", e.Code, e.Code)
	}

	return fmt.Sprintf("gremlin: server returned %d (%s): %s", e.Code, e.Code, e.Message)
}

// Retryable reports whether resubmitting the same request may succeed.
func (e *ResponseError) Retryable() bool {
	return e.Code == StatusServerError || e.Code == StatusServerTimeout
}

// Is matches ErrAuthRequired for authentication failures.
func (e *ResponseError) Is(target error) bool {
	return target == ErrAuthRequired && (e.Code == StatusAuthenticate || e.Code == StatusUnauthorized)
}

func newResponseError(resp *ResponseMessage) *ResponseError {
	return &ResponseError{
		RequestID:  resp.RequestID,
		Code:       resp.Status.Code,
		Message:    resp.Status.Message,
		Attributes: resp.Status.Attributes,
	}
}
