package gremlin

import (
	"github.com/google/uuid"
)

// StatusCode is a Gremlin Server response status.
type StatusCode int

// Response status codes.
const (
	StatusSuccess                 StatusCode = 200
	StatusNoContent               StatusCode = 204
	StatusPartialContent          StatusCode = 206
	StatusUnauthorized            StatusCode = 401
	StatusForbidden               StatusCode = 403
	StatusAuthenticate            StatusCode = 407
	StatusMalformedRequest        StatusCode = 498
	StatusInvalidRequestArguments StatusCode = 499
	StatusServerError             StatusCode = 500
	StatusScriptEvaluationError   StatusCode = 597
	StatusServerTimeout           StatusCode = 598
	StatusSerializationError      StatusCode = 599
)

// Success reports a final, successful status.
func (c StatusCode) Success() bool {
	return c == StatusSuccess || c == StatusNoContent
}

// Partial reports that more responses follow for the same request.
func (c StatusCode) Partial() bool {
	return c == StatusPartialContent
}

// Terminal reports that no more responses follow for the request.
func (c StatusCode) Terminal() bool {
	return c != StatusPartialContent && c != StatusAuthenticate
}

func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "success"
	case StatusNoContent:
		return "no content"
	case StatusPartialContent:
		return "partial content"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusForbidden:
		return "forbidden"
	case StatusAuthenticate:
		return "authenticate"
	case StatusMalformedRequest:
		return "malformed request"
	case StatusInvalidRequestArguments:
		return "invalid request arguments"
	case StatusServerError:
		return "server error"
	case StatusScriptEvaluationError:
		return "script evaluation error"
	case StatusServerTimeout:
		return "server timeout"
	case StatusSerializationError:
		return "serialization error"
	default:
		return "unknown"
	}
}

// Status is the status block of a response.
type Status struct {
	Code       StatusCode
	Message    string
	Attributes map[string]any
}

// Result is the result block of a response.
type Result struct {
	Data any
	Meta map[string]any
}

// ResponseMessage is a single frame received from Gremlin Server.
type ResponseMessage struct {
	RequestID uuid.UUID
	Status    Status
	Result    Result
}

// Items flattens the result data into individual items. Traversers are
// expanded by their bulk, capped at MaxBulk.
func (m *ResponseMessage) Items() []any {
	var items []any

	switch data := m.Result.Data.(type) {
	case nil:
		return nil
	case []any:
		for _, d := range data {
			items = appendItem(items, d)
		}
	default:
		items = appendItem(items, data)
	}

	return items
}

func appendItem(items []any, v any) []any {
	t, ok := v.(Traverser)
	if !ok {
		return append(items, v)
	}

	bulk := min(max(t.Bulk, 1), MaxBulk)
	for range bulk {
		items = append(items, t.Value)
	}

	return items
}
