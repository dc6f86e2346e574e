// Package gremlin implements the Gremlin Server WebSocket protocol: request and
// response messages, GraphSON serialization and a multiplexing connection.
package gremlin

import (
	"maps"

	"github.com/google/uuid"
)

// Request ops.
const (
	OpsEval           = "eval"
	OpsAuthentication = "authentication"
)

// Request argument names.
const (
	ArgsGremlin           = "gremlin"
	ArgsBindings          = "bindings"
	ArgsAliases           = "aliases"
	ArgsGraph             = "graph"
	ArgsEvalTimeout       = "evaluationTimeout"
	ArgsBatchSize         = "batchSize"
	ArgsSasl              = "sasl"
	ArgsSaslMechanism     = "saslMechanism"
	ArgsLanguage          = "language"
	ValTraversalSourceKey = "g"
)

// Op processor names understood by Gremlin Server.
const (
	ProcessorStandard  = ""
	ProcessorTraversal = "traversal"
	ProcessorSession   = "session"
	ProcessorCypher    = "cypher"
)

// RequestMessage is a single request sent to Gremlin Server.
// A built message must not be modified.
type RequestMessage struct {
	RequestID uuid.UUID
	Op        string
	Processor string
	Args      map[string]any
}

// Arg returns the named argument.
func (m *RequestMessage) Arg(name string) (any, bool) {
	v, ok := m.Args[name]

	return v, ok
}

// RequestBuilder assembles a RequestMessage.
type RequestBuilder struct {
	msg RequestMessage
}

// NewRequest starts a request for the given op.
func NewRequest(op string) *RequestBuilder {
	return &RequestBuilder{msg: RequestMessage{
		Op:   op,
		Args: make(map[string]any),
	}}
}

// Processor selects the server-side op processor.
func (b *RequestBuilder) Processor(name string) *RequestBuilder {
	b.msg.Processor = name

	return b
}

// RequestID overrides the generated request id.
func (b *RequestBuilder) RequestID(id uuid.UUID) *RequestBuilder {
	b.msg.RequestID = id

	return b
}

// Arg adds an argument.
func (b *RequestBuilder) Arg(name string, value any) *RequestBuilder {
	b.msg.Args[name] = value

	return b
}

// Build returns the finished message. A random id is assigned if none was set.
func (b *RequestBuilder) Build() *RequestMessage {
	msg := b.msg
	msg.Args = maps.Clone(b.msg.Args)

	if msg.RequestID == uuid.Nil {
		msg.RequestID = uuid.New()
	}

	return &msg
}
