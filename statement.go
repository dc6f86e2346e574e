package cyphergremlin

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/rlch/cypher-gremlin/cypher"
)

// Statement is a Cypher query with its parameters. It is immutable; the
// With methods return modified copies.
type Statement struct {
	query      string
	parameters map[string]any
	timeout    time.Duration
	graph      string
}

// NewStatement creates a statement without parameters.
func NewStatement(query string) Statement {
	return Statement{query: query}
}

// Query returns the Cypher text.
func (s Statement) Query() string { return s.query }

// Parameters returns a copy of the bound parameters.
func (s Statement) Parameters() map[string]any { return maps.Clone(s.parameters) }

// Timeout returns the server-side evaluation timeout, or zero for the server default.
func (s Statement) Timeout() time.Duration { return s.timeout }

// Graph returns the target graph name, or empty for the server default.
func (s Statement) Graph() string { return s.graph }

// WithParameters returns a copy with params added to the bound parameters.
func (s Statement) WithParameters(params map[string]any) Statement {
	merged := make(map[string]any, len(s.parameters)+len(params))
	maps.Copy(merged, s.parameters)
	maps.Copy(merged, params)
	s.parameters = merged

	return s
}

// WithParameter returns a copy with one more bound parameter.
func (s Statement) WithParameter(name string, value any) Statement {
	return s.WithParameters(map[string]any{name: value})
}

// WithTimeout returns a copy with an evaluation timeout.
func (s Statement) WithTimeout(d time.Duration) Statement {
	s.timeout = d

	return s
}

// WithGraph returns a copy that targets the named graph.
func (s Statement) WithGraph(name string) Statement {
	s.graph = name

	return s
}

// Explain returns a copy that asks for the query plan instead of results.
func (s Statement) Explain() Statement {
	if s.IsExplain() {
		return s
	}

	s.query = "EXPLAIN\n" + s.query

	return s
}

// IsExplain reports whether the statement starts with EXPLAIN.
func (s Statement) IsExplain() bool {
	info, err := cypher.Scan(s.query)
	if err != nil {
		fields := strings.Fields(s.query)

		return len(fields) > 0 && strings.EqualFold(fields[0], "EXPLAIN")
	}

	return info.Explain
}

// Validate checks that every $parameter the query references is bound.
func (s Statement) Validate() error {
	info, err := cypher.Scan(s.query)
	if err != nil {
		return err
	}

	var missing []string

	for _, p := range info.Parameters {
		if _, ok := s.parameters[p]; !ok {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: $%s", ErrMissingParameter, strings.Join(missing, ", $"))
	}

	return nil
}

func (s Statement) String() string { return s.query }
