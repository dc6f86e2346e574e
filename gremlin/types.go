package gremlin

import (
	"fmt"
	"reflect"
)

// Map is an insertion-ordered map as carried by g:Map. Keys may be any
// decoded value, including ones that are not comparable.
type Map struct {
	Keys   []any
	Values []any
}

// NewMap builds a Map from alternating key/value pairs.
func NewMap(kv ...any) *Map {
	m := &Map{}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}

	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.Keys)
}

func (m *Map) index(key any) int {
	for i, k := range m.Keys {
		if reflect.DeepEqual(k, key) {
			return i
		}
	}

	return -1
}

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}

	if i := m.index(key); i >= 0 {
		return m.Values[i], true
	}

	return nil, false
}

// Set stores value under key, keeping the position of an existing key.
func (m *Map) Set(key, value any) {
	if i := m.index(key); i >= 0 {
		m.Values[i] = value

		return
	}

	m.Keys = append(m.Keys, key)
	m.Values = append(m.Values, value)
}

// StringMap converts the map to a Go map, stringifying keys.
func (m *Map) StringMap() map[string]any {
	out := make(map[string]any, m.Len())
	if m == nil {
		return out
	}

	for i, k := range m.Keys {
		out[KeyString(k)] = m.Values[i]
	}

	return out
}

// KeyString renders a map key as a string.
func KeyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}

	return fmt.Sprint(k)
}

// Vertex is a graph vertex.
type Vertex struct {
	ID         any
	Label      string
	Properties map[string][]VertexProperty
}

// Edge is a graph edge.
type Edge struct {
	ID         any
	Label      string
	InV        any
	InVLabel   string
	OutV       any
	OutVLabel  string
	Properties map[string]Property
}

// VertexProperty is a property attached to a vertex.
type VertexProperty struct {
	ID    any
	Label string
	Value any
}

// Property is a key/value property, usually of an edge.
type Property struct {
	Key   string
	Value any
}

// Path is a traversal path.
type Path struct {
	Labels  [][]string
	Objects []any
}

// MaxBulk is the largest Traverser bulk accepted from the server.
const MaxBulk = 1 << 16

// Traverser carries a value with its bulk.
type Traverser struct {
	Bulk  int64
	Value any
}

// Typed holds a GraphSON value of a type this package does not model.
type Typed struct {
	Type  string
	Value any
}
