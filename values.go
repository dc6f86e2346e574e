package cyphergremlin

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Node is a graph node in a result row.
type Node struct {
	ID     any
	Labels []string
	Props  map[string]any
}

func (n Node) String() string {
	var b strings.Builder

	b.WriteByte('(')
	b.WriteString(formatID(n.ID))

	for _, l := range n.Labels {
		b.WriteByte(':')
		b.WriteString(l)
	}

	writeProps(&b, n.Props)
	b.WriteByte(')')

	return b.String()
}

// Relationship is a graph relationship in a result row.
type Relationship struct {
	ID      any
	Type    string
	StartID any
	EndID   any
	Props   map[string]any
}

func (r Relationship) String() string {
	return fmt.Sprintf("(%s)-%s->(%s)", formatID(r.StartID), r.body(), formatID(r.EndID))
}

func (r Relationship) body() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(formatID(r.ID))

	if r.Type != "" {
		b.WriteByte(':')
		b.WriteString(r.Type)
	}

	writeProps(&b, r.Props)
	b.WriteByte(']')

	return b.String()
}

// Path is an alternating sequence of nodes and relationships. It always has
// one more node than relationships.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// Len returns the number of relationships.
func (p Path) Len() int { return len(p.Relationships) }

func (p Path) String() string {
	var b strings.Builder

	for i, n := range p.Nodes {
		b.WriteString(n.String())

		if i >= len(p.Relationships) {
			break
		}

		r := p.Relationships[i]
		if sameID(r.EndID, n.ID) && !sameID(r.StartID, n.ID) {
			b.WriteString("<-" + r.body() + "-")
		} else {
			b.WriteString("-" + r.body() + "->")
		}
	}

	return b.String()
}

// sameID compares element ids, which may be lists or maps.
func sameID(a, b any) bool {
	return a != nil && b != nil && reflect.DeepEqual(a, b)
}

func formatID(id any) string {
	if id == nil {
		return ""
	}

	return fmt.Sprint(id)
}

func writeProps(b *strings.Builder, props map[string]any) {
	if len(props) == 0 {
		return
	}

	b.WriteString(" {")

	for i, k := range slices.Sorted(maps.Keys(props)) {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(formatNested(props[k]))
	}

	b.WriteByte('}')
}

// FormatValue renders a row value for display. Top-level strings are not quoted.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return formatNested(v)
}

func formatNested(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = formatNested(item)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		var b strings.Builder

		writeProps(&b, x)

		return "{" + strings.TrimSuffix(strings.TrimPrefix(b.String(), " {"), "}") + "}"
	default:
		return fmt.Sprint(v)
	}
}
