package cyphergremlin

import (
	"fmt"
	"maps"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/rlch/cypher-gremlin/gremlin"
)

// Tokens the cypher processor embeds in results. Servers differ in how many
// leading spaces they use, so tokens are matched after trimming them.
const (
	tokenNull    = "cypher.null"
	tokenType    = "cypher.type"
	tokenID      = "cypher.id"
	tokenLabel   = "cypher.label"
	tokenInV     = "cypher.inv"
	tokenOutV    = "cypher.outv"
	tokenElement = "cypher.element"

	elementNode         = "node"
	elementRelationship = "relationship"

	defaultVertexLabel = "vertex"
	labelSeparator     = "::"
)

// token returns the token name of s if s is a space-prefixed cypher token.
func token(s string) (string, bool) {
	trimmed := strings.TrimLeft(s, " ")
	if len(trimmed) == len(s) || !strings.HasPrefix(trimmed, "cypher.") {
		return "", false
	}

	return trimmed, true
}

// IsNull reports whether v is the cypher processor's null token.
func IsNull(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}

	tok, ok := token(s)

	return ok && tok == tokenNull
}

// NormalizeRow converts one cypher processor result item, a map of column
// name to value, into a Row with normalized values.
func NormalizeRow(item any) (Row, error) {
	switch m := item.(type) {
	case *gremlin.Map:
		row := Row{keys: make([]string, m.Len()), values: make([]any, m.Len())}
		for i, k := range m.Keys {
			row.keys[i] = gremlin.KeyString(k)
			row.values[i] = NormalizeValue(m.Values[i])
		}

		return row, nil
	case map[string]any:
		keys := slices.Sorted(maps.Keys(m))
		row := Row{keys: keys, values: make([]any, len(keys))}

		for i, k := range keys {
			row.values[i] = NormalizeValue(m[k])
		}

		return row, nil
	default:
		return Row{}, fmt.Errorf("%w: %T", ErrMalformedRow, item)
	}
}

// NormalizeValue converts a decoded GraphSON value into its Cypher
// counterpart: null tokens become nil, integers widen to int64, floats to
// float64, and element projections, vertices and edges become Node,
// Relationship or Path values.
//
//nolint:gocyclo,cyclop // one case per value kind
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if IsNull(x) {
			return nil
		}

		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		// Shortest decimal form keeps 0.4f as 0.4 rather than 0.4000000059604645.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)

		return f
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}

		return x
	case *gremlin.Map:
		if el, ok := normalizeProjection(x); ok {
			return el
		}

		out := make(map[string]any, x.Len())
		for i, k := range x.Keys {
			out[gremlin.KeyString(k)] = NormalizeValue(x.Values[i])
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = NormalizeValue(val)
		}

		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = NormalizeValue(item)
		}

		if p, ok := asPath(out); ok {
			return p
		}

		return out
	case gremlin.Vertex:
		return nodeFromVertex(x)
	case gremlin.Edge:
		return relationshipFromEdge(x)
	case gremlin.VertexProperty:
		return NormalizeValue(x.Value)
	case gremlin.Property:
		return NormalizeValue(x.Value)
	case gremlin.Path:
		objects := make([]any, len(x.Objects))
		for i, o := range x.Objects {
			objects[i] = NormalizeValue(o)
		}

		if p, ok := asPath(objects); ok {
			return p
		}

		return objects
	case gremlin.Traverser:
		return NormalizeValue(x.Value)
	default:
		return v
	}
}

// normalizeProjection turns a map carrying a cypher.type token into a Node or
// Relationship.
func normalizeProjection(m *gremlin.Map) (any, bool) {
	var (
		kind, label string
		id, in, out any
		props       = make(map[string]any)
	)

	found := false

	for i, k := range m.Keys {
		key := gremlin.KeyString(k)
		val := m.Values[i]

		tok, ok := token(key)
		if !ok {
			setProp(props, key, val)

			continue
		}

		switch tok {
		case tokenType:
			kind, _ = val.(string)
			found = true
		case tokenID:
			id = NormalizeValue(val)
		case tokenLabel:
			label = labelString(val)
		case tokenInV:
			in = NormalizeValue(val)
		case tokenOutV:
			out = NormalizeValue(val)
		case tokenElement:
			// Older servers nest the element under its own key, keyed by
			// the id and label tokens.
			el, ok := val.(*gremlin.Map)
			if !ok {
				continue
			}

			for j, ek := range el.Keys {
				switch name := gremlin.KeyString(ek); name {
				case "id":
					id = NormalizeValue(el.Values[j])
				case "label":
					label = labelString(el.Values[j])
				default:
					setProp(props, name, el.Values[j])
				}
			}
		}
	}

	if !found {
		return nil, false
	}

	switch kind {
	case elementNode:
		return Node{ID: id, Labels: splitLabels(label), Props: props}, true
	case elementRelationship:
		return Relationship{ID: id, Type: label, StartID: out, EndID: in, Props: props}, true
	default:
		return nil, false
	}
}

// setProp stores a normalized element property. Single-valued lists, as
// returned for vertex properties, collapse to their value; nulls are omitted.
func setProp(props map[string]any, key string, val any) {
	if list, ok := val.([]any); ok && len(list) == 1 {
		val = list[0]
	}

	if n := NormalizeValue(val); n != nil {
		props[key] = n
	}
}

func labelString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, fmt.Sprint(p))
		}

		return strings.Join(parts, labelSeparator)
	default:
		return ""
	}
}

func splitLabels(label string) []string {
	if label == "" || label == defaultVertexLabel {
		return []string{}
	}

	labels := strings.Split(label, labelSeparator)
	slices.Sort(labels)

	return labels
}

func nodeFromVertex(v gremlin.Vertex) Node {
	n := Node{
		ID:     NormalizeValue(v.ID),
		Labels: splitLabels(v.Label),
		Props:  make(map[string]any, len(v.Properties)),
	}

	for key, vps := range v.Properties {
		switch len(vps) {
		case 0:
		case 1:
			if val := NormalizeValue(vps[0].Value); val != nil {
				n.Props[key] = val
			}
		default:
			list := make([]any, len(vps))
			for i, vp := range vps {
				list[i] = NormalizeValue(vp.Value)
			}

			n.Props[key] = list
		}
	}

	return n
}

func relationshipFromEdge(e gremlin.Edge) Relationship {
	r := Relationship{
		ID:      NormalizeValue(e.ID),
		Type:    e.Label,
		StartID: NormalizeValue(e.OutV),
		EndID:   NormalizeValue(e.InV),
		Props:   make(map[string]any, len(e.Properties)),
	}

	for key, p := range e.Properties {
		if val := NormalizeValue(p.Value); val != nil {
			r.Props[key] = val
		}
	}

	return r
}

// asPath recognizes an alternating node, relationship, node... list of at
// least one relationship.
func asPath(items []any) (Path, bool) {
	if len(items) < 3 || len(items)%2 == 0 {
		return Path{}, false
	}

	var p Path

	for i, item := range items {
		if i%2 == 0 {
			n, ok := item.(Node)
			if !ok {
				return Path{}, false
			}

			p.Nodes = append(p.Nodes, n)

			continue
		}

		r, ok := item.(Relationship)
		if !ok {
			return Path{}, false
		}

		p.Relationships = append(p.Relationships, r)
	}

	for i := range p.Relationships {
		r := &p.Relationships[i]
		if r.StartID == nil {
			r.StartID = p.Nodes[i].ID
		}

		if r.EndID == nil {
			r.EndID = p.Nodes[i+1].ID
		}
	}

	return p, true
}
