package gremlintest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rlch/cypher-gremlin/gremlin"
)

// Null is the value the cypher processor returns for Cypher null.
const Null = "  cypher.null"

// Projection keys of nodes and relationships returned by the cypher processor.
const (
	KeyType  = " cypher.type"
	KeyID    = " cypher.id"
	KeyLabel = " cypher.label"
	KeyInV   = " cypher.inv"
	KeyOutV  = " cypher.outv"
)

// ModernNames are the name properties of the modern graph's vertices, in id order.
var ModernNames = []string{"marko", "vadas", "lop", "josh", "ripple", "peter"}

// Graph is a small in-memory property graph.
type Graph struct {
	Vertices []gremlin.Vertex
	Edges    []gremlin.Edge
}

// Modern returns the TinkerPop "modern" toy graph.
func Modern() *Graph {
	g := &Graph{}
	g.addVertex(1, "person", "name", "marko", "age", int32(29))
	g.addVertex(2, "person", "name", "vadas", "age", int32(27))
	g.addVertex(3, "software", "name", "lop", "lang", "java")
	g.addVertex(4, "person", "name", "josh", "age", int32(32))
	g.addVertex(5, "software", "name", "ripple", "lang", "java")
	g.addVertex(6, "person", "name", "peter", "age", int32(35))

	g.addEdge(7, "knows", 1, 2, 0.5)
	g.addEdge(8, "knows", 1, 4, 1.0)
	g.addEdge(9, "created", 1, 3, 0.4)
	g.addEdge(10, "created", 4, 5, 1.0)
	g.addEdge(11, "created", 4, 3, 0.4)
	g.addEdge(12, "created", 6, 3, 0.2)

	return g
}

func (g *Graph) addVertex(id int64, label string, kv ...any) {
	v := gremlin.Vertex{ID: id, Label: label, Properties: map[string][]gremlin.VertexProperty{}}

	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		v.Properties[key] = []gremlin.VertexProperty{{
			ID:    id*100 + int64(i/2),
			Label: key,
			Value: kv[i+1],
		}}
	}

	g.Vertices = append(g.Vertices, v)
}

func (g *Graph) addEdge(id int64, label string, out, in int64, weight float64) {
	outV, _ := g.Vertex(out)
	inV, _ := g.Vertex(in)

	g.Edges = append(g.Edges, gremlin.Edge{
		ID:        id,
		Label:     label,
		OutV:      out,
		OutVLabel: outV.Label,
		InV:       in,
		InVLabel:  inV.Label,
		Properties: map[string]gremlin.Property{
			"weight": {Key: "weight", Value: weight},
		},
	})
}

// Vertex looks a vertex up by id.
func (g *Graph) Vertex(id int64) (gremlin.Vertex, bool) {
	for _, v := range g.Vertices {
		if v.ID == id {
			return v, true
		}
	}

	return gremlin.Vertex{}, false
}

// Edge looks an edge up by id.
func (g *Graph) Edge(id int64) (gremlin.Edge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}

	return gremlin.Edge{}, false
}

// FindByName returns the vertices whose name property equals name.
func (g *Graph) FindByName(name string) []gremlin.Vertex {
	var out []gremlin.Vertex

	for _, v := range g.Vertices {
		if Prop(v, "name") == name {
			out = append(out, v)
		}
	}

	return out
}

// Prop returns a single-valued vertex property, or Null when absent.
func Prop(v gremlin.Vertex, key string) any {
	props := v.Properties[key]
	if len(props) == 0 {
		return Null
	}

	return props[0].Value
}

// NodeProjection renders v the way the cypher processor returns a node.
func NodeProjection(v gremlin.Vertex) *gremlin.Map {
	m := gremlin.NewMap(KeyType, "node", KeyID, v.ID, KeyLabel, v.Label)

	for _, k := range slices.Sorted(maps.Keys(v.Properties)) {
		m.Set(k, Prop(v, k))
	}

	return m
}

// RelationshipProjection renders e the way the cypher processor returns a relationship.
func RelationshipProjection(e gremlin.Edge) *gremlin.Map {
	m := gremlin.NewMap(
		KeyType, "relationship",
		KeyID, e.ID,
		KeyLabel, e.Label,
		KeyInV, e.InV,
		KeyOutV, e.OutV,
	)

	for _, k := range slices.Sorted(maps.Keys(e.Properties)) {
		m.Set(k, e.Properties[k].Value)
	}

	return m
}

// Queries returns the canned cypher queries answered over g.
func (g *Graph) Queries() map[string]Query {
	return map[string]Query{
		"MATCH (n) RETURN n.name": {
			Translation: "g.V().as('n').select('n').map(__.project('n.name')" +
				".by(__.choose(neq('  cypher.null'), __.coalesce(__.values('name'), " +
				"__.constant('  cypher.null')), __.constant('  cypher.null'))))",
			Rows: func(map[string]any) ([]any, error) {
				rows := make([]any, 0, len(g.Vertices))
				for _, v := range g.Vertices {
					rows = append(rows, gremlin.NewMap("n.name", Prop(v, "name")))
				}

				return rows, nil
			},
		},
		"MATCH (n) RETURN n": {
			Translation: "g.V().as('n').select('n').map(__.project('n').by(__.valueMap().with(WithOptions.tokens)))",
			Rows: func(map[string]any) ([]any, error) {
				rows := make([]any, 0, len(g.Vertices))
				for _, v := range g.Vertices {
					rows = append(rows, gremlin.NewMap("n", NodeProjection(v)))
				}

				return rows, nil
			},
		},
		"MATCH (n {name: $name}) RETURN n.age AS age": {
			Translation: "g.V().as('n').where(__.select('n').values('name').is(eq(name)))" +
				".select('n').map(__.project('age').by(__.values('age')))",
			Rows: func(bindings map[string]any) ([]any, error) {
				name, ok := bindings["name"]
				if !ok {
					return nil, fmt.Errorf("expected parameter(s): name")
				}

				var rows []any
				for _, v := range g.FindByName(fmt.Sprint(name)) {
					rows = append(rows, gremlin.NewMap("age", Prop(v, "age")))
				}

				return rows, nil
			},
		},
		"MATCH (a)-[r:knows]->(b) RETURN a.name, r, b.name": {
			Translation: "g.V().as('a').outE('knows').as('r').inV().as('b')" +
				".select('a', 'r', 'b').map(__.project('a.name', 'r', 'b.name'))",
			Rows: func(map[string]any) ([]any, error) {
				var rows []any

				for _, e := range g.Edges {
					if e.Label != "knows" {
						continue
					}

					a, _ := g.Vertex(e.OutV.(int64))
					b, _ := g.Vertex(e.InV.(int64))
					rows = append(rows, gremlin.NewMap(
						"a.name", Prop(a, "name"),
						"r", RelationshipProjection(e),
						"b.name", Prop(b, "name"),
					))
				}

				return rows, nil
			},
		},
		"MATCH p = (a {name: 'marko'})-[:created]->(b) RETURN p": {
			Translation: "g.V().as('a').has('name', eq('marko')).outE('created').inV().as('b').path().as('p')" +
				".select('p').map(__.project('p').by(__.unfold().valueMap().with(WithOptions.tokens).fold()))",
			Rows: func(map[string]any) ([]any, error) {
				var rows []any

				for _, e := range g.Edges {
					if e.Label != "created" || e.OutV != int64(1) {
						continue
					}

					a, _ := g.Vertex(e.OutV.(int64))
					b, _ := g.Vertex(e.InV.(int64))
					rows = append(rows, gremlin.NewMap("p", []any{
						NodeProjection(a),
						RelationshipProjection(e),
						NodeProjection(b),
					}))
				}

				return rows, nil
			},
		},
		"MATCH (n) RETURN count(n) AS count": {
			Translation: "g.V().as('n').count().project('count')",
			Rows: func(map[string]any) ([]any, error) {
				return []any{gremlin.NewMap("count", int64(len(g.Vertices)))}, nil
			},
		},
		"MATCH (n:person) RETURN n.name AS name, n.age AS age": {
			Translation: "g.V().hasLabel('person').as('n').select('n').map(__.project('name', 'age')" +
				".by(__.values('name')).by(__.values('age')))",
			Rows: func(map[string]any) ([]any, error) {
				var rows []any

				for _, v := range g.Vertices {
					if v.Label == "person" {
						rows = append(rows, gremlin.NewMap("name", Prop(v, "name"), "age", Prop(v, "age")))
					}
				}

				return rows, nil
			},
		},
		"RETURN null AS nothing": {
			Translation: "g.inject('  cypher.start').project('nothing').by(__.constant('  cypher.null'))",
			Rows: func(map[string]any) ([]any, error) {
				return []any{gremlin.NewMap("nothing", Null)}, nil
			},
		},
		"MATCH (n) WHERE n.missing = 1 RETURN n": {
			Rows: func(map[string]any) ([]any, error) {
				return nil, nil
			},
		},
	}
}
