package cyphergremlin_test

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cg "github.com/rlch/cypher-gremlin"
	"github.com/rlch/cypher-gremlin/gremlin"
	"github.com/rlch/cypher-gremlin/gremlintest"
)

func TestIsNull(t *testing.T) {
	t.Parallel()

	assert.True(t, cg.IsNull("  cypher.null"))
	assert.True(t, cg.IsNull(" cypher.null"))
	assert.False(t, cg.IsNull("cypher.null"))
	assert.False(t, cg.IsNull("null"))
	assert.False(t, cg.IsNull(nil))
	assert.False(t, cg.IsNull(1))
}

func TestNormalizeValue_Scalars(t *testing.T) {
	t.Parallel()

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"null token", gremlintest.Null, nil},
		{"nil", nil, nil},
		{"string", "marko", "marko"},
		{"int32 widens", int32(29), int64(29)},
		{"int16 widens", int16(-3), int64(-3)},
		{"int64 stays", int64(7), int64(7)},
		{"float32 widens exactly", float32(0.4), 0.4},
		{"float64 stays", 0.5, 0.5},
		{"small bigint", big.NewInt(42), int64(42)},
		{"huge bigint", huge, huge},
		{"bool", true, true},
		{"list", []any{int32(1), gremlintest.Null, "a"}, []any{int64(1), nil, "a"}},
		{
			"plain map",
			gremlin.NewMap("a", int32(1), "b", gremlintest.Null),
			map[string]any{"a": int64(1), "b": nil},
		},
		{"vertex property", gremlin.VertexProperty{ID: int64(1), Label: "name", Value: "lop"}, "lop"},
		{"property", gremlin.Property{Key: "weight", Value: float32(0.5)}, 0.5},
		{"traverser", gremlin.Traverser{Bulk: 2, Value: int32(3)}, int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := cg.NormalizeValue(tt.in)
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
				t.Errorf("NormalizeValue() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeValue_Projections(t *testing.T) {
	t.Parallel()

	g := gremlintest.Modern()
	marko, _ := g.Vertex(1)
	lop, _ := g.Vertex(3)
	created, _ := g.Edge(9)

	markoNode := cg.Node{ID: int64(1), Labels: []string{"person"}, Props: map[string]any{"name": "marko", "age": int64(29)}}
	lopNode := cg.Node{ID: int64(3), Labels: []string{"software"}, Props: map[string]any{"name": "lop", "lang": "java"}}
	createdRel := cg.Relationship{ID: int64(9), Type: "created", StartID: int64(1), EndID: int64(3), Props: map[string]any{"weight": 0.4}}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"node projection", gremlintest.NodeProjection(marko), markoNode},
		{"relationship projection", gremlintest.RelationshipProjection(created), createdRel},
		{"vertex", marko, markoNode},
		{"edge", created, createdRel},
		{
			"path of projections",
			[]any{gremlintest.NodeProjection(marko), gremlintest.RelationshipProjection(created), gremlintest.NodeProjection(lop)},
			cg.Path{Nodes: []cg.Node{markoNode, lopNode}, Relationships: []cg.Relationship{createdRel}},
		},
		{
			"path object",
			gremlin.Path{Objects: []any{marko, created, lop}},
			cg.Path{Nodes: []cg.Node{markoNode, lopNode}, Relationships: []cg.Relationship{createdRel}},
		},
		{
			"single node list is not a path",
			[]any{gremlintest.NodeProjection(lop)},
			[]any{lopNode},
		},
		{
			"multi label node",
			gremlin.NewMap(gremlintest.KeyType, "node", gremlintest.KeyID, int64(5), gremlintest.KeyLabel, "b::a"),
			cg.Node{ID: int64(5), Labels: []string{"a", "b"}, Props: map[string]any{}},
		},
		{
			"unlabelled node",
			gremlin.NewMap(gremlintest.KeyType, "node", gremlintest.KeyID, int64(5), gremlintest.KeyLabel, "vertex"),
			cg.Node{ID: int64(5), Labels: []string{}, Props: map[string]any{}},
		},
		{
			"single valued property list collapses and nulls are dropped",
			gremlin.NewMap(
				gremlintest.KeyType, "node", gremlintest.KeyID, int64(5), gremlintest.KeyLabel, "x",
				"name", []any{"one"}, "tags", []any{"a", "b"}, "gone", gremlintest.Null,
			),
			cg.Node{ID: int64(5), Labels: []string{"x"}, Props: map[string]any{"name": "one", "tags": []any{"a", "b"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, cg.NormalizeValue(tt.in)); diff != "" {
				t.Errorf("NormalizeValue() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeValue_PathFillsEndpoints(t *testing.T) {
	t.Parallel()

	a := gremlin.NewMap(gremlintest.KeyType, "node", gremlintest.KeyID, int64(1), gremlintest.KeyLabel, "a")
	r := gremlin.NewMap(gremlintest.KeyType, "relationship", gremlintest.KeyID, int64(9), gremlintest.KeyLabel, "r")
	b := gremlin.NewMap(gremlintest.KeyType, "node", gremlintest.KeyID, int64(2), gremlintest.KeyLabel, "b")

	got, ok := cg.NormalizeValue([]any{a, r, b}).(cg.Path)
	require.True(t, ok)
	require.Len(t, got.Relationships, 1)
	assert.Equal(t, int64(1), got.Relationships[0].StartID)
	assert.Equal(t, int64(2), got.Relationships[0].EndID)
	assert.Equal(t, 1, got.Len())
}

func TestNormalizeValue_PathWithListIDs(t *testing.T) {
	t.Parallel()

	a := gremlin.NewMap(gremlintest.KeyType, "node", gremlintest.KeyID, []any{int64(1), "a"}, gremlintest.KeyLabel, "a")
	r := gremlin.NewMap(gremlintest.KeyType, "relationship", gremlintest.KeyID, int64(9), gremlintest.KeyLabel, "r")
	b := gremlin.NewMap(gremlintest.KeyType, "node", gremlintest.KeyID, []any{int64(2), "b"}, gremlintest.KeyLabel, "b")

	got, ok := cg.NormalizeValue([]any{a, r, b}).(cg.Path)
	require.True(t, ok)

	row := cg.NewRow([]string{"p"}, []any{got})

	assert.NotPanics(t, func() { _ = row.String() })
	assert.Equal(t, "{p: ([1 a]:a)-[9:r]->([2 b]:b)}", row.String())
}

func TestNormalizeRow(t *testing.T) {
	t.Parallel()

	row, err := cg.NormalizeRow(gremlin.NewMap("b", int32(1), "a", gremlintest.Null))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, row.Keys())
	assert.Equal(t, []any{int64(1), nil}, row.Values())

	row, err = cg.NormalizeRow(map[string]any{"z": "last", "a": "first"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z"}, row.Keys())

	_, err = cg.NormalizeRow("not a row")
	require.ErrorIs(t, err, cg.ErrMalformedRow)
}
