//nolint:testpackage
package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	rows := []cyphergremlin.Row{
		nameRow("marko", 29),
		nameRow("vadas", 27),
		nameRow("josh", 32),
	}
	columns := []string{"name", "age"}

	tests := []struct {
		name string
		src  string
		rows []cyphergremlin.Row
		want bool
	}{
		{"count", "count == 3", rows, true},
		{"count mismatch", "count == 4", rows, false},
		{"first", `first.name == "marko"`, rows, true},
		{"columns", `len(columns) == 2 && columns[0] == "name"`, rows, true},
		{"values", `"josh" in values("name")`, rows, true},
		{"all", "all(rows, .age > 20)", rows, true},
		{"any", "any(rows, .age > 30)", rows, true},
		{"empty count", "count == 0", nil, true},
		{"empty first", "len(first) == 0", nil, true},
		{"empty columns", "len(columns) == 2", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Check(tt.src, columns, tt.rows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "count ==="},
		{"not bool", "count + 1"},
		{"unknown name", "missing == 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Check(tt.src, nil, nil)
			require.ErrorIs(t, err, ErrInvalidExpect)
			assert.Contains(t, err.Error(), tt.src)
		})
	}
}

func TestEnv_NilColumns(t *testing.T) {
	t.Parallel()

	env := Env(nil, nil)
	assert.Equal(t, []string{}, env["columns"])
	assert.Equal(t, 0, env["count"])
	assert.Equal(t, map[string]any{}, env["first"])
}
