package runner

import (
	"fmt"

	"github.com/expr-lang/expr"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

// Env builds the environment expectations are evaluated in:
//
//	rows     []map[string]any  every row, by column name
//	count    int               number of rows
//	columns  []string          column names
//	first    map[string]any    the first row, empty when there is none
//	values   func(col) []any   one column across all rows
func Env(columns []string, rows []cyphergremlin.Row) map[string]any {
	maps := make([]map[string]any, len(rows))
	for i, row := range rows {
		maps[i] = row.Map()
	}

	first := map[string]any{}
	if len(maps) > 0 {
		first = maps[0]
	}

	if columns == nil {
		columns = []string{}
	}

	return map[string]any{
		"rows":    maps,
		"count":   len(rows),
		"columns": columns,
		"first":   first,
		"values": func(col string) []any {
			out := make([]any, 0, len(rows))
			for _, row := range rows {
				v, _ := row.Get(col)
				out = append(out, v)
			}

			return out
		},
	}
}

// Check evaluates the boolean expression src against rows.
func Check(src string, columns []string, rows []cyphergremlin.Row) (bool, error) {
	env := Env(columns, rows)

	program, err := expr.Compile(src, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrInvalidExpect, src, err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrInvalidExpect, src, err)
	}

	ok, _ := out.(bool)

	return ok, nil
}
