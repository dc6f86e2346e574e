package cyphergremlin

import (
	"slices"
	"strings"
)

// Row is one result record. Columns keep the order the server returned them in.
type Row struct {
	keys   []string
	values []any
}

// NewRow builds a row from parallel key and value slices. Extra keys or
// values beyond the shorter slice are dropped.
func NewRow(keys []string, values []any) Row {
	n := min(len(keys), len(values))

	return Row{keys: slices.Clone(keys[:n]), values: slices.Clone(values[:n])}
}

// Keys returns the column names.
func (r Row) Keys() []string { return slices.Clone(r.keys) }

// Values returns the column values.
func (r Row) Values() []any { return slices.Clone(r.values) }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.keys) }

// Get returns the value of the named column.
func (r Row) Get(key string) (any, bool) {
	if i := slices.Index(r.keys, key); i >= 0 {
		return r.values[i], true
	}

	return nil, false
}

// Index returns the value of the i-th column.
func (r Row) Index(i int) any {
	return r.values[i]
}

// Map returns the row as a map of column name to value.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for i, k := range r.keys {
		out[k] = r.values[i]
	}

	return out
}

func (r Row) String() string {
	var b strings.Builder

	b.WriteByte('{')

	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(FormatValue(r.values[i]))
	}

	b.WriteByte('}')

	return b.String()
}
