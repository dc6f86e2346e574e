package cyphergremlin

import (
	"context"
	"errors"
	"io"
)

// RowSource produces rows for a ResultSet. Next returns io.EOF after the last row.
type RowSource interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// ResultSet iterates the rows of a submitted statement:
//
//	for rs.Next(ctx) {
//		row := rs.Row()
//	}
//	if err := rs.Err(); err != nil { ... }
//
// A ResultSet is not safe for concurrent use.
type ResultSet struct {
	src     RowSource
	pending []Row
	row     Row
	err     error
	done    bool
	closed  bool
}

// NewResultSet wraps src.
func NewResultSet(src RowSource) *ResultSet {
	return &ResultSet{src: src}
}

// RowsResultSet returns a result set over rows already in memory.
func RowsResultSet(rows ...Row) *ResultSet {
	return NewResultSet(&sliceSource{rows: rows})
}

// ErrorResultSet returns a result set that fails with err on first use.
func ErrorResultSet(err error) *ResultSet {
	return NewResultSet(errSource{err: err})
}

// Next advances to the next row. It returns false when the rows are
// exhausted or an error occurred; check Err to tell them apart.
func (r *ResultSet) Next(ctx context.Context) bool {
	if r.closed {
		if !r.done && r.err == nil {
			r.err = ErrResultClosed
		}

		return false
	}

	if r.done {
		return false
	}

	if len(r.pending) > 0 {
		r.row = r.pending[0]
		r.pending = r.pending[1:]

		return true
	}

	row, err := r.fetch(ctx)
	if err != nil {
		return false
	}

	r.row = row

	return true
}

// fetch reads from the source, finishing the set on EOF or error.
func (r *ResultSet) fetch(ctx context.Context) (Row, error) {
	row, err := r.src.Next(ctx)
	if errors.Is(err, io.EOF) {
		r.finish(nil)

		return Row{}, io.EOF
	}

	if err != nil {
		r.finish(err)

		return Row{}, err
	}

	return row, nil
}

func (r *ResultSet) finish(err error) {
	r.done = true
	if err != nil && r.err == nil {
		r.err = err
	}

	_ = r.src.Close()
}

// Row returns the current row.
func (r *ResultSet) Row() Row { return r.row }

// Err returns the first error encountered while iterating.
func (r *ResultSet) Err() error { return r.err }

// Keys returns the column names, reading ahead one row if none has been read.
// An empty result has no keys.
func (r *ResultSet) Keys(ctx context.Context) ([]string, error) {
	switch {
	case r.row.Len() > 0:
		return r.row.Keys(), nil
	case len(r.pending) > 0:
		return r.pending[0].Keys(), nil
	case r.done || r.closed:
		return nil, r.err
	}

	row, err := r.fetch(ctx)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	r.pending = append(r.pending, row)

	return row.Keys(), nil
}

// All reads the remaining rows and closes the set.
func (r *ResultSet) All(ctx context.Context) ([]Row, error) {
	defer r.Close()

	var rows []Row
	for r.Next(ctx) {
		rows = append(rows, r.row)
	}

	return rows, r.err
}

// Single returns the only row, or ErrNoRows / ErrTooManyRows.
func (r *ResultSet) Single(ctx context.Context) (Row, error) {
	defer r.Close()

	if !r.Next(ctx) {
		if r.err != nil {
			return Row{}, r.err
		}

		return Row{}, ErrNoRows
	}

	row := r.row

	if r.Next(ctx) {
		return Row{}, ErrTooManyRows
	}

	if r.err != nil {
		return Row{}, r.err
	}

	return row, nil
}

// Close releases the source. Rows not yet read are discarded.
func (r *ResultSet) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	r.pending = nil

	if r.done {
		return nil
	}

	return r.src.Close()
}

type sliceSource struct {
	rows []Row
}

func (s *sliceSource) Next(context.Context) (Row, error) {
	if len(s.rows) == 0 {
		return Row{}, io.EOF
	}

	row := s.rows[0]
	s.rows = s.rows[1:]

	return row, nil
}

func (s *sliceSource) Close() error { return nil }

type errSource struct {
	err error
}

func (s errSource) Next(context.Context) (Row, error) { return Row{}, s.err }

func (s errSource) Close() error { return nil }
