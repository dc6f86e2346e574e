package runner

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"

	cyphergremlin "github.com/rlch/cypher-gremlin"
	"github.com/rlch/cypher-gremlin/cypher"
)

// Runner executes scripts against a client.
type Runner struct {
	client   cyphergremlin.Client
	handler  Handler
	failFast bool
	filter   *regexp.Regexp
	log      *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClient sets the backend client.
func WithClient(c cyphergremlin.Client) Option {
	return func(r *Runner) {
		r.client = c
	}
}

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithFailFast stops on first failure.
func WithFailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// WithFilter sets a regex pattern to filter which scripts run. Scripts whose
// "file::name" ID matches are executed. An invalid pattern matches literally.
func WithFilter(pattern string) Option {
	return func(r *Runner) {
		if pattern == "" {
			return
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			re = regexp.MustCompile(regexp.QuoteMeta(pattern))
		}

		r.filter = re
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	r.log = r.log.Named("runner")

	return r
}

// Run executes scripts in order and returns the results. Failing scripts do
// not stop the run unless fail-fast is set or the handler returns an error.
func (r *Runner) Run(ctx context.Context, scripts []Script) (*Result, error) {
	if r.client == nil {
		return nil, ErrNoClient
	}

	result := NewResult()

	handlers := []Handler{NewResultHandler()}
	if r.handler != nil {
		handlers = append(handlers, r.handler)
	}

	if r.failFast {
		handlers = append(handlers, NewStopOnFailHandler(1))
	}

	handler := NewMultiHandler(handlers...)

	for _, sc := range scripts {
		if !r.matchesFilter(sc) {
			continue
		}

		err := r.runScript(ctx, sc, handler, result)
		if errors.Is(err, ErrMaxFailures) {
			break
		}

		if err != nil {
			result.Finish()

			return result, err
		}

		if ctx.Err() != nil {
			result.Finish()

			return result, ctx.Err()
		}
	}

	result.Finish()

	return result, nil
}

func (r *Runner) runScript(ctx context.Context, sc Script, handler Handler, result *Result) error {
	start := time.Now()
	base := Event{File: sc.File, Name: sc.Name, Line: sc.Line}

	emit := func(ev Event) error {
		ev.File, ev.Name, ev.Line = base.File, base.Name, base.Line
		if ev.Time.IsZero() {
			ev.Time = time.Now()
		}

		if ev.Action.IsTerminal() {
			ev.Elapsed = time.Since(start)
		}

		return handler.Event(ctx, ev, result)
	}

	if err := emit(Event{Time: start, Action: ActionRun, Query: sc.Statement.Query()}); err != nil {
		return err
	}

	if sc.Skip != "" {
		return emit(Event{Action: ActionSkip, Error: errors.New(sc.Skip)})
	}

	r.log.Debug("running", zap.String("script", base.ID()), zap.String("query", sc.Statement.Query()))

	rows, err := r.collect(ctx, sc.Statement, emit)
	if errors.Is(err, ErrMaxFailures) {
		return err
	}

	if err != nil {
		return emit(Event{Action: ActionError, Error: err})
	}

	columns := columnsOf(sc.Statement, rows)

	for _, src := range sc.Expects {
		ok, err := Check(src, columns, rows)
		if err != nil {
			return emit(Event{Action: ActionError, Error: err, Expect: src})
		}

		if !ok {
			return emit(Event{Action: ActionFail, Error: ErrExpectation, Expect: src, Actual: len(rows)})
		}
	}

	return emit(Event{Action: ActionPass})
}

// collect submits stmt, emitting a row event per row received.
func (r *Runner) collect(ctx context.Context, stmt cyphergremlin.Statement, emit func(Event) error) ([]cyphergremlin.Row, error) {
	rs, err := r.client.Submit(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows []cyphergremlin.Row

	for rs.Next(ctx) {
		row := rs.Row()
		rows = append(rows, row)

		if err := emit(Event{Action: ActionRow, Row: row}); err != nil {
			return rows, err
		}
	}

	return rows, rs.Err()
}

// columnsOf returns the column names from the rows, or from the statement's
// RETURN clause when there are no rows.
func columnsOf(stmt cyphergremlin.Statement, rows []cyphergremlin.Row) []string {
	if len(rows) > 0 {
		return rows[0].Keys()
	}

	info, err := cypher.Scan(stmt.Query())
	if err != nil {
		return nil
	}

	return info.Returns
}

// matchesFilter returns true if the script matches the filter pattern.
// If no filter is set, all scripts match.
func (r *Runner) matchesFilter(sc Script) bool {
	if r.filter == nil {
		return true
	}

	return r.filter.MatchString(Event{File: sc.File, Name: sc.Name}.ID())
}
