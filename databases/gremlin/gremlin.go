// Package gremlin provides a cyphergremlin Client that sends Cypher to the
// cypher op processor of a Gremlin Server.
package gremlin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	cyphergremlin "github.com/rlch/cypher-gremlin"
	"github.com/rlch/cypher-gremlin/gremlin"
)

//nolint:gochecknoinits // Backend self-registration pattern
func init() {
	cyphergremlin.RegisterBackend(cyphergremlin.BackendGremlin, func(cfg *cyphergremlin.Config) (cyphergremlin.Client, error) {
		if cfg.Gremlin == nil {
			return nil, fmt.Errorf("%w: no gremlin section", cyphergremlin.ErrInvalidConfig)
		}

		return New(cfg.Gremlin, WithLogger(cfg.Log()))
	})
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRetryInterval overrides the initial backoff between statement retries.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// Client implements cyphergremlin.Client over a Gremlin Server connection.
type Client struct {
	client        *gremlin.Client
	cfg           cyphergremlin.GremlinConfig
	log           *zap.Logger
	retryInterval time.Duration
}

// New creates a client. The connection is dialed on first use.
func New(cfg *cyphergremlin.GremlinConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil gremlin config", cyphergremlin.ErrInvalidConfig)
	}

	c := &Client{cfg: *cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	client, err := gremlin.NewClient(cfg.ClientConfig(c.log))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cyphergremlin.ErrInvalidConfig, err)
	}

	c.client = client
	c.log = c.log.Named("cypher")

	return c, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return cyphergremlin.BackendGremlin
}

// Connect dials the server eagerly.
func (c *Client) Connect(ctx context.Context) error {
	return c.client.Connect(ctx)
}

// Submit sends stmt to the cypher processor. Rows are normalized as they
// are read. With retries configured the whole result is read before Submit
// returns, so that a failure part way through can be retried.
func (c *Client) Submit(ctx context.Context, stmt cyphergremlin.Statement) (*cyphergremlin.ResultSet, error) {
	if c.cfg.Retries > 0 {
		return c.submitRetrying(ctx, stmt)
	}

	stream, err := c.client.Submit(ctx, c.request(stmt))
	if err != nil {
		return nil, err
	}

	c.log.Debug("submitted", zap.Stringer("request_id", stream.RequestID()), zap.String("query", stmt.Query()))

	return cyphergremlin.NewResultSet(&rowSource{stream: stream}), nil
}

func (c *Client) submitRetrying(ctx context.Context, stmt cyphergremlin.Statement) (*cyphergremlin.ResultSet, error) {
	var rows []cyphergremlin.Row

	op := func() error {
		stream, err := c.client.Submit(ctx, c.request(stmt))
		if err != nil {
			return permanentUnlessRetryable(err)
		}

		rows, err = cyphergremlin.NewResultSet(&rowSource{stream: stream}).All(ctx)

		return permanentUnlessRetryable(err)
	}

	notify := func(err error, next time.Duration) {
		c.log.Warn("statement failed, retrying", zap.Error(err), zap.Duration("backoff", next))
	}

	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = 0

	if c.retryInterval > 0 {
		eb.InitialInterval = c.retryInterval
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(eb, c.cfg.Retries), ctx), notify)
	if err != nil {
		return nil, err
	}

	return cyphergremlin.RowsResultSet(rows...), nil
}

// permanentUnlessRetryable stops retries for errors a resubmission cannot fix.
func permanentUnlessRetryable(err error) error {
	if err == nil {
		return nil
	}

	var respErr *gremlin.ResponseError
	if errors.As(err, &respErr) && !respErr.Retryable() {
		return backoff.Permanent(err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, cyphergremlin.ErrMalformedRow) || errors.Is(err, gremlin.ErrInvalidConfig) {
		return backoff.Permanent(err)
	}

	return err
}

// request builds the eval message for stmt. Each call gets a new request id.
func (c *Client) request(stmt cyphergremlin.Statement) *gremlin.RequestMessage {
	b := gremlin.NewRequest(gremlin.OpsEval).
		Processor(gremlin.ProcessorCypher).
		Arg(gremlin.ArgsGremlin, stmt.Query())

	if params := stmt.Parameters(); len(params) > 0 {
		b.Arg(gremlin.ArgsBindings, params)
	}

	graph := stmt.Graph()
	if graph == "" {
		graph = c.cfg.Graph
	}

	if graph != "" {
		b.Arg(gremlin.ArgsGraph, graph)
	}

	if c.cfg.TraversalSource != "" {
		b.Arg(gremlin.ArgsAliases, map[string]any{gremlin.ValTraversalSourceKey: c.cfg.TraversalSource})
	}

	timeout := stmt.Timeout()
	if timeout == 0 {
		timeout = c.cfg.Timeout
	}

	if timeout > 0 {
		b.Arg(gremlin.ArgsEvalTimeout, timeout.Milliseconds())
	}

	if c.cfg.BatchSize > 0 {
		b.Arg(gremlin.ArgsBatchSize, c.cfg.BatchSize)
	}

	return b.Build()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// rowSource adapts a response stream to cyphergremlin.RowSource.
type rowSource struct {
	stream *gremlin.Stream
}

func (s *rowSource) Next(ctx context.Context) (cyphergremlin.Row, error) {
	item, err := s.stream.Next(ctx)
	if err != nil {
		return cyphergremlin.Row{}, err
	}

	return cyphergremlin.NormalizeRow(item)
}

func (s *rowSource) Close() error {
	return s.stream.Close()
}

// Compile-time interface checks.
var (
	_ cyphergremlin.Client    = (*Client)(nil)
	_ cyphergremlin.RowSource = (*rowSource)(nil)
)
