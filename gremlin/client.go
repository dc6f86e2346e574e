package gremlin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Client dials lazily and redials when the connection drops. Requests that
// were in flight on a dropped connection fail; later ones use the new one.
type Client struct {
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	conn   *Conn
	closed bool
}

// NewClient validates cfg and returns a Client. No connection is made until
// the first Submit.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, log: cfg.Logger.Named("gremlin")}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// Submit sends req on the current connection, dialing first if needed.
func (c *Client) Submit(ctx context.Context, req *RequestMessage) (*Stream, error) {
	conn, err := c.connection(ctx)
	if err != nil {
		return nil, err
	}

	return conn.Submit(ctx, req)
}

// Connect dials eagerly. It is a no-op when a live connection exists.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.connection(ctx)

	return err
}

// Close closes the current connection. The client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closed = true
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	return conn.Close()
}

func (c *Client) connection(ctx context.Context) (*Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}

	if c.conn != nil && !c.conn.Closed() {
		return c.conn, nil
	}

	if c.conn != nil {
		c.log.Info("connection lost, redialing", zap.String("url", c.cfg.URL()))
	}

	var conn *Conn

	op := func() error {
		var err error

		conn, err = Dial(ctx, c.cfg)
		if errors.Is(err, ErrInvalidConfig) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, next time.Duration) {
		c.log.Warn("dial failed, retrying", zap.Error(err), zap.Duration("backoff", next))
	}

	if err := backoff.RetryNotify(op, c.backoff(ctx), notify); err != nil {
		return nil, err
	}

	c.conn = conn

	return conn, nil
}

//nolint:ireturn
func (c *Client) backoff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = 0

	if c.cfg.Retry.InitialInterval > 0 {
		eb.InitialInterval = c.cfg.Retry.InitialInterval
	}

	if c.cfg.Retry.MaxInterval > 0 {
		eb.MaxInterval = c.cfg.Retry.MaxInterval
	}

	return backoff.WithContext(backoff.WithMaxRetries(eb, c.cfg.Retry.MaxAttempts), ctx)
}
