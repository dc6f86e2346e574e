package gremlin

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Conn is a single WebSocket connection to Gremlin Server. Requests are
// multiplexed over it and responses are routed to their Stream by request id.
// A Conn is safe for concurrent use.
type Conn struct {
	ws           *websocket.Conn
	serializer   Serializer
	log          *zap.Logger
	username     string
	password     string
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uuid.UUID]*Stream
	closing bool
	closed  bool
	err     error

	cancel context.CancelFunc
	done   chan struct{}
}

// Dial opens a connection described by cfg.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ser, err := SerializerFor(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.DialTimeout,
	}

	if cfg.TLS {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	ws, resp, err := dialer.DialContext(dialCtx, cfg.URL(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL(), err)
	}

	cfg.Logger.Named("gremlin").Debug("connected", zap.String("url", cfg.URL()), zap.String("serializer", ser.MimeType()))

	return newConn(ws, ser, cfg), nil
}

func newConn(ws *websocket.Conn, ser Serializer, cfg Config) *Conn {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Conn{
		ws:           ws,
		serializer:   ser,
		log:          cfg.Logger.Named("gremlin"),
		username:     cfg.Username,
		password:     cfg.Password,
		writeTimeout: cfg.WriteTimeout,
		pending:      make(map[uuid.UUID]*Stream),
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(c.readLoop)

	if cfg.PingInterval > 0 {
		g.Go(func() error { return c.pingLoop(gctx, cfg.PingInterval) })
	}

	g.Go(func() error {
		<-gctx.Done()
		_ = c.ws.Close()

		return nil
	})

	go func() {
		c.shutdown(g.Wait())
		close(c.done)
	}()

	return c
}

// Submit sends req and returns the stream its responses are delivered to.
func (c *Conn) Submit(ctx context.Context, req *RequestMessage) (*Stream, error) {
	frame, err := c.serializer.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	id := req.RequestID

	c.mu.Lock()
	if c.closing || c.closed {
		err := c.err
		c.mu.Unlock()

		if err == nil {
			err = ErrConnectionClosed
		}

		return nil, err
	}

	if _, dup := c.pending[id]; dup {
		c.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, id)
	}

	s := newStream(id, func() { c.remove(id) })
	c.pending[id] = s
	c.mu.Unlock()

	if err := c.write(ctx, frame); err != nil {
		c.remove(id)

		return nil, fmt.Errorf("send request: %w", err)
	}

	c.log.Debug("request sent",
		zap.Stringer("request_id", id),
		zap.String("op", req.Op),
		zap.String("processor", req.Processor))

	return s, nil
}

// Close sends a close frame, fails pending requests and waits for the
// connection's goroutines to exit.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		<-c.done

		return nil
	}

	c.closing = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout))
	c.writeMu.Unlock()

	c.cancel()
	<-c.done

	return nil
}

// Closed reports whether the connection can no longer accept requests.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closing || c.closed
}

// Done is closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Pending returns the number of requests awaiting a terminal response.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

func (c *Conn) readLoop() error {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}

		resp, err := c.serializer.DecodeResponse(data)
		if err != nil {
			c.log.Warn("dropping undecodable response", zap.Error(err))

			continue
		}

		c.dispatch(resp)
	}
}

func (c *Conn) pingLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

func (c *Conn) dispatch(resp *ResponseMessage) {
	id := resp.RequestID

	c.mu.Lock()
	s := c.pending[id]
	c.mu.Unlock()

	if s == nil {
		c.log.Debug("response for unknown request", zap.Stringer("request_id", id), zap.Int("code", int(resp.Status.Code)))

		return
	}

	code := resp.Status.Code

	switch {
	case code == StatusAuthenticate:
		if err := c.authenticate(id); err != nil {
			c.remove(id)
			s.finish(err)
		}
	case code.Partial():
		s.push(resp.Items(), resp.Result.Meta)
	case code.Success():
		s.push(resp.Items(), resp.Result.Meta)
		c.remove(id)
		s.finish(nil)
	default:
		c.remove(id)
		s.finish(newResponseError(resp))
	}
}

// authenticate answers a 407 challenge with SASL PLAIN credentials.
func (c *Conn) authenticate(id uuid.UUID) error {
	if c.username == "" {
		return ErrAuthRequired
	}

	sasl := base64.StdEncoding.EncodeToString([]byte("\x00" + c.username + "\x00" + c.password))

	req := NewRequest(OpsAuthentication).
		RequestID(id).
		Processor(ProcessorStandard).
		Arg(ArgsSasl, sasl).
		Arg(ArgsSaslMechanism, "PLAIN").
		Build()

	frame, err := c.serializer.EncodeRequest(req)
	if err != nil {
		return err
	}

	c.log.Debug("authenticating", zap.Stringer("request_id", id), zap.String("username", c.username))

	if err := c.write(context.Background(), frame); err != nil {
		return fmt.Errorf("send credentials: %w", err)
	}

	return nil
}

func (c *Conn) write(ctx context.Context, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.ws.WriteMessage(websocket.BinaryMessage, frame)
}

func (c *Conn) remove(id uuid.UUID) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Conn) shutdown(cause error) {
	c.mu.Lock()
	c.closed = true

	switch {
	case c.closing || cause == nil:
		c.err = ErrConnectionClosed
	default:
		c.err = fmt.Errorf("%w: %w", ErrConnectionClosed, cause)
	}

	pending := c.pending
	c.pending = make(map[uuid.UUID]*Stream)
	err := c.err
	c.mu.Unlock()

	if len(pending) > 0 {
		c.log.Debug("failing pending requests", zap.Int("count", len(pending)), zap.Error(err))
	}

	for _, s := range pending {
		s.finish(err)
	}
}
