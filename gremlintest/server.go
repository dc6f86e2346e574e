// Package gremlintest provides an in-process Gremlin Server that answers a
// fixed set of Cypher queries over the TinkerPop modern graph.
package gremlintest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rlch/cypher-gremlin/gremlin"
)

// QueryFunc produces the result rows of a query from its bindings. Each row
// is normally a *gremlin.Map of column name to value. A returned
// *gremlin.ResponseError is answered with its status code; any other error
// becomes a script evaluation error.
type QueryFunc func(bindings map[string]any) ([]any, error)

// Query is a canned query answer.
type Query struct {
	// Translation is returned when the query is sent with EXPLAIN.
	Translation string
	Rows        QueryFunc
}

// Server is a fake Gremlin Server with the cypher op processor installed.
type Server struct {
	tb       testing.TB
	srv      *httptest.Server
	upgrader websocket.Upgrader

	batchSize  int
	username   string
	password   string
	serializer gremlin.Serializer
	queries    map[string]Query

	mu       sync.Mutex
	requests []*gremlin.RequestMessage
	conns    map[*websocket.Conn]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithBatchSize splits results into partial responses of n items.
func WithBatchSize(n int) Option {
	return func(s *Server) {
		s.batchSize = n
	}
}

// WithCredentials requires SASL PLAIN authentication.
func WithCredentials(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithQuery registers or replaces a canned query. Whitespace in text is
// normalized before matching.
func WithQuery(text string, fn QueryFunc) Option {
	return func(s *Server) {
		s.queries[normalize(text)] = Query{Rows: fn}
	}
}

// WithSerializer makes the server reject requests in any other format.
func WithSerializer(ser gremlin.Serializer) Option {
	return func(s *Server) {
		s.serializer = ser
	}
}

// NewServer starts a server that is closed when the test ends.
func NewServer(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	s := &Server{
		tb:      tb,
		queries: make(map[string]Query),
		conns:   make(map[*websocket.Conn]struct{}),
	}

	for k, q := range Modern().Queries() {
		s.queries[normalize(k)] = q
	}

	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	tb.Cleanup(s.Close)

	return s
}

// URL returns the ws:// endpoint.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + gremlin.DefaultPath
}

// Config returns a client config pointing at the server.
func (s *Server) Config() gremlin.Config {
	cfg, err := gremlin.ParseURL(s.URL())
	if err != nil {
		s.tb.Fatalf("gremlintest: parse url: %v", err)
	}

	return cfg
}

// Requests returns the requests received so far, authentication included.
func (s *Server) Requests() []*gremlin.RequestMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*gremlin.RequestMessage(nil), s.requests...)
}

// DropConnections closes every open client connection without a close frame.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.conns {
		_ = c.Close()
		delete(s.conns, c)
	}
}

// Close shuts the server down.
func (s *Server) Close() {
	s.DropConnections()
	s.srv.Close()
}

type session struct {
	authenticated bool
	awaitingAuth  map[uuid.UUID]*gremlin.RequestMessage
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.tb.Logf("gremlintest: upgrade: %v", err)

		return
	}

	s.mu.Lock()
	s.conns[ws] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	sess := &session{awaitingAuth: make(map[uuid.UUID]*gremlin.RequestMessage)}

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			return
		}

		mime, _, err := gremlin.SplitFrame(frame)
		if err != nil {
			s.tb.Logf("gremlintest: %v", err)

			continue
		}

		ser, err := gremlin.SerializerFor(mime)
		if err != nil {
			s.tb.Logf("gremlintest: %v", err)

			continue
		}

		req, err := ser.DecodeRequest(frame)
		if err != nil {
			s.tb.Logf("gremlintest: decode request: %v", err)

			continue
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		var responses []*gremlin.ResponseMessage
		if s.serializer != nil && s.serializer.MimeType() != mime {
			responses = []*gremlin.ResponseMessage{
				status(req.RequestID, gremlin.StatusMalformedRequest, "unsupported mime type "+mime),
			}
		} else {
			responses = s.handle(sess, req)
		}

		for _, resp := range responses {
			data, err := ser.EncodeResponse(resp)
			if err != nil {
				s.tb.Errorf("gremlintest: encode response: %v", err)

				return
			}

			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (s *Server) handle(sess *session, req *gremlin.RequestMessage) []*gremlin.ResponseMessage {
	if req.Op == gremlin.OpsAuthentication {
		return s.authenticate(sess, req)
	}

	if s.username != "" && !sess.authenticated {
		sess.awaitingAuth[req.RequestID] = req

		return []*gremlin.ResponseMessage{status(req.RequestID, gremlin.StatusAuthenticate, "")}
	}

	return s.eval(req)
}

func (s *Server) authenticate(sess *session, req *gremlin.RequestMessage) []*gremlin.ResponseMessage {
	original, ok := sess.awaitingAuth[req.RequestID]
	if !ok {
		return []*gremlin.ResponseMessage{
			status(req.RequestID, gremlin.StatusInvalidRequestArguments, "no authentication challenge pending"),
		}
	}

	delete(sess.awaitingAuth, req.RequestID)

	sasl, _ := req.Args[gremlin.ArgsSasl].(string)
	want := base64.StdEncoding.EncodeToString([]byte("\x00" + s.username + "\x00" + s.password))

	if sasl != want {
		return []*gremlin.ResponseMessage{status(req.RequestID, gremlin.StatusUnauthorized, "Username and/or password are incorrect")}
	}

	sess.authenticated = true

	return s.eval(original)
}

func (s *Server) eval(req *gremlin.RequestMessage) []*gremlin.ResponseMessage {
	id := req.RequestID

	if req.Processor != gremlin.ProcessorCypher {
		return []*gremlin.ResponseMessage{
			status(id, gremlin.StatusInvalidRequestArguments, fmt.Sprintf("Invalid OpProcessor requested [%s]", req.Processor)),
		}
	}

	if req.Op != gremlin.OpsEval {
		return []*gremlin.ResponseMessage{
			status(id, gremlin.StatusInvalidRequestArguments, fmt.Sprintf("Message with op code [%s] is not recognized.", req.Op)),
		}
	}

	text, _ := req.Args[gremlin.ArgsGremlin].(string)
	query := normalize(text)

	explain := false
	if upper := strings.ToUpper(query); strings.HasPrefix(upper, "EXPLAIN ") {
		explain = true
		query = strings.TrimSpace(query[len("EXPLAIN "):])
	}

	q, ok := s.queries[query]
	if !ok {
		return []*gremlin.ResponseMessage{
			status(id, gremlin.StatusScriptEvaluationError, "Unsupported query: "+strconv.Quote(query)),
		}
	}

	if explain {
		resp := status(id, gremlin.StatusSuccess, "OK")
		resp.Result.Data = []any{gremlin.NewMap("translation", q.Translation, "options", "[EXPLAIN]")}

		return []*gremlin.ResponseMessage{resp}
	}

	rows, err := q.Rows(bindings(req))
	if err != nil {
		code, msg := gremlin.StatusScriptEvaluationError, err.Error()

		var respErr *gremlin.ResponseError
		if errors.As(err, &respErr) {
			code, msg = respErr.Code, respErr.Message
		}

		return []*gremlin.ResponseMessage{status(id, code, msg)}
	}

	if len(rows) == 0 {
		return []*gremlin.ResponseMessage{status(id, gremlin.StatusNoContent, "")}
	}

	size := s.batchSize
	if size <= 0 {
		size = len(rows)
	}

	var responses []*gremlin.ResponseMessage

	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))

		code := gremlin.StatusPartialContent
		if end == len(rows) {
			code = gremlin.StatusSuccess
		}

		resp := status(id, code, "")
		resp.Result.Data = rows[start:end]
		responses = append(responses, resp)
	}

	return responses
}

func bindings(req *gremlin.RequestMessage) map[string]any {
	switch b := req.Args[gremlin.ArgsBindings].(type) {
	case *gremlin.Map:
		return b.StringMap()
	case map[string]any:
		return b
	default:
		return map[string]any{}
	}
}

func status(id uuid.UUID, code gremlin.StatusCode, msg string) *gremlin.ResponseMessage {
	return &gremlin.ResponseMessage{
		RequestID: id,
		Status:    gremlin.Status{Code: code, Message: msg},
	}
}

func normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
