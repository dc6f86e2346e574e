package gremlin_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/cypher-gremlin/gremlin"
	"github.com/rlch/cypher-gremlin/gremlintest"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func cypherRequest(query string) *gremlin.RequestMessage {
	return gremlin.NewRequest(gremlin.OpsEval).
		Processor(gremlin.ProcessorCypher).
		Arg(gremlin.ArgsGremlin, query).
		Build()
}

func names(t *testing.T, items []any, column string) []string {
	t.Helper()

	out := make([]string, 0, len(items))

	for _, item := range items {
		row, ok := item.(*gremlin.Map)
		require.True(t, ok, "row has type %T", item)

		v, ok := row.Get(column)
		require.True(t, ok, "row has no column %q", column)

		out = append(out, v.(string))
	}

	return out
}

func newClient(t *testing.T, cfg gremlin.Config) *gremlin.Client {
	t.Helper()

	c, err := gremlin.NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestClient_SubmitCypher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serializer string
		opts       []gremlintest.Option
	}{
		{name: "single response"},
		{name: "partial responses", opts: []gremlintest.Option{gremlintest.WithBatchSize(2)}},
		{
			name:       "graphson v2",
			serializer: gremlin.SerializerGraphSONV2,
			opts:       []gremlintest.Option{gremlintest.WithSerializer(gremlin.NewGraphSONV2())},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := gremlintest.NewServer(t, tt.opts...)
			cfg := srv.Config()
			cfg.Serializer = tt.serializer
			c := newClient(t, cfg)
			ctx := testContext(t)

			stream, err := c.Submit(ctx, cypherRequest("MATCH (n) RETURN n.name"))
			require.NoError(t, err)

			items, err := stream.All(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, gremlintest.ModernNames, names(t, items, "n.name"))
		})
	}
}

func TestClient_Bindings(t *testing.T) {
	t.Parallel()

	srv := gremlintest.NewServer(t)
	c := newClient(t, srv.Config())
	ctx := testContext(t)

	req := gremlin.NewRequest(gremlin.OpsEval).
		Processor(gremlin.ProcessorCypher).
		Arg(gremlin.ArgsGremlin, "MATCH (n {name: $name}) RETURN n.age AS age").
		Arg(gremlin.ArgsBindings, map[string]any{"name": "marko"}).
		Build()

	stream, err := c.Submit(ctx, req)
	require.NoError(t, err)

	items, err := stream.All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	age, _ := items[0].(*gremlin.Map).Get("age")
	assert.Equal(t, int32(29), age)
}

func TestClient_NoContent(t *testing.T) {
	t.Parallel()

	srv := gremlintest.NewServer(t)
	c := newClient(t, srv.Config())
	ctx := testContext(t)

	stream, err := c.Submit(ctx, cypherRequest("MATCH (n) WHERE n.missing = 1 RETURN n"))
	require.NoError(t, err)

	items, err := stream.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_ErrorResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      *gremlin.RequestMessage
		wantCode gremlin.StatusCode
	}{
		{
			name:     "unknown query",
			req:      cypherRequest("MATCH (x) RETURN x.nope"),
			wantCode: gremlin.StatusScriptEvaluationError,
		},
		{
			name:     "missing parameter",
			req:      cypherRequest("MATCH (n {name: $name}) RETURN n.age AS age"),
			wantCode: gremlin.StatusScriptEvaluationError,
		},
		{
			name: "unknown processor",
			req: gremlin.NewRequest(gremlin.OpsEval).
				Processor(gremlin.ProcessorTraversal).
				Arg(gremlin.ArgsGremlin, "MATCH (n) RETURN n.name").
				Build(),
			wantCode: gremlin.StatusInvalidRequestArguments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := gremlintest.NewServer(t)
			c := newClient(t, srv.Config())
			ctx := testContext(t)

			stream, err := c.Submit(ctx, tt.req)
			require.NoError(t, err)

			_, err = stream.All(ctx)

			var respErr *gremlin.ResponseError
			require.ErrorAs(t, err, &respErr)
			assert.Equal(t, tt.wantCode, respErr.Code)
			assert.Equal(t, tt.req.RequestID, respErr.RequestID)
		})
	}
}

func TestClient_SerializerMismatch(t *testing.T) {
	t.Parallel()

	srv := gremlintest.NewServer(t, gremlintest.WithSerializer(gremlin.NewGraphSONV2()))
	c := newClient(t, srv.Config())
	ctx := testContext(t)

	stream, err := c.Submit(ctx, cypherRequest("MATCH (n) RETURN n.name"))
	require.NoError(t, err)

	_, err = stream.All(ctx)

	var respErr *gremlin.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, gremlin.StatusMalformedRequest, respErr.Code)
}

func TestClient_Authentication(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		srv := gremlintest.NewServer(t, gremlintest.WithCredentials("stephen", "password"))
		cfg := srv.Config()
		cfg.Username = "stephen"
		cfg.Password = "password"
		c := newClient(t, cfg)
		ctx := testContext(t)

		req := cypherRequest("MATCH (n) RETURN n.name")
		stream, err := c.Submit(ctx, req)
		require.NoError(t, err)

		items, err := stream.All(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, gremlintest.ModernNames, names(t, items, "n.name"))

		reqs := srv.Requests()
		require.Len(t, reqs, 2)
		assert.Equal(t, gremlin.OpsAuthentication, reqs[1].Op)
		assert.Equal(t, req.RequestID, reqs[1].RequestID)
		assert.Equal(t, "PLAIN", reqs[1].Args[gremlin.ArgsSaslMechanism])
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		srv := gremlintest.NewServer(t, gremlintest.WithCredentials("stephen", "password"))
		cfg := srv.Config()
		cfg.Username = "stephen"
		cfg.Password = "nope"
		c := newClient(t, cfg)
		ctx := testContext(t)

		stream, err := c.Submit(ctx, cypherRequest("MATCH (n) RETURN n.name"))
		require.NoError(t, err)

		_, err = stream.All(ctx)
		require.ErrorIs(t, err, gremlin.ErrAuthRequired)

		var respErr *gremlin.ResponseError
		require.ErrorAs(t, err, &respErr)
		assert.Equal(t, gremlin.StatusUnauthorized, respErr.Code)
	})

	t.Run("no credentials configured", func(t *testing.T) {
		t.Parallel()

		srv := gremlintest.NewServer(t, gremlintest.WithCredentials("stephen", "password"))
		c := newClient(t, srv.Config())
		ctx := testContext(t)

		stream, err := c.Submit(ctx, cypherRequest("MATCH (n) RETURN n.name"))
		require.NoError(t, err)

		_, err = stream.All(ctx)
		require.ErrorIs(t, err, gremlin.ErrAuthRequired)
	})
}

func TestConn_PendingFailOnDisconnect(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)

	srv := gremlintest.NewServer(t, gremlintest.WithQuery("RETURN slow()", func(map[string]any) ([]any, error) {
		started <- struct{}{}
		<-release

		return nil, nil
	}))
	t.Cleanup(func() { close(release) })

	ctx := testContext(t)

	conn, err := gremlin.Dial(ctx, srv.Config())
	require.NoError(t, err)

	defer conn.Close()

	req := cypherRequest("RETURN slow()")
	stream, err := conn.Submit(ctx, req)
	require.NoError(t, err)

	_, err = conn.Submit(ctx, req)
	require.ErrorIs(t, err, gremlin.ErrDuplicateRequest)

	<-started
	assert.Equal(t, 1, conn.Pending())

	srv.DropConnections()

	_, err = stream.Next(ctx)
	require.ErrorIs(t, err, gremlin.ErrConnectionClosed)

	<-conn.Done()
	assert.True(t, conn.Closed())
	assert.Equal(t, 0, conn.Pending())

	_, err = conn.Submit(ctx, cypherRequest("MATCH (n) RETURN n.name"))
	require.ErrorIs(t, err, gremlin.ErrConnectionClosed)
}

func TestConn_CloseFailsPending(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)

	srv := gremlintest.NewServer(t, gremlintest.WithQuery("RETURN slow()", func(map[string]any) ([]any, error) {
		started <- struct{}{}
		<-release

		return nil, nil
	}))
	t.Cleanup(func() { close(release) })

	ctx := testContext(t)

	conn, err := gremlin.Dial(ctx, srv.Config())
	require.NoError(t, err)

	stream, err := conn.Submit(ctx, cypherRequest("RETURN slow()"))
	require.NoError(t, err)

	<-started
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err = stream.Next(ctx)
	require.ErrorIs(t, err, gremlin.ErrConnectionClosed)
}

func TestClient_RedialsAfterDrop(t *testing.T) {
	t.Parallel()

	srv := gremlintest.NewServer(t)
	cfg := srv.Config()
	cfg.Retry = gremlin.RetryConfig{MaxAttempts: 3, InitialInterval: 10 * time.Millisecond}
	c := newClient(t, cfg)
	ctx := testContext(t)

	run := func() error {
		stream, err := c.Submit(ctx, cypherRequest("MATCH (n) RETURN count(n) AS count"))
		if err != nil {
			return err
		}

		_, err = stream.All(ctx)

		return err
	}

	require.NoError(t, run())

	srv.DropConnections()

	require.Eventually(t, func() bool { return run() == nil }, 3*time.Second, 20*time.Millisecond)
}

func TestClient_DialFailure(t *testing.T) {
	t.Parallel()

	srv := gremlintest.NewServer(t)
	cfg := srv.Config()
	srv.Close()

	cfg.Retry = gremlin.RetryConfig{MaxAttempts: 1, InitialInterval: time.Millisecond}
	c := newClient(t, cfg)

	_, err := c.Submit(testContext(t), cypherRequest("MATCH (n) RETURN n.name"))
	require.Error(t, err)
}

func TestClient_ClosedClient(t *testing.T) {
	t.Parallel()

	srv := gremlintest.NewServer(t)
	c := newClient(t, srv.Config())
	require.NoError(t, c.Connect(testContext(t)))
	require.NoError(t, c.Close())

	_, err := c.Submit(testContext(t), cypherRequest("MATCH (n) RETURN n.name"))
	require.ErrorIs(t, err, gremlin.ErrConnectionClosed)
}
