package cyphergremlin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cg "github.com/rlch/cypher-gremlin"
)

type stubClient struct {
	name string
	cfg  *cg.Config
	rows []cg.Row
	err  error
	last cg.Statement
}

func (c *stubClient) Name() string { return c.name }

func (c *stubClient) Submit(_ context.Context, stmt cg.Statement) (*cg.ResultSet, error) {
	c.last = stmt
	if c.err != nil {
		return nil, c.err
	}

	return cg.RowsResultSet(c.rows...), nil
}

func (c *stubClient) Close() error { return nil }

var _ cg.Client = (*stubClient)(nil)

func TestRegistry(t *testing.T) {
	t.Parallel()

	cg.RegisterBackend("stub-registry", func(cfg *cg.Config) (cg.Client, error) {
		return &stubClient{name: "stub-registry", cfg: cfg}, nil
	})

	assert.Contains(t, cg.RegisteredBackends(), "stub-registry")

	cfg := &cg.Config{}
	client, err := cg.NewClient("stub-registry", cfg)
	require.NoError(t, err)
	assert.Equal(t, "stub-registry", client.Name())

	stub, ok := client.(*stubClient)
	require.True(t, ok)
	assert.Same(t, cfg, stub.cfg)

	_, err = cg.NewClient("nope", cfg)
	require.ErrorIs(t, err, cg.ErrUnknownBackend)
	assert.Contains(t, err.Error(), "nope")

	_, err = cg.NewClient("", cfg)
	require.ErrorIs(t, err, cg.ErrNoBackend)

	_, err = cg.NewClient("", nil)
	require.ErrorIs(t, err, cg.ErrNoBackend)
}

func TestConfig_Backend(t *testing.T) {
	t.Parallel()

	assert.Empty(t, (&cg.Config{}).Backend())
	assert.Equal(t, cg.BackendGremlin, (&cg.Config{Gremlin: &cg.GremlinConfig{}}).Backend())
	assert.Equal(t, cg.BackendNeo4j, (&cg.Config{Neo4j: &cg.Neo4jConfig{}}).Backend())

	var nilCfg *cg.Config
	assert.NotNil(t, nilCfg.Log())
}
