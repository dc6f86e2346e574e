// Package neo4j provides a cyphergremlin Client that runs statements on Neo4j
// over Bolt, so results can be compared with the cypher op processor's.
package neo4j

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

//nolint:gochecknoinits // Backend self-registration pattern
func init() {
	cyphergremlin.RegisterBackend(cyphergremlin.BackendNeo4j, func(cfg *cyphergremlin.Config) (cyphergremlin.Client, error) {
		if cfg.Neo4j == nil {
			return nil, fmt.Errorf("%w: no neo4j section", cyphergremlin.ErrInvalidConfig)
		}

		return New(cfg.Neo4j, WithLogger(cfg.Log()))
	})
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Database) {
		if log != nil {
			d.log = log
		}
	}
}

// Database implements cyphergremlin.Client for Neo4j.
type Database struct {
	driver neo4j.DriverWithContext
	db     string
	log    *zap.Logger
}

// New connects to Neo4j and verifies connectivity.
func New(cfg *cyphergremlin.Neo4jConfig, opts ...Option) (*Database, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}

	d := &Database{driver: driver, db: cfg.Database, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}

	d.log = d.log.Named("neo4j")

	ctx := context.Background()

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("neo4j: failed to connect: %w", err)
	}

	return d, nil
}

// Name returns the backend identifier.
func (d *Database) Name() string {
	return cyphergremlin.BackendNeo4j
}

// Submit runs stmt in its own session. The statement's graph, if set, names
// the database.
func (d *Database) Submit(ctx context.Context, stmt cyphergremlin.Statement) (*cyphergremlin.ResultSet, error) {
	sessionCfg := neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.db,
	}
	if g := stmt.Graph(); g != "" {
		sessionCfg.DatabaseName = g
	}

	session := d.driver.NewSession(ctx, sessionCfg)

	var txOpts []func(*neo4j.TransactionConfig)
	if t := stmt.Timeout(); t > 0 {
		txOpts = append(txOpts, neo4j.WithTxTimeout(t))
	}

	result, err := session.Run(ctx, stmt.Query(), stmt.Parameters(), txOpts...)
	if err != nil {
		_ = session.Close(ctx)

		return nil, fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	d.log.Debug("submitted", zap.String("query", stmt.Query()), zap.String("database", sessionCfg.DatabaseName))

	return cyphergremlin.NewResultSet(&rowSource{session: session, result: result}), nil
}

// Close releases the driver.
func (d *Database) Close() error {
	err := d.driver.Close(context.Background())
	if err != nil {
		return fmt.Errorf("neo4j: failed to close driver: %w", err)
	}

	return nil
}

type rowSource struct {
	session neo4j.SessionWithContext
	result  neo4j.ResultWithContext
}

func (s *rowSource) Next(ctx context.Context) (cyphergremlin.Row, error) {
	if s.result.Next(ctx) {
		rec := s.result.Record()

		return convertRecord(rec.Keys, rec.Values), nil
	}

	if err := s.result.Err(); err != nil {
		return cyphergremlin.Row{}, fmt.Errorf("neo4j: failed to read results: %w", err)
	}

	return cyphergremlin.Row{}, io.EOF
}

func (s *rowSource) Close() error {
	return s.session.Close(context.Background())
}

// convertRecord turns a Neo4j record into a Row of the module's value types.
func convertRecord(keys []string, values []any) cyphergremlin.Row {
	converted := make([]any, len(values))
	for i, v := range values {
		converted[i] = convertValue(v)
	}

	return cyphergremlin.NewRow(keys, converted)
}

func convertValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return convertNode(v)
	case dbtype.Relationship:
		return convertRelationship(v)
	case dbtype.Path:
		p := cyphergremlin.Path{
			Nodes:         make([]cyphergremlin.Node, len(v.Nodes)),
			Relationships: make([]cyphergremlin.Relationship, len(v.Relationships)),
		}

		for i, n := range v.Nodes {
			p.Nodes[i] = convertNode(n)
		}

		for i, r := range v.Relationships {
			p.Relationships[i] = convertRelationship(r)
		}

		return p
	case int:
		return int64(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}

		return out
	case map[string]any:
		return convertProps(v)
	default:
		return v
	}
}

func convertNode(n dbtype.Node) cyphergremlin.Node {
	labels := slices.Clone(n.Labels)
	if labels == nil {
		labels = []string{}
	}

	slices.Sort(labels)

	return cyphergremlin.Node{ID: n.ElementId, Labels: labels, Props: convertProps(n.Props)}
}

func convertRelationship(r dbtype.Relationship) cyphergremlin.Relationship {
	return cyphergremlin.Relationship{
		ID:      r.ElementId,
		Type:    r.Type,
		StartID: r.StartElementId,
		EndID:   r.EndElementId,
		Props:   convertProps(r.Props),
	}
}

func convertProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = convertValue(v)
	}

	return out
}

// Compile-time interface checks.
var (
	_ cyphergremlin.Client    = (*Database)(nil)
	_ cyphergremlin.RowSource = (*rowSource)(nil)
)
