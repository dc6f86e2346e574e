// Package cyphergremlin runs Cypher statements against Gremlin Server's cypher
// op processor, or against Neo4j for comparison, and returns normalized rows.
//
// Backends register themselves on import:
//
//	import _ "github.com/rlch/cypher-gremlin/databases/gremlin"
//
//	client, err := cyphergremlin.NewClient(cyphergremlin.BackendGremlin, cfg)
//	rs, err := client.Submit(ctx, cyphergremlin.NewStatement("MATCH (n) RETURN n.name"))
//	for rs.Next(ctx) {
//		fmt.Println(rs.Row())
//	}
package cyphergremlin

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Backend names.
const (
	BackendGremlin = "gremlin"
	BackendNeo4j   = "neo4j"
)

// Client submits Cypher statements to a backend.
type Client interface {
	// Name returns the backend identifier.
	Name() string

	// Submit sends stmt and returns its rows. Rows may arrive after Submit
	// returns; errors that happen while streaming surface through ResultSet.Err.
	Submit(ctx context.Context, stmt Statement) (*ResultSet, error)

	// Close releases the backend's connections.
	Close() error
}

// ClientFactory creates a Client from configuration.
type ClientFactory func(cfg *Config) (Client, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]ClientFactory)
)

// RegisterBackend registers a client factory by name.
func RegisterBackend(name string, factory ClientFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	backends[name] = factory
}

// NewClient creates a client for the named backend. An empty name selects
// the backend cfg configures.
func NewClient(name string, cfg *Config) (Client, error) { //nolint:ireturn
	if cfg == nil {
		cfg = &Config{}
	}

	if name == "" {
		name = cfg.Backend()
		if name == "" {
			return nil, ErrNoBackend
		}
	}

	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}

	return factory(cfg)
}

// RegisteredBackends returns the names of all registered backends, sorted.
func RegisteredBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Collect submits stmt and reads every row.
func Collect(ctx context.Context, c Client, stmt Statement) ([]Row, error) {
	rs, err := c.Submit(ctx, stmt)
	if err != nil {
		return nil, err
	}

	return rs.All(ctx)
}
