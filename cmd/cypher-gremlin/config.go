package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

// Config errors.
var (
	ErrNoConnectionURI = errors.New("no neo4j URI specified (use --uri or .cypher-gremlin.yaml)")
	ErrNoQuery         = errors.New("no query given")
	ErrNoScripts       = errors.New("no .cypher files found")
)

// overrides are the connection flags given on the command line. Empty
// fields leave the config file's value alone.
type overrides struct {
	backend    string
	host       string
	port       int
	uri        string
	username   string
	password   string
	serializer string
}

func overridesFrom(cmd *cli.Command) overrides {
	o := overrides{
		backend:    cmd.String("backend"),
		uri:        cmd.String("uri"),
		username:   cmd.String("username"),
		password:   cmd.String("password"),
		serializer: cmd.String("serializer"),
	}

	if cmd.IsSet("host") {
		o.host = cmd.String("host")
	}

	if cmd.IsSet("port") {
		o.port = cmd.Int("port")
	}

	return o
}

// loadConfig reads --config, or the nearest config file. A missing file is
// not an error: flags alone can describe the connection.
func loadConfig(path string) (*cyphergremlin.Config, error) {
	if path != "" {
		return cyphergremlin.LoadConfigFile(path)
	}

	cfg, err := cyphergremlin.LoadConfig(".")
	if errors.Is(err, cyphergremlin.ErrConfigNotFound) {
		return &cyphergremlin.Config{}, nil
	}

	return cfg, err
}

// apply merges the flags into cfg and returns the backend to use.
func (o overrides) apply(cfg *cyphergremlin.Config) (string, error) {
	backend := o.backend
	if backend == "" {
		backend = cfg.Backend()
	}

	if backend == "" {
		backend = cyphergremlin.BackendGremlin
		if o.uri != "" {
			backend = cyphergremlin.BackendNeo4j
		}
	}

	switch backend {
	case cyphergremlin.BackendGremlin:
		g := cfg.Gremlin
		if g == nil {
			g = &cyphergremlin.GremlinConfig{}
		}

		g.Host = firstNonEmpty(o.host, g.Host, "localhost")
		if o.port != 0 {
			g.Port = o.port
		} else if g.Port == 0 {
			g.Port = 8182
		}

		g.Username = firstNonEmpty(o.username, g.Username)
		g.Password = firstNonEmpty(o.password, g.Password)
		g.Serializer = firstNonEmpty(o.serializer, g.Serializer)
		cfg.Gremlin = g
	case cyphergremlin.BackendNeo4j:
		n := cfg.Neo4j
		if n == nil {
			n = &cyphergremlin.Neo4jConfig{}
		}

		n.URI = firstNonEmpty(o.uri, n.URI)
		n.Username = firstNonEmpty(o.username, n.Username)
		n.Password = firstNonEmpty(o.password, n.Password)

		if n.URI == "" {
			return "", ErrNoConnectionURI
		}

		cfg.Neo4j = n
	default:
		return "", fmt.Errorf("%w: %s", cyphergremlin.ErrUnknownBackend, backend)
	}

	return backend, nil
}

// connect builds the logger and the backend client from the global flags.
func connect(cmd *cli.Command) (cyphergremlin.Client, *zap.Logger, error) {
	log, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	backend, err := overridesFrom(cmd).apply(cfg)
	if err != nil {
		return nil, nil, err
	}

	cfg.Logger = log

	client, err := cyphergremlin.NewClient(backend, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s client: %w", backend, err)
	}

	log.Debug("connected", zap.String("backend", client.Name()))

	return client, log, nil
}

func closeAll(client cyphergremlin.Client, log *zap.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("close", zap.Error(err))
	}

	_ = log.Sync()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

type actionFunc func(ctx context.Context, cmd *cli.Command, client cyphergremlin.Client, log *zap.Logger) error

// withClient wraps an action with client setup and teardown.
func withClient(fn actionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		client, log, err := connect(cmd)
		if err != nil {
			return err
		}
		defer closeAll(client, log)

		return fn(ctx, cmd, client, log)
	}
}
