package cyphergremlin

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rlch/cypher-gremlin/gremlin"
)

// Config represents the .cypher-gremlin.yaml configuration file.
// Only one backend section should be set; its presence selects the backend.
type Config struct {
	Gremlin *GremlinConfig `yaml:"gremlin,omitempty"`
	Neo4j   *Neo4jConfig   `yaml:"neo4j,omitempty"`

	// Logger is passed to backends. Defaults to a no-op logger.
	Logger *zap.Logger `yaml:"-"`
}

// GremlinConfig holds Gremlin Server connection settings.
type GremlinConfig struct {
	Host               string `yaml:"host,omitempty"`
	Port               int    `yaml:"port,omitempty"`
	Path               string `yaml:"path,omitempty"`
	TLS                bool   `yaml:"tls,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty"`
	Username           string `yaml:"username,omitempty"`
	Password           string `yaml:"password,omitempty"`

	// Serializer is graphsonv3 (default) or graphsonv2.
	Serializer string `yaml:"serializer,omitempty"`

	// TraversalSource is sent as the g alias. Empty uses the server's first graph.
	TraversalSource string `yaml:"traversal_source,omitempty"`
	// Graph is the default graph name for statements that do not set one.
	Graph string `yaml:"graph,omitempty"`

	// Timeout is the default evaluation timeout for statements without one.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// BatchSize asks the server to stream results in batches of this size.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Retries is how many times a failed statement is resubmitted.
	// Non-zero retries buffer each result fully before returning it.
	Retries uint64 `yaml:"retries,omitempty"`
	// DialRetries is how many times a failed dial is retried.
	DialRetries uint64 `yaml:"dial_retries,omitempty"`
}

// ClientConfig converts the settings to a wire-level client config.
func (c *GremlinConfig) ClientConfig(log *zap.Logger) gremlin.Config {
	return gremlin.Config{
		Host:               c.Host,
		Port:               c.Port,
		Path:               c.Path,
		TLS:                c.TLS,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Username:           c.Username,
		Password:           c.Password,
		Serializer:         c.Serializer,
		PingInterval:       gremlin.DefaultPingInterval,
		Retry:              gremlin.RetryConfig{MaxAttempts: c.DialRetries},
		Logger:             log,
	}
}

// Neo4jConfig holds Neo4j connection settings.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// Backend returns the configured backend name, or empty if none.
func (c *Config) Backend() string {
	switch {
	case c.Gremlin != nil:
		return BackendGremlin
	case c.Neo4j != nil:
		return BackendNeo4j
	default:
		return ""
	}
}

// Log returns the configured logger or a no-op one.
func (c *Config) Log() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}

	return c.Logger
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".cypher-gremlin.yaml", ".cypher-gremlin.yml", "cypher-gremlin.yaml", "cypher-gremlin.yml"}

// LoadConfig finds and loads the nearest .cypher-gremlin.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Gremlin != nil && cfg.Neo4j != nil {
		return nil, fmt.Errorf("%w: %s configures both gremlin and neo4j", ErrInvalidConfig, path)
	}

	return &cfg, nil
}
