package gremlin

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Connection defaults.
const (
	DefaultHost         = "localhost"
	DefaultPort         = 8182
	DefaultPath         = "/gremlin"
	DefaultDialTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 30 * time.Second
)

// Config describes how to reach a Gremlin Server.
type Config struct {
	Host string
	Port int
	Path string

	TLS                bool
	InsecureSkipVerify bool

	Username string
	Password string

	// Serializer is a name accepted by SerializerFor.
	Serializer string

	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// PingInterval of zero disables keepalive pings.
	PingInterval time.Duration

	Retry RetryConfig

	Logger *zap.Logger
}

// RetryConfig controls reconnect attempts when dialing.
type RetryConfig struct {
	// MaxAttempts is the number of dial retries after the first failure.
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ParseURL builds a Config from a ws:// or wss:// URL.
func ParseURL(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var cfg Config

	switch u.Scheme {
	case "ws":
	case "wss":
		cfg.TLS = true
	default:
		return Config{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}

	cfg.Host = u.Hostname()
	cfg.Path = u.Path

	if p := u.Port(); p != "" {
		if cfg.Port, err = strconv.Atoi(p); err != nil {
			return Config{}, fmt.Errorf("%w: port: %w", ErrInvalidConfig, err)
		}
	}

	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}

	return cfg.withDefaults(), nil
}

// URL returns the WebSocket endpoint.
func (c Config) URL() string {
	c = c.withDefaults()

	scheme := "ws"
	if c.TLS {
		scheme = "wss"
	}

	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   c.Path,
	}

	return u.String()
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.Path == "" {
		c.Path = DefaultPath
	}

	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	return c
}

func (c Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}

	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("%w: password set without username", ErrInvalidConfig)
	}

	if _, err := SerializerFor(c.Serializer); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
