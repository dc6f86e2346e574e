// Command cypher-gremlin runs Cypher statements against Gremlin Server's
// cypher plugin, or against Neo4j for comparison.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/rlch/cypher-gremlin/databases/gremlin"
	_ "github.com/rlch/cypher-gremlin/databases/neo4j"
)

func main() {
	cmd := &cli.Command{
		Name:  "cypher-gremlin",
		Usage: "Run Cypher against Gremlin Server",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			queryCommand(),
			runCommand(),
			exampleCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default: nearest .cypher-gremlin.yaml)",
			Sources: cli.EnvVars("CYPHER_GREMLIN_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "backend to use: gremlin or neo4j (overrides config)",
			Sources: cli.EnvVars("CYPHER_GREMLIN_BACKEND"),
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Gremlin Server host",
			Value:   "localhost",
			Sources: cli.EnvVars("CYPHER_GREMLIN_HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Gremlin Server port",
			Value:   8182,
			Sources: cli.EnvVars("CYPHER_GREMLIN_PORT"),
		},
		&cli.StringFlag{
			Name:    "uri",
			Usage:   "Neo4j connection URI",
			Sources: cli.EnvVars("CYPHER_GREMLIN_URI"),
		},
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "username",
			Sources: cli.EnvVars("CYPHER_GREMLIN_USER"),
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "password",
			Sources: cli.EnvVars("CYPHER_GREMLIN_PASS"),
		},
		&cli.StringFlag{
			Name:    "serializer",
			Usage:   "GraphSON version: graphsonv3 or graphsonv2",
			Sources: cli.EnvVars("CYPHER_GREMLIN_SERIALIZER"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "enable debug logging",
			Sources: cli.EnvVars("CYPHER_GREMLIN_DEBUG"),
		},
	}
}

// newLogger logs to stderr; stdout carries results.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}
