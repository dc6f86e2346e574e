package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	cyphergremlin "github.com/rlch/cypher-gremlin"
	"github.com/rlch/cypher-gremlin/cypher"
	"github.com/rlch/cypher-gremlin/runner"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Submit a Cypher query and print its rows",
		ArgsUsage: "<cypher>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print rows as newline-delimited JSON",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "print one row per line",
			},
			&cli.StringSliceFlag{
				Name:  "param",
				Usage: "bind a parameter: name=value (value is a literal, or a bare string)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "server-side evaluation timeout",
			},
			&cli.StringFlag{
				Name:  "graph",
				Usage: "graph (or Neo4j database) to query",
			},
			&cli.BoolFlag{
				Name:  "explain",
				Usage: "prefix the query with EXPLAIN",
			},
			&cli.StringSliceFlag{
				Name:  "expect",
				Usage: "boolean expression the rows must satisfy, e.g. 'count == 6'",
			},
		},
		Action: withClient(runQuery),
	}
}

func runQuery(ctx context.Context, cmd *cli.Command, client cyphergremlin.Client, log *zap.Logger) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return ErrNoQuery
	}

	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	stmt := cyphergremlin.NewStatement(query).
		WithParameters(params).
		WithTimeout(cmd.Duration("timeout")).
		WithGraph(cmd.String("graph"))

	if cmd.Bool("explain") {
		stmt = stmt.Explain()
	}

	if err := stmt.Validate(); err != nil {
		return err
	}

	log.Debug("submitting", zap.String("query", stmt.Query()))

	rows, err := cyphergremlin.Collect(ctx, client, stmt)
	if err != nil {
		return err
	}

	columns := columnsOf(stmt.Query(), rows)

	switch {
	case cmd.Bool("json"):
		err = printJSON(os.Stdout, rows)
	case cmd.Bool("raw"):
		err = printRaw(os.Stdout, rows)
	default:
		err = runner.RenderTable(os.Stdout, columns, rows)
	}

	if err != nil {
		return err
	}

	return checkExpects(os.Stderr, cmd.StringSlice("expect"), columns, rows)
}

// parseParams reads name=value pairs. A value that does not parse as a
// literal is bound as a plain string.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		name, src, ok := strings.Cut(pair, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), "$")

		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q: want name=value", pair)
		}

		value, err := runner.ParseValue(src)
		if err != nil {
			value = src
		}

		params[name] = value
	}

	return params, nil
}

func columnsOf(query string, rows []cyphergremlin.Row) []string {
	if len(rows) > 0 {
		return rows[0].Keys()
	}

	info, err := cypher.Scan(query)
	if err != nil {
		return nil
	}

	return info.Returns
}

func printJSON(w io.Writer, rows []cyphergremlin.Row) error {
	enc := json.NewEncoder(w)

	for _, row := range rows {
		if err := enc.Encode(row.Map()); err != nil {
			return err
		}
	}

	return nil
}

func printRaw(w io.Writer, rows []cyphergremlin.Row) error {
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}

	return nil
}

// checkExpects reports each expectation that does not hold and exits 1 if any fail.
func checkExpects(w io.Writer, expects []string, columns []string, rows []cyphergremlin.Row) error {
	failed := 0

	for _, src := range expects {
		ok, err := runner.Check(src, columns, rows)
		if err != nil {
			return err
		}

		if !ok {
			failed++

			_, _ = fmt.Fprintf(w, "expectation failed: %s (%d rows)\n", src, len(rows))
		}
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
