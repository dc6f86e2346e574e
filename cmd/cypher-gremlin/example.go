package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	cyphergremlin "github.com/rlch/cypher-gremlin"
)

const exampleQuery = "MATCH (n) RETURN n.name"

// modernNames are the vertex names of the TinkerPop modern graph.
var modernNames = []string{"marko", "vadas", "lop", "josh", "ripple", "peter"}

var errNamesMismatch = errors.New("names do not match the modern graph")

func exampleCommand() *cli.Command {
	return &cli.Command{
		Name:   "example",
		Usage:  "Query every node name and check it against the TinkerPop modern graph",
		Action: withClient(runExampleAction),
	}
}

func runExampleAction(ctx context.Context, _ *cli.Command, client cyphergremlin.Client, _ *zap.Logger) error {
	err := runExample(ctx, client, os.Stdout)
	if errors.Is(err, errNamesMismatch) {
		fmt.Fprintln(os.Stderr, err)

		return cli.Exit("", 1)
	}

	return err
}

// runExample prints each row of the example query and compares the names,
// in any order, with the modern graph's.
func runExample(ctx context.Context, client cyphergremlin.Client, w io.Writer) error {
	rows, err := cyphergremlin.Collect(ctx, client, cyphergremlin.NewStatement(exampleQuery))
	if err != nil {
		return err
	}

	names := make([]string, 0, len(rows))

	for _, row := range rows {
		_, _ = fmt.Fprintln(w, row)

		if row.Len() > 0 {
			names = append(names, cyphergremlin.FormatValue(row.Index(0)))
		}
	}

	diff := cmp.Diff(modernNames, names, cmpopts.SortSlices(func(a, b string) bool { return a < b }))
	if diff != "" {
		return fmt.Errorf("%w (-want +got):\n%s", errNamesMismatch, diff)
	}

	return nil
}
