package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/boyter/gocodewalker"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	cyphergremlin "github.com/rlch/cypher-gremlin"
	"github.com/rlch/cypher-gremlin/runner"
)

const scriptExt = "cypher"

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run .cypher scripts and check their // expect: directives",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: table, dots, verbose or json",
				Value:   runner.FormatTable,
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "stop on first failure",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "run only scripts whose file::name matches pattern",
			},
		},
		Action: withClient(runScripts),
	}
}

func runScripts(ctx context.Context, cmd *cli.Command, client cyphergremlin.Client, log *zap.Logger) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"."}
	}

	files, err := collectScriptFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoScripts
	}

	scripts, err := loadScripts(files)
	if err != nil {
		return err
	}

	log.Debug("loaded scripts", zap.Int("files", len(files)), zap.Int("scripts", len(scripts)))

	handler := runner.NewFormatHandler(runner.NewFormatter(cmd.String("format"), os.Stdout), os.Stderr)

	r := runner.New(
		runner.WithClient(client),
		runner.WithHandler(handler),
		runner.WithFailFast(cmd.Bool("fail-fast")),
		runner.WithFilter(cmd.String("run")),
		runner.WithLogger(log),
	)

	result, err := r.Run(ctx, scripts)
	if err != nil {
		return err
	}

	if err := handler.Summary(result); err != nil {
		return err
	}

	if !result.Ok() {
		return cli.Exit("", 1)
	}

	return nil
}

func loadScripts(files []string) ([]runner.Script, error) {
	var scripts []runner.Script

	for _, file := range files {
		data, err := os.ReadFile(file) //nolint:gosec // G304: file path from user input is expected
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		parsed, err := runner.ParseScripts(file, string(data))
		if err != nil {
			return nil, err
		}

		scripts = append(scripts, parsed...)
	}

	return scripts, nil
}

// collectScriptFiles expands directories into the .cypher files below them,
// respecting .gitignore. Files named directly are kept as given. The result
// is sorted so scripts run in a stable order.
func collectScriptFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, arg)

			continue
		}

		found, err := walkDir(arg)
		if err != nil {
			return nil, err
		}

		files = append(files, found...)
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

// walkDir walks a directory for .cypher files.
func walkDir(root string) ([]string, error) {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.AllowListExtensions = []string{scriptExt}

	var walkErr error

	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e

		return true
	})

	var (
		wg    sync.WaitGroup
		files []string
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for f := range fileListQueue {
			if strings.HasSuffix(f.Location, "."+scriptExt) {
				files = append(files, f.Location)
			}
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return nil, err
	}

	wg.Wait()

	return files, walkErr
}
