package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	pdx "github.com/chismar/ParadoxDevelopmentStudioScriptingLanguageParser"
)

// readScript reads a file, or standard input for "-".
func (e *env) readScript(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// parseFile parses a whole file as a statement sequence.
func (e *env) parseFile(path string) (pdx.Ops, string, error) {
	text, err := e.readScript(path)
	if err != nil {
		return nil, "", err
	}
	ops, err := e.cfg.Parser(e.logger).ParseOps(text)
	if err != nil {
		return nil, text, fmt.Errorf("%s:%w", path, err)
	}
	return ops, text, nil
}

func argsOrStdin(c *cli.Context) []string {
	if c.Args().Len() == 0 {
		return []string{"-"}
	}
	return c.Args().Slice()
}

func fmtCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "re-print scripts in canonical form",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "write the result back to each file; files with # comments are refused unless --strip-comments is set",
			},
			&cli.BoolFlag{Name: "strip-comments", Usage: "allow --write to drop # comments"},
			&cli.BoolFlag{Name: "diff", Aliases: []string{"d"}, Usage: "print a unified diff instead of the result"},
		},
		Action: func(c *cli.Context) error {
			for _, path := range argsOrStdin(c) {
				ops, text, err := e.parseFile(path)
				if err != nil {
					return err
				}
				formatted := e.cfg.Printer().Sprint(ops, 0)

				switch {
				case c.Bool("diff"):
					diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
						A:        difflib.SplitLines(text),
						B:        difflib.SplitLines(formatted),
						FromFile: path + ".orig",
						ToFile:   path,
						Context:  3,
					})
					if err != nil {
						return fmt.Errorf("diff %s: %w", path, err)
					}
					fmt.Fprint(e.stdout, diff)
				case c.Bool("write") && path != "-":
					if formatted == text {
						continue
					}
					if !c.Bool("strip-comments") && pdx.HasComments(text) {
						return fmt.Errorf("%s: formatting would remove its comments; pass --strip-comments to write it anyway", path)
					}
					if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
						return fmt.Errorf("write %s: %w", path, err)
					}
					e.logger.Info("formatted", slog.String("file", path))
				default:
					fmt.Fprint(e.stdout, formatted)
				}
			}
			return nil
		},
	}
}

func checkCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "parse scripts and report syntax errors",
		ArgsUsage: "file...",
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return errors.New("check: no files given")
			}

			results := make([]error, len(paths))
			var g errgroup.Group
			g.SetLimit(e.cfg.Check.Workers)
			for i, path := range paths {
				i, path := i, path
				g.Go(func() error {
					_, _, results[i] = e.parseFile(path)
					return nil
				})
			}
			_ = g.Wait()

			failed := 0
			for _, err := range results {
				if err != nil {
					failed++
					fmt.Fprintln(e.stdout, err)
				}
			}
			e.logger.Debug("check finished",
				slog.Int("files", len(paths)),
				slog.Int("failed", failed))
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to parse", failed, len(paths))
			}
			return nil
		},
	}
}

func getCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print the value at a dotted key path",
		ArgsUsage: "file path",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "print every statement matching the last key"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return errors.New("get: expected a file and a key path")
			}
			ops, _, err := e.parseFile(c.Args().Get(0))
			if err != nil {
				return err
			}
			path := c.Args().Get(1)

			var found []*pdx.Operator
			if c.Bool("all") {
				var scope pdx.Scope = ops
				if i := strings.LastIndexByte(path, '.'); i >= 0 {
					parent := pdx.Path(ops, path[:i])
					if parent == nil {
						return fmt.Errorf("get: %s not found", path)
					}
					scope = parent
				}
				found = pdx.LookupAll(scope, path[strings.LastIndexByte(path, '.')+1:])
			} else if op := pdx.Path(ops, path); op != nil {
				found = []*pdx.Operator{op}
			}
			if len(found) == 0 {
				return fmt.Errorf("get: %s not found", path)
			}

			pr := e.cfg.Printer()
			for _, op := range found {
				fmt.Fprintln(e.stdout, pr.Sprint(op.Value, 0))
			}
			return nil
		},
	}
}

func exportCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "convert a script to JSON or YAML",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json or yaml"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = "-"
			}
			ops, _, err := e.parseFile(path)
			if err != nil {
				return err
			}

			var data []byte
			switch format := c.String("format"); format {
			case "json":
				data, err = pdx.ToJSON(ops)
			case "yaml", "yml":
				data, err = pdx.ToYAML(ops)
			default:
				return fmt.Errorf("export: unknown format %q", format)
			}
			if err != nil {
				return err
			}
			_, err = e.stdout.Write(data)
			return err
		},
	}
}

func mergeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "apply overlay scripts on top of a base script",
		ArgsUsage: "base overlay...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Value: string(pdx.MergeDeep), Usage: "deep, replace or append"},
			&cli.StringFlag{Name: "lists", Value: string(pdx.ListAppend), Usage: "append, replace or unique"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return errors.New("merge: expected a base and at least one overlay")
			}
			opts := pdx.MergeOptions{
				Strategy: pdx.MergeStrategy(c.String("strategy")),
				Lists:    pdx.ListStrategy(c.String("lists")),
			}
			switch opts.Strategy {
			case pdx.MergeDeep, pdx.MergeReplace, pdx.MergeAppend:
			default:
				return fmt.Errorf("merge: unknown strategy %q", opts.Strategy)
			}
			switch opts.Lists {
			case pdx.ListAppend, pdx.ListReplace, pdx.ListUnique:
			default:
				return fmt.Errorf("merge: unknown list strategy %q", opts.Lists)
			}

			paths := c.Args().Slice()
			result, _, err := e.parseFile(paths[0])
			if err != nil {
				return err
			}
			for _, path := range paths[1:] {
				overlay, _, err := e.parseFile(path)
				if err != nil {
					return err
				}
				result = pdx.Merge(result, overlay, opts)
			}
			return e.cfg.Printer().Fprint(e.stdout, result)
		},
	}
}

func resolveCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "substitute @references with their definitions",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict", Usage: "fail on undefined references"},
			&cli.BoolFlag{Name: "keep", Usage: "keep @name = value definitions in the output"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = "-"
			}
			ops, _, err := e.parseFile(path)
			if err != nil {
				return err
			}
			resolved, err := pdx.NewResolver().
				WithStrict(c.Bool("strict")).
				WithKeepDefinitions(c.Bool("keep")).
				Resolve(ops)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return e.cfg.Printer().Fprint(e.stdout, resolved)
		},
	}
}
