// Command pdxscript formats, checks, queries and exports Paradox script files.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chismar/ParadoxDevelopmentStudioScriptingLanguageParser/internal/config"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "pdxscript: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command needs once flags and config are applied.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}

	return &cli.App{
		Name:      "pdxscript",
		Usage:     "format, check and query Paradox script files",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: .pdxscript.toml or .pdxscript.yaml in the working directory)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error; overrides log.level",
			},
		},
		Before: e.setup,
		Commands: []*cli.Command{
			fmtCommand(e),
			checkCommand(e),
			getCommand(e),
			exportCommand(e),
			mergeCommand(e),
			resolveCommand(e),
		},
	}
}

// setup loads the config and builds the logger.
func (e *env) setup(c *cli.Context) error {
	cfg := config.Default()
	path := c.String("config")
	if path == "" {
		path, _ = config.Find(".")
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))
	e.logger.Debug("configuration loaded", slog.String("path", path))
	return nil
}
