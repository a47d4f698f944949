// Package main provides the tdq interactive query shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethanyzhang/tdq/internal/config"
	"github.com/ethanyzhang/tdq/internal/render"
	"github.com/ethanyzhang/tdq/internal/shell"
	"github.com/ethanyzhang/tdq/tdclient"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const prog = "tdq"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the shell and returns the process exit status: 0 on a clean
// exit, 1 on a startup error, 2 on bad arguments.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags]\n", prog)
		fs.PrintDefaults()
	}
	file := fs.StringP("file", "f", "", "execute statements from file and exit")
	output := fs.StringP("output", "o", "", "write output to file instead of stdout")
	format := render.DefaultOutputFormat
	fs.Var(&format, "output-format", "format the CSV output, one of CSV, CSV_HEADER, CSV_UNQUOTED, CSV_HEADER_UNQUOTED")
	database := fs.StringP("database", "d", "", "use database")
	endpoint := fs.StringP("endpoint", "e", tdclient.DefaultEndpoint, "query service endpoint")
	engine := fs.StringP("engine", "g", tdclient.EnginePresto.String(), "SQL query engine, presto or hive")
	showVersion := fs.BoolP("version", "v", false, "print the version and exit")
	debug := fs.Bool("debug", false, "log debug messages to stderr")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}
	if _, err := tdclient.ParseEngine(*engine); err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 2
	}

	setupLogging(stderr, *debug)

	// Defaults of -e and -g only apply after the environment and the
	// config file.
	flags := config.Flags{Database: *database}
	if fs.Changed("endpoint") {
		flags.Endpoint = *endpoint
	}
	if fs.Changed("engine") {
		flags.Engine = *engine
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fatal(stderr, err)
		return 1
	}
	client, err := cfg.NewClient()
	if err != nil {
		fatal(stderr, err)
		return 1
	}
	client.UserAgent(prog + "/" + version)

	st := &shell.State{Database: cfg.Database, Engine: cfg.Engine}
	sh := shell.New(st, shell.NewClientRunner(client))
	sh.Renderer.Format = format
	sh.Console = stdout
	sh.Out = stdout
	sh.Errs = stderr
	sh.Colorize = isTerminal(stderr)

	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fatal(stderr, fmt.Errorf("cannot open output file: %w", err))
			return 1
		}
		defer f.Close()
		sh.Out = f
	}

	var reader shell.LineReader
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fatal(stderr, fmt.Errorf("cannot open statement file: %w", err))
			return 1
		}
		reader = shell.NewBatchReader(f)
		sh.Batch = true
	} else if isTerminal(stdin) {
		rl, err := shell.NewInteractiveReader(shell.HistoryPath(), sh.Commands)
		if err != nil {
			log.Warn().Err(err).Msg("line editing unavailable")
			reader = shell.NewBatchReader(stdin)
		} else {
			reader = rl
		}
	} else {
		reader = shell.NewBatchReader(stdin)
		sh.Batch = true
	}
	defer reader.Close()

	fmt.Fprintf(stdout, "*** TDQuery shell. Ctrl-D to quit\n")
	fmt.Fprintf(stdout, "*** endpoint = %s\n", cfg.Endpoint)
	fmt.Fprintf(stdout, "*** apikey(last 3 digits) = %s\n\n", cfg.MaskedAPIKey())

	if err := sh.Run(context.Background(), reader); err != nil {
		fatal(stderr, err)
		return 1
	}
	return 0
}

func loadConfig(flags config.Flags) (*config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		log.Debug().Err(err).Msg("no config file")
		path = ""
	}
	cfg, err := config.Load(path, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(w io.Writer, debug bool) {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
}

func fatal(w io.Writer, err error) {
	color.New(color.FgHiRed).Fprintf(w, "%s: %v\n", prog, err)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
