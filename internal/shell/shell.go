// Package shell is the interactive query loop: it reads lines, runs
// internal commands, submits complete statements and prints their results.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ethanyzhang/tdq/internal/render"
	"github.com/ethanyzhang/tdq/internal/splitter"
	"github.com/rs/zerolog/log"
)

const msgAborted = "Query aborted by user"

// Shell runs one session. Set the exported fields before calling Run.
type Shell struct {
	State    *State
	Commands CommandTable
	Runner   Runner
	Renderer *render.Renderer

	// Out receives result sets. It is the -o file when one is given.
	Out io.Writer
	// Console receives command output, row counts and notices.
	Console io.Writer
	// Errs receives errors and failed job output.
	Errs io.Writer

	// Colorize enables escape codes in annotated errors.
	Colorize bool

	// Batch submits an unterminated statement left at the end of input
	// instead of dropping it.
	Batch bool

	// NotifyInterrupt derives the context of one statement. It defaults to
	// cancelling on SIGINT.
	NotifyInterrupt func(ctx context.Context) (context.Context, context.CancelFunc)
}

// New returns a shell printing everything to stdout and errors to stderr.
func New(st *State, runner Runner) *Shell {
	return &Shell{
		State:    st,
		Commands: NewCommandTable(),
		Runner:   runner,
		Renderer: render.NewRenderer(),
		Out:      os.Stdout,
		Console:  os.Stdout,
		Errs:     os.Stderr,
	}
}

// Run reads from in until end of input, a quit command, or ctx is done.
func (sh *Shell) Run(ctx context.Context, in LineReader) error {
	var buffer string
	for !sh.State.Exit {
		if err := ctx.Err(); err != nil {
			return err
		}
		if buffer == "" {
			in.SetPrompt(sh.State.Prompt())
		} else {
			in.SetPrompt(ContinuationPrompt(sh.State.Prompt()))
		}

		line, err := in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			buffer = ""
			continue
		case errors.Is(err, io.EOF):
			if sh.Batch && strings.TrimSpace(buffer) != "" {
				sh.Execute(ctx, buffer)
			}
			return nil
		case err != nil:
			return fmt.Errorf("cannot read input: %w", err)
		}

		if buffer == "" {
			buffer = line
		} else {
			buffer += "\n" + line
		}

		switch Classify(buffer, sh.Commands) {
		case AwaitingInput:
			buffer = ""
		case Continuation:
		case CommandReady:
			sh.saveHistory(in, buffer)
			sh.Commands.Dispatch(sh.State, sh.Console, buffer)
			buffer = ""
		case QueryReady:
			sh.saveHistory(in, buffer)
			sh.Execute(ctx, buffer)
			buffer = ""
		}
	}
	return nil
}

func (sh *Shell) saveHistory(in LineReader, buffer string) {
	if err := in.SaveHistory(strings.ReplaceAll(buffer, "\n", " ")); err != nil {
		log.Debug().Err(err).Msg("failed to save history")
	}
}

// Execute submits every statement of buffer in order. A failed or
// interrupted statement does not stop the following ones; only the end of
// ctx does.
func (sh *Shell) Execute(ctx context.Context, buffer string) {
	for _, stmt := range splitter.Scan(buffer) {
		query := stmt.Body()
		if query == "" {
			continue
		}
		mode := render.ResolveMode(sh.State.Display, stmt.Vertical())

		stmtCtx, stop := sh.notifyInterrupt(ctx)
		log.Debug().Str("database", sh.State.Database).Stringer("engine", sh.State.Engine).
			Stringer("mode", mode).Msg("submitting statement")
		outcome := sh.Runner.Run(stmtCtx, sh.State.Engine, sh.State.Database, query)
		stop()

		sh.report(query, outcome, mode)
		if ctx.Err() != nil {
			return
		}
	}
}

func (sh *Shell) notifyInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	if sh.NotifyInterrupt != nil {
		return sh.NotifyInterrupt(ctx)
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func (sh *Shell) report(query string, outcome Outcome, mode render.DisplayMode) {
	switch {
	case outcome.Err != nil:
		if errors.Is(outcome.Err, context.Canceled) {
			fmt.Fprintln(sh.Console, msgAborted)
			return
		}
		fmt.Fprintln(sh.Errs, outcome.Err)

	case outcome.Failure != nil:
		sh.reportFailure(query, outcome.Failure)

	case outcome.Result != nil:
		if err := sh.Renderer.Render(sh.Out, outcome.Result, mode); err != nil {
			fmt.Fprintln(sh.Errs, err)
			return
		}
		fmt.Fprintf(sh.Console, "%s\n\n", render.RowCountFooter(len(outcome.Result.Rows)))
	}
}

func (sh *Shell) reportFailure(query string, f *Failure) {
	if f.Query != "" {
		query = f.Query
	}
	stderr := f.Stderr
	if stderr == "" {
		stderr = fmt.Sprintf("job %s finished with status %s", f.JobID, f.Status)
	}
	fmt.Fprint(sh.Errs, stderr)
	if !strings.HasSuffix(stderr, "\n") {
		fmt.Fprintln(sh.Errs)
	}

	annotated, err := render.AnnotateError(query, f.Stderr, sh.Colorize)
	if err != nil {
		log.Debug().Err(err).Str("job_id", f.JobID).Msg("error output not annotated")
	} else {
		fmt.Fprintln(sh.Errs, annotated)
	}
	fmt.Fprintln(sh.Errs)
}
