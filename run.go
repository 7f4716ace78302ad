package clams

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// RunOptions specifies options for running a command.
type RunOptions struct {
	// Stdin, Stdout, and Stderr are the standard input, output, and error streams for the command.
	// If any of these are nil, the command will use the default streams ([os.Stdin], [os.Stdout],
	// and [os.Stderr], respectively).
	Stdin          io.Reader
	Stdout, Stderr io.Writer
}

// Run calls the resolved command's handler. The handler's error is returned unchanged.
//
// The options parameter may be nil, in which case default values are used. See [RunOptions] for
// more details.
func (inv *Invocation) Run(ctx context.Context, options *RunOptions) error {
	options = checkAndSetRunOptions(options)
	s := &State{
		Command: inv.Command,
		Values:  inv.Values,
		Args:    inv.Args,
		Stdin:   options.Stdin,
		Stdout:  options.Stdout,
		Stderr:  options.Stderr,
		Logger:  inv.logger,
	}
	inv.logger.WithField("command", inv.Command.FullName()).Debug("running command")
	return inv.Command.handler(ctx, s)
}

// Dispatch parses argv, whose first element is the program name, and runs the selected command.
// When help is requested the command's usage is written to the standard output and an error
// matching [ErrHelp] is returned. All other errors, including the handler's, are returned as is.
func (t *Tree) Dispatch(ctx context.Context, argv []string, options *RunOptions) error {
	options = checkAndSetRunOptions(options)
	var tokens []string
	if len(argv) > 0 {
		tokens = argv[1:]
	}
	inv, err := t.Parse(tokens)
	if err != nil {
		if help := (*HelpError)(nil); errors.As(err, &help) {
			fmt.Fprintln(options.Stdout, t.Usage(help.Command, terminalWidth(options.Stdout)))
		}
		return err
	}
	return inv.Run(ctx, options)
}

// Execute dispatches argv and reports the outcome the way a command-line program would: errors are
// written to the standard error stream, together with usage information for resolution and
// argument errors. It returns the process exit code, see [ExitCode].
func (t *Tree) Execute(ctx context.Context, argv []string, options *RunOptions) int {
	options = checkAndSetRunOptions(options)
	err := t.Dispatch(ctx, argv, options)
	if err == nil || errors.Is(err, ErrHelp) {
		return ExitCode(err)
	}

	width := terminalWidth(options.Stderr)
	var (
		noHandler *NoHandlerError
		argErr    *ArgumentParsingError
		exitErr   *ExitError
	)
	switch {
	case errors.As(err, &noHandler):
		fmt.Fprintf(options.Stderr, "%s\n\n", t.Usage(noHandler.Command, width))
		fmt.Fprintf(options.Stderr, "error: %v\n", err)
	case errors.As(err, &argErr):
		fmt.Fprintf(options.Stderr, "usage: %s\n", usageLine(argErr.Command))
		fmt.Fprintf(options.Stderr, "error: %v\n", err)
	case errors.As(err, &exitErr) && exitErr.Err == nil:
		// Exit code only, the handler has reported whatever it wanted to.
	default:
		fmt.Fprintf(options.Stderr, "error: %v\n", err)
	}
	return ExitCode(err)
}

// Main runs the program with [os.Args] and exits the process with the resulting exit code. It
// does not return.
func (t *Tree) Main(ctx context.Context) {
	os.Exit(t.Execute(ctx, os.Args, nil))
}

func checkAndSetRunOptions(opt *RunOptions) *RunOptions {
	if opt == nil {
		opt = &RunOptions{}
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	return opt
}
