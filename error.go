package clams

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// ErrHelp is returned when the user asked for help with -h or --help. The usage text has already
// been written by the time a caller sees it.
var ErrHelp = flag.ErrHelp

// HelpError is returned by [Tree.Parse] when the tokens ask for help. It matches [ErrHelp] with
// errors.Is.
type HelpError struct {
	Command *Node
}

func (e *HelpError) Error() string {
	return fmt.Sprintf("command %q: help requested", e.Command.FullName())
}

func (e *HelpError) Unwrap() error {
	return ErrHelp
}

// DuplicateRegistrationError is returned when a handler is registered for a command path that
// already has one.
type DuplicateRegistrationError struct {
	Path []string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("command %q already registered", displayPath(e.Path))
}

// UnknownCommandError is returned when a lookup names a command path that does not exist.
type UnknownCommandError struct {
	Path []string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", displayPath(e.Path))
}

// NoHandlerError is returned when dispatch resolves to a command that has no handler. Token is the
// first token that did not match a subcommand, if any.
type NoHandlerError struct {
	Command     *Node
	Token       string
	Suggestions []string
}

func (e *NoHandlerError) Error() string {
	name := e.Command.FullName()
	if e.Token == "" {
		return fmt.Sprintf("command %q requires a subcommand", name)
	}
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("unknown command %q for %q. Did you mean one of these?\n\t%s",
			e.Token,
			name,
			strings.Join(e.Suggestions, "\n\t"))
	}
	return fmt.Sprintf("unknown command %q for %q", e.Token, name)
}

// ArgumentParsingError is returned when the tokens left after command resolution could not be bound
// to the resolved command's arguments.
type ArgumentParsingError struct {
	Command *Node
	Err     error
}

func (e *ArgumentParsingError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Command.FullName(), e.Err)
}

func (e *ArgumentParsingError) Unwrap() error {
	return e.Err
}

// ExitError carries an explicit process exit code out of a handler. Use [Exit] or [Exitf] to
// create one.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode implements the interface checked by [ExitCode].
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Exit returns an error that makes [Tree.Main] exit with code without printing anything.
func Exit(code int) error {
	return &ExitError{Code: code}
}

// Exitf returns an error that makes [Tree.Main] print the formatted message and exit with code.
func Exitf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// Exit codes used by [ExitCode] for errors that do not carry their own.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps an error returned by dispatch to a process exit code. A nil error and [ErrHelp] map
// to 0, resolution and argument errors to 2, errors with an ExitCode() int method to that code, and
// everything else to 1.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrHelp) {
		return ExitSuccess
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	var (
		noHandler *NoHandlerError
		argErr    *ArgumentParsingError
	)
	if errors.As(err, &noHandler) || errors.As(err, &argErr) {
		return ExitUsage
	}
	return ExitFailure
}

func displayPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, " ")
}
