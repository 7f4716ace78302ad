package clams

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// State is what a [Handler] receives: the command being run, its argument values and the I/O
// streams to use. Use [Get] and [Lookup] to read argument values by dest.
type State struct {
	// Command is the command being run.
	Command *Node

	// Values maps argument dests to parsed values. Absent arguments without a default are nil.
	Values map[string]any

	// Args contains the raw tokens that followed the command path.
	Args []string

	// Standard I/O streams.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// Logger is the tree's logger, see [WithLogger].
	Logger logrus.FieldLogger
}

// Get returns the value stored under dest, with type inference. Example usage:
//
//	name := clams.Get[string](s, "name")
//	count := clams.Get[int](s, "count")
//	files := clams.Get[[]string](s, "files")
//
// An argument that was absent and has no default yields the zero value of T; use [Lookup] to tell
// the two apart.
//
// Get panics if dest was never declared for the command or if T does not match the argument's
// type. Both are programming errors that should fail loudly during development.
func Get[T any](s *State, dest string) T {
	v, ok := s.Values[dest]
	if !ok {
		panic(fmt.Errorf("internal error: argument %q not declared for command %q", dest, s.Command.FullName()))
	}
	var zero T
	if v == nil {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Errorf("internal error: type mismatch for argument %q in command %q: registered %T, requested %T",
			dest, s.Command.FullName(), v, zero))
	}
	return typed
}

// Lookup is like [Get] but reports whether the argument has a value. It returns false for dests
// that are absent without a default, or were never declared.
func Lookup[T any](s *State, dest string) (T, bool) {
	var zero T
	v, ok := s.Values[dest]
	if !ok || v == nil {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Errorf("internal error: type mismatch for argument %q in command %q: registered %T, requested %T",
			dest, s.Command.FullName(), v, zero))
	}
	return typed, true
}
