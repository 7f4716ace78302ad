package clams

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tree is a registry of commands rooted at the program. Create one with [New], declare commands
// with [Tree.Register] and run it with [Tree.Main].
//
// Registration is expected to finish before dispatch starts; a Tree is not safe for concurrent
// registration and dispatch.
type Tree struct {
	root   *Node
	parser FlagParser
	logger logrus.FieldLogger
	ready  bool
}

// Option configures a [Tree].
type Option func(*Tree)

// WithFlagParser sets the library that parses optional arguments. The default is [StdFlags].
func WithFlagParser(p FlagParser) Option {
	return func(t *Tree) {
		if p != nil {
			t.parser = p
		}
	}
}

// WithLogger sets the logger used for debug tracing and handed to handlers through [State]. By
// default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns an empty tree whose root command is named after the program.
func New(name string, opts ...Option) *Tree {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	t := &Tree{
		root:   newNode(name, nil),
		parser: StdFlags{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the root command.
func (t *Tree) Root() *Node {
	return t.root
}

// Decorator modifies a command at declaration time. [*ArgSpec] values, [Summary] and [Description]
// are decorators.
type Decorator interface {
	decorate(n *Node) error
}

func (s *ArgSpec) decorate(n *Node) error {
	return n.attach(s)
}

type textDecorator func(n *Node)

func (d textDecorator) decorate(n *Node) error {
	d(n)
	return nil
}

// Summary sets the one-line description shown next to the command in its parent's help.
func Summary(text string) Decorator {
	return textDecorator(func(n *Node) { n.summary = text })
}

// Description sets the longer text shown at the top of the command's own help.
func Description(text string) Decorator {
	return textDecorator(func(n *Node) { n.description = text })
}

// Path splits a space separated command path, so that Path("remote add") is []string{"remote",
// "add"}.
func Path(s string) []string {
	return strings.Fields(s)
}

// Register attaches h to the command at path, creating any missing commands along the way, and
// applies the decorators in order. Registering a path that already has a handler returns a
// [*DuplicateRegistrationError]. An empty path registers the root command's handler.
//
//	err := tree.Register(clams.Path("remote add"), addRemote,
//		clams.Summary("Add a remote"),
//		clams.Arg("name"),
//		clams.Arg("url"),
//	)
func (t *Tree) Register(path []string, h Handler, decorators ...Decorator) error {
	if h == nil {
		return fmt.Errorf("failed to register %q: nil handler", displayPath(path))
	}
	n, err := t.node(path)
	if err != nil {
		return fmt.Errorf("failed to register %q: %w", displayPath(path), err)
	}
	if n.handler != nil {
		return &DuplicateRegistrationError{Path: slices.Clone(path)}
	}
	if err := t.apply(n, decorators); err != nil {
		prune(n)
		return err
	}
	n.handler = h
	t.ready = false
	t.logger.WithField("command", n.FullName()).Debug("registered command")
	return nil
}

// MustRegister is like [Tree.Register] but panics on error. Registration errors are programming
// errors, so most programs declare their commands with MustRegister.
func (t *Tree) MustRegister(path []string, h Handler, decorators ...Decorator) {
	if err := t.Register(path, h, decorators...); err != nil {
		panic(err)
	}
}

// AddArgument attaches spec to the command at path. The command is created if it does not exist
// yet, so arguments may be declared before the command's handler is registered. Positional
// arguments bind in the order they are added.
func (t *Tree) AddArgument(path []string, spec *ArgSpec) error {
	return t.Decorate(path, spec)
}

// Decorate applies decorators to the command at path, creating the command if needed.
func (t *Tree) Decorate(path []string, decorators ...Decorator) error {
	n, err := t.node(path)
	if err != nil {
		return fmt.Errorf("failed to decorate %q: %w", displayPath(path), err)
	}
	if err := t.apply(n, decorators); err != nil {
		prune(n)
		return err
	}
	t.ready = false
	return nil
}

// apply runs decorators against n. If one fails, n is restored to its state before the call.
func (t *Tree) apply(n *Node, decorators []Decorator) error {
	nargs, summary, description := len(n.args), n.summary, n.description
	for _, d := range decorators {
		if d == nil {
			continue
		}
		if err := d.decorate(n); err != nil {
			n.args = n.args[:nargs:nargs]
			n.summary, n.description = summary, description
			return fmt.Errorf("command %q: %w", n.FullName(), err)
		}
	}
	return nil
}

// prune removes n and its ancestors from the tree for as long as they carry nothing, undoing the
// commands created on the way to a failed declaration.
func prune(n *Node) {
	for n.parent != nil && n.handler == nil && len(n.children) == 0 && len(n.args) == 0 &&
		n.summary == "" && n.description == "" {
		delete(n.parent.children, n.name)
		n = n.parent
	}
}

// node returns the command at path, creating missing commands.
func (t *Tree) node(path []string) (*Node, error) {
	for _, name := range path {
		if err := validateName(name); err != nil {
			return nil, err
		}
	}
	current := t.root
	for _, name := range path {
		child, ok := current.children[name]
		if !ok {
			child = newNode(name, current)
			current.children[name] = child
		}
		current = child
	}
	return current, nil
}

// Lookup returns the command at path without creating it. It returns an [*UnknownCommandError] if
// no command exists there.
func (t *Tree) Lookup(path []string) (*Node, error) {
	current := t.root
	for _, name := range path {
		child, ok := current.children[name]
		if !ok {
			return nil, &UnknownCommandError{Path: slices.Clone(path)}
		}
		current = child
	}
	return current, nil
}

// Resolve walks the tree along tokens, descending while the next token names a subcommand of the
// current command. It returns the deepest command reached and the tokens that were not consumed. If
// that command has no handler, Resolve returns it together with a [*NoHandlerError].
func (t *Tree) Resolve(tokens []string) (*Node, []string, error) {
	current := t.root
	i := 0
	for ; i < len(tokens); i++ {
		child, ok := current.children[tokens[i]]
		if !ok {
			break
		}
		current = child
	}
	rest := tokens[i:]
	t.logger.WithFields(logrus.Fields{
		"command":  current.FullName(),
		"leftover": rest,
	}).Debug("resolved command")
	if current.handler == nil {
		var token string
		if len(rest) > 0 {
			token = rest[0]
		}
		return current, rest, current.unknownCommand(token)
	}
	return current, rest, nil
}

// Init checks that the declared commands are complete: every command must have a valid name, and
// every command that received arguments must have been registered or have subcommands. Dispatch
// calls Init automatically; calling it explicitly reports declaration mistakes at startup.
func (t *Tree) Init() error {
	if t.root.name == "" {
		return errors.New("failed to initialize: root command has no name")
	}
	if err := validateNode(t.root); err != nil {
		return fmt.Errorf("failed to initialize %q: %w", t.root.name, err)
	}
	t.ready = true
	return nil
}

func validateNode(n *Node) error {
	if n.parent != nil && n.handler == nil && len(n.children) == 0 {
		return fmt.Errorf("command %q was declared but never registered", n.FullName())
	}
	for _, spec := range n.args {
		if err := spec.validate(); err != nil {
			return fmt.Errorf("command %q: %w", n.FullName(), err)
		}
	}
	for _, child := range n.Children() {
		if err := validateNode(child); err != nil {
			return err
		}
	}
	return nil
}
