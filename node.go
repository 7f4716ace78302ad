package clams

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/unbservices/clams/pkg/suggest"
)

// Handler runs a command. It receives the parsed argument values through [State] and returns an
// error if execution fails; see [ExitCode] for how errors become exit codes.
type Handler func(ctx context.Context, s *State) error

// Node is one level of the command hierarchy. Nodes are created by [Tree.Register],
// [Tree.AddArgument] and [Tree.Decorate] and are owned by their parent.
type Node struct {
	name        string
	summary     string
	description string
	handler     Handler
	args        []*ArgSpec
	children    map[string]*Node
	parent      *Node
}

func newNode(name string, parent *Node) *Node {
	return &Node{
		name:     name,
		parent:   parent,
		children: make(map[string]*Node),
	}
}

// Name returns the command's name. The root's name is the program name.
func (n *Node) Name() string { return n.name }

// Summary returns the one-line description shown in command listings.
func (n *Node) Summary() string { return n.summary }

// HasHandler reports whether the command can be dispatched to.
func (n *Node) HasHandler() bool { return n.handler != nil }

// Args returns the command's own argument specs in declaration order.
func (n *Node) Args() []*ArgSpec { return slices.Clone(n.args) }

// Path returns the command path from the root, excluding the program name.
func (n *Node) Path() []string {
	var path []string
	for c := n; c.parent != nil; c = c.parent {
		path = append(path, c.name)
	}
	slices.Reverse(path)
	return path
}

// FullName returns the command as typed on the command line, e.g. "git remote add".
func (n *Node) FullName() string {
	var names []string
	for _, c := range n.lineage() {
		names = append(names, c.name)
	}
	return strings.Join(names, " ")
}

// Children returns the subcommands sorted by name.
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	slices.SortFunc(children, func(a, b *Node) int {
		return cmp.Compare(a.name, b.name)
	})
	return children
}

// Child returns the direct subcommand with the given name, or nil.
func (n *Node) Child(name string) *Node {
	return n.children[name]
}

// lineage returns the nodes from the root down to n.
func (n *Node) lineage() []*Node {
	var nodes []*Node
	for c := n; c != nil; c = c.parent {
		nodes = append(nodes, c)
	}
	slices.Reverse(nodes)
	return nodes
}

func (n *Node) positionals() []*ArgSpec {
	var specs []*ArgSpec
	for _, s := range n.args {
		if s.Positional() {
			specs = append(specs, s)
		}
	}
	return specs
}

// flags returns the optional arguments in scope for n: its own, followed by those inherited from
// its ancestors. A dest or spelling already claimed by a nearer command shadows the ancestor's.
func (n *Node) flags() (local, inherited []*ArgSpec) {
	dests := make(map[string]bool)
	spellings := make(map[string]bool)
	claim := func(s *ArgSpec) bool {
		if dests[s.Dest] {
			return false
		}
		for _, name := range s.flagNames() {
			if spellings[name] {
				return false
			}
		}
		dests[s.Dest] = true
		for _, name := range s.flagNames() {
			spellings[name] = true
		}
		return true
	}
	for _, s := range n.positionals() {
		dests[s.Dest] = true
	}
	for c := n; c != nil; c = c.parent {
		for _, s := range c.args {
			if s.Positional() || !claim(s) {
				continue
			}
			if c == n {
				local = append(local, s)
			} else {
				inherited = append(inherited, s)
			}
		}
	}
	return local, inherited
}

func (n *Node) attach(spec *ArgSpec) error {
	if spec == nil {
		return errors.New("nil argument spec")
	}
	if err := spec.validate(); err != nil {
		return err
	}
	for _, existing := range n.args {
		if existing.Dest == spec.Dest {
			return fmt.Errorf("argument %q conflicts with %q: both store to %q", spec.Name, existing.Name, spec.Dest)
		}
		if spec.Positional() || existing.Positional() {
			continue
		}
		for _, name := range spec.flagNames() {
			if slices.Contains(existing.flagNames(), name) {
				return fmt.Errorf("argument %q conflicts with %q: flag -%s declared twice", spec.Name, existing.Name, name)
			}
		}
	}
	n.args = append(n.args, spec)
	return nil
}

func (n *Node) unknownCommand(token string) *NoHandlerError {
	known := make([]string, 0, len(n.children))
	for name := range n.children {
		known = append(known, name)
	}
	return &NoHandlerError{
		Command:     n,
		Token:       token,
		Suggestions: suggest.FindSimilar(token, known, 3),
	}
}

func validateName(name string) error {
	if name == "" {
		return errors.New("command has no name")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("command name %q must not start with a dash", name)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("command name %q contains spaces, must be a single word", name)
	}
	return nil
}
