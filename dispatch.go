package clams

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Invocation is a resolved command together with its bound argument values. It is produced by
// [Tree.Parse] and used once by [Invocation.Run].
type Invocation struct {
	// Command is the command that will run.
	Command *Node

	// Values maps every argument dest in scope to its parsed value. Arguments that were absent and
	// have no default map to nil.
	Values map[string]any

	// Args holds the tokens that followed the command path, before flag parsing.
	Args []string

	logger logrus.FieldLogger
}

// Parse resolves tokens, which must not include the program name, to a command and binds the
// remaining tokens to its arguments. Optional arguments are handed to the tree's [FlagParser];
// positional arguments are bound in declaration order.
//
// Parse returns a [*NoHandlerError] when the tokens do not lead to a runnable command, an
// [*ArgumentParsingError] when the arguments do not bind, and a [*HelpError] when help was asked
// for.
func (t *Tree) Parse(tokens []string) (*Invocation, error) {
	if !t.ready {
		if err := t.Init(); err != nil {
			return nil, err
		}
	}
	node, rest, err := t.Resolve(tokens)
	if wantsHelp(node, rest) {
		return nil, &HelpError{Command: node}
	}
	if err != nil {
		return nil, err
	}

	local, inherited := node.flags()
	values := make([]*Value, 0, len(local)+len(inherited))
	for _, spec := range local {
		values = append(values, NewValue(spec))
	}
	for _, spec := range inherited {
		values = append(values, NewValue(spec))
	}
	shielded, negatives := shieldNegatives(values, rest)
	positional, err := t.parser.Parse(node.FullName(), values, shielded)
	if err != nil {
		return nil, &ArgumentParsingError{Command: node, Err: err}
	}
	for i, tok := range positional {
		if orig, ok := negatives[tok]; ok {
			positional[i] = orig
		}
	}

	bound := make(map[string]any, len(values)+len(node.args))
	missing, err := bindPositionals(node.positionals(), positional, bound)
	if err != nil {
		return nil, &ArgumentParsingError{Command: node, Err: err}
	}
	for _, v := range values {
		if v.Spec.Required && !v.Changed() {
			missing = append(missing, v.Spec.Name)
		}
		bound[v.Spec.Dest] = v.Get()
	}
	if len(missing) > 0 {
		return nil, &ArgumentParsingError{
			Command: node,
			Err:     fmt.Errorf("the following arguments are required: %s", strings.Join(missing, ", ")),
		}
	}

	t.logger.WithFields(logrus.Fields{
		"command": node.FullName(),
		"values":  bound,
	}).Debug("parsed arguments")
	return &Invocation{
		Command: node,
		Values:  bound,
		Args:    rest,
		logger:  t.logger,
	}, nil
}

// bindPositionals assigns tokens to specs left to right. Each spec takes as many tokens as its
// arity allows while leaving enough for the minimums of the specs after it. It returns the names
// of required positionals that received no tokens.
func bindPositionals(specs []*ArgSpec, tokens []string, values map[string]any) ([]string, error) {
	// need[i] is the number of tokens specs[i:] require.
	need := make([]int, len(specs)+1)
	for i := len(specs) - 1; i >= 0; i-- {
		need[i] = need[i+1] + specs[i].Arity.min
	}

	if len(tokens) < need[0] {
		var missing []string
		remaining := len(tokens)
		for _, spec := range specs {
			if remaining >= spec.Arity.min {
				remaining -= spec.Arity.min
				continue
			}
			remaining = 0
			missing = append(missing, spec.display())
		}
		return missing, nil
	}

	pos := 0
	for i, spec := range specs {
		take := len(tokens) - pos - need[i+1]
		if !spec.Arity.unbounded() {
			take = min(take, spec.Arity.max)
		}
		v, err := bindPositional(spec, tokens[pos:pos+take])
		if err != nil {
			return nil, err
		}
		values[spec.Dest] = v
		pos += take
	}
	if pos < len(tokens) {
		return nil, fmt.Errorf("unrecognized arguments: %s", strings.Join(tokens[pos:], " "))
	}
	return nil, nil
}

func bindPositional(spec *ArgSpec, tokens []string) (any, error) {
	if len(tokens) == 0 {
		return spec.absent(), nil
	}
	converted := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		if err := spec.checkChoice(tok); err != nil {
			return nil, err
		}
		v, err := convert(spec.Kind, tok)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", spec.display(), err)
		}
		converted = append(converted, v)
	}
	if spec.Arity.scalar() {
		return converted[0], nil
	}
	return makeSlice(spec.Kind, converted), nil
}

var negativeNumber = regexp.MustCompile(`^-\d+$|^-\d*\.\d+$`)

// shieldNegatives swaps tokens that look like negative numbers for placeholders the flag library
// treats as positionals, and returns the placeholders mapped to the original tokens. Tokens that
// are the value of the preceding flag are left alone. Nothing is swapped when some flag is itself
// spelled like a negative number.
func shieldNegatives(values []*Value, tokens []string) ([]string, map[string]string) {
	spellings := make(map[string]*Value)
	for _, v := range values {
		for _, name := range v.Spec.flagNames() {
			if negativeNumber.MatchString("-" + name) {
				return tokens, nil
			}
			spellings[name] = v
		}
	}
	wantsValue := func(tok string) bool {
		if !strings.HasPrefix(tok, "-") || strings.Contains(tok, "=") {
			return false
		}
		name := strings.TrimLeft(tok, "-")
		v, ok := spellings[name]
		if !ok && !strings.HasPrefix(tok, "--") && len(name) > 1 {
			// Combined shorthands, the last one may take the next token.
			v, ok = spellings[name[len(name)-1:]]
		}
		return ok && !v.IsBoolFlag()
	}

	var (
		out  []string
		orig map[string]string
	)
	for i, tok := range tokens {
		if tok == "--" {
			out = append(out, tokens[i:]...)
			break
		}
		if negativeNumber.MatchString(tok) && (i == 0 || !wantsValue(tokens[i-1])) {
			if orig == nil {
				orig = make(map[string]string)
			}
			placeholder := "\x00" + strconv.Itoa(i)
			orig[placeholder] = tok
			tok = placeholder
		}
		out = append(out, tok)
	}
	return out, orig
}

// wantsHelp reports whether tokens ask for help before any "--". Spellings claimed by a declared
// flag are left to that flag.
func wantsHelp(n *Node, tokens []string) bool {
	local, inherited := n.flags()
	declared := make(map[string]bool)
	for _, spec := range append(local, inherited...) {
		for _, name := range spec.flagNames() {
			declared[name] = true
		}
	}
	for _, tok := range tokens {
		switch tok {
		case "--":
			return false
		case "-h", "--h", "-help", "--help":
			if !declared[strings.TrimLeft(tok, "-")] {
				return true
			}
		}
	}
	return false
}
