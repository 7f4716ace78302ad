package clams

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Arity is the number of tokens an argument consumes. Use [Exactly] for a fixed count or one of
// [ZeroOrOne], [ZeroOrMore] and [OneOrMore].
type Arity struct {
	min, max int // max < 0 means unbounded
}

var (
	// ZeroOrOne consumes one token if one is available ("?").
	ZeroOrOne = Arity{min: 0, max: 1}
	// ZeroOrMore consumes all available tokens ("*").
	ZeroOrMore = Arity{min: 0, max: -1}
	// OneOrMore consumes all available tokens, at least one ("+").
	OneOrMore = Arity{min: 1, max: -1}
)

// Exactly returns an arity consuming exactly n tokens.
func Exactly(n int) Arity {
	return Arity{min: n, max: n}
}

// ParseArity parses the conventional nargs notation: an integer, "?", "*" or "+".
func ParseArity(s string) (Arity, error) {
	switch s {
	case "?":
		return ZeroOrOne, nil
	case "*":
		return ZeroOrMore, nil
	case "+":
		return OneOrMore, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return Arity{}, fmt.Errorf("invalid nargs %q: must be a positive integer, \"?\", \"*\" or \"+\"", s)
	}
	return Exactly(n), nil
}

func (a Arity) String() string {
	switch a {
	case ZeroOrOne:
		return "?"
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	}
	return strconv.Itoa(a.min)
}

// scalar reports whether values bound with this arity are single values rather than slices.
func (a Arity) scalar() bool {
	return a == Exactly(1) || a == ZeroOrOne
}

func (a Arity) unbounded() bool {
	return a.max < 0
}

// Kind is the type an argument's tokens are converted to.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Duration
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Duration:
		return "duration"
	default:
		return "unknown"
	}
}

// Action controls what an optional argument does when its flag is seen.
type Action int

const (
	// Store converts the flag's value and stores it.
	Store Action = iota
	// StoreTrue stores true when the flag is present. Defaults to false.
	StoreTrue
	// StoreFalse stores false when the flag is present. Defaults to true.
	StoreFalse
	// Count stores the number of times the flag is present.
	Count
	// Append collects every occurrence of the flag into a slice.
	Append
)

func (a Action) String() string {
	switch a {
	case Store:
		return "store"
	case StoreTrue:
		return "store_true"
	case StoreFalse:
		return "store_false"
	case Count:
		return "count"
	case Append:
		return "append"
	default:
		return "unknown"
	}
}

func (a Action) takesValue() bool {
	return a == Store || a == Append
}

// ArgSpec declares one parameter of a command. Names starting with "-" declare optional arguments
// (flags); every other name declares a positional argument. Create specs with [Arg].
type ArgSpec struct {
	Name     string
	Aliases  []string
	Dest     string
	Arity    Arity
	Kind     Kind
	Action   Action
	Default  any
	Help     string
	Metavar  string
	Choices  []string
	Required bool

	aritySet bool
}

// ArgOption configures an [ArgSpec].
type ArgOption func(*ArgSpec)

// Arg declares an argument. It is the counterpart of a conventional add-argument call:
//
//	clams.Arg("name", clams.NArgs(clams.ZeroOrOne), clams.Help("who to greet"))
//	clams.Arg("--message", clams.Alias("-m"))
//	clams.Arg("--all", clams.Alias("-a"), clams.WithAction(clams.StoreTrue))
func Arg(name string, opts ...ArgOption) *ArgSpec {
	spec := &ArgSpec{
		Name:  name,
		Arity: Exactly(1),
	}
	for _, opt := range opts {
		opt(spec)
	}
	if spec.Dest == "" {
		spec.Dest = strings.TrimLeft(name, "-")
	}
	return spec
}

// NArgs sets the argument's arity.
func NArgs(a Arity) ArgOption {
	return func(s *ArgSpec) {
		s.Arity = a
		s.aritySet = true
	}
}

// Default sets the value used when the argument is absent. Strings are converted to the argument's
// type; other values must already have it.
func Default(v any) ArgOption {
	return func(s *ArgSpec) { s.Default = v }
}

// Help sets the argument's help text.
func Help(text string) ArgOption {
	return func(s *ArgSpec) { s.Help = text }
}

// Type sets the kind tokens are converted to. The default is [String].
func Type(k Kind) ArgOption {
	return func(s *ArgSpec) { s.Kind = k }
}

// WithAction sets the action of an optional argument.
func WithAction(a Action) ArgOption {
	return func(s *ArgSpec) { s.Action = a }
}

// Alias adds alternative spellings for an optional argument, such as "-m" for "--message".
func Alias(names ...string) ArgOption {
	return func(s *ArgSpec) { s.Aliases = append(s.Aliases, names...) }
}

// Dest sets the key the parsed value is stored under. It defaults to the name without leading
// dashes.
func Dest(name string) ArgOption {
	return func(s *ArgSpec) { s.Dest = name }
}

// Metavar sets the placeholder shown for the argument's value in help text.
func Metavar(name string) ArgOption {
	return func(s *ArgSpec) { s.Metavar = name }
}

// Choices restricts the argument to the given values.
func Choices(values ...string) ArgOption {
	return func(s *ArgSpec) { s.Choices = append(s.Choices, values...) }
}

// Required marks an optional argument as mandatory.
func Required() ArgOption {
	return func(s *ArgSpec) { s.Required = true }
}

// Positional reports whether the argument is bound by position rather than by flag.
func (s *ArgSpec) Positional() bool {
	return !strings.HasPrefix(s.Name, "-")
}

// flagNames returns every spelling of an optional argument with its dashes removed.
func (s *ArgSpec) flagNames() []string {
	names := make([]string, 0, 1+len(s.Aliases))
	for _, n := range append([]string{s.Name}, s.Aliases...) {
		names = append(names, strings.TrimLeft(n, "-"))
	}
	return names
}

func (s *ArgSpec) metavar() string {
	if s.Metavar != "" {
		return s.Metavar
	}
	if s.Positional() {
		return s.Dest
	}
	return strings.ToUpper(s.Dest)
}

func (s *ArgSpec) validate() error {
	if strings.TrimLeft(s.Name, "-") == "" {
		return errors.New("argument has no name")
	}
	if strings.ContainsAny(s.Name, " \t\n") {
		return fmt.Errorf("argument name %q contains spaces", s.Name)
	}
	if s.Dest == "" {
		return fmt.Errorf("argument %q has an empty dest", s.Name)
	}
	if s.Arity.min < 0 || (s.Arity.max >= 0 && s.Arity.max < s.Arity.min) || s.Arity == Exactly(0) {
		return fmt.Errorf("argument %q: invalid nargs", s.Name)
	}
	if s.Positional() {
		if len(s.Aliases) > 0 {
			return fmt.Errorf("positional argument %q cannot have aliases", s.Name)
		}
		if s.Required {
			return fmt.Errorf("positional argument %q: required is implied by nargs", s.Name)
		}
		if s.Action != Store {
			return fmt.Errorf("positional argument %q: action %s is only valid for flags", s.Name, s.Action)
		}
	} else {
		for _, alias := range s.Aliases {
			if !strings.HasPrefix(alias, "-") || strings.TrimLeft(alias, "-") == "" {
				return fmt.Errorf("argument %q: alias %q must start with a dash", s.Name, alias)
			}
		}
		names := s.flagNames()
		for i, name := range names {
			if slices.Contains(names[:i], name) {
				return fmt.Errorf("argument %q: flag -%s spelled twice", s.Name, name)
			}
		}
		if s.aritySet && s.Arity != Exactly(1) {
			return fmt.Errorf("argument %q: flags take a single value per occurrence, use the append action to collect several", s.Name)
		}
		if !s.Action.takesValue() && len(s.Choices) > 0 {
			return fmt.Errorf("argument %q: choices require a value-taking action", s.Name)
		}
	}
	if s.Default != nil {
		if _, err := s.convertDefault(); err != nil {
			return fmt.Errorf("argument %q: invalid default: %w", s.Name, err)
		}
	}
	return nil
}

func (s *ArgSpec) checkChoice(token string) error {
	if len(s.Choices) == 0 || slices.Contains(s.Choices, token) {
		return nil
	}
	quoted := make([]string, 0, len(s.Choices))
	for _, c := range s.Choices {
		quoted = append(quoted, strconv.Quote(c))
	}
	return fmt.Errorf("invalid choice %q for %s (choose from %s)", token, s.display(), strings.Join(quoted, ", "))
}

// display is how the argument is named in error messages.
func (s *ArgSpec) display() string {
	if s.Positional() {
		return s.Dest
	}
	return s.Name
}
