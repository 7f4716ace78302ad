package clams

import (
	"flag"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mfridman/xflag"
	"github.com/spf13/pflag"
)

// FlagParser parses the optional arguments of a resolved command. It receives one [Value] per
// optional argument in scope and the tokens left over after command resolution, and returns the
// positional tokens in their original order. Binding positionals is left to the dispatcher.
type FlagParser interface {
	Parse(name string, values []*Value, tokens []string) ([]string, error)

	// Usage renders help text for the given flags, wrapped to width columns where supported.
	Usage(values []*Value, width int) string
}

// StdFlags parses flags with the standard library flag package. Flags may be spelled with one or two
// dashes and may appear anywhere among the positional arguments; "--" ends flag parsing.
type StdFlags struct{}

var _ FlagParser = StdFlags{}

func (StdFlags) Parse(name string, values []*Value, tokens []string) ([]string, error) {
	fset := newStdFlagSet(name, values)

	args, rest := tokens, []string(nil)
	if i := slices.Index(tokens, "--"); i >= 0 {
		args, rest = tokens[:i], tokens[i+1:]
	}
	if err := xflag.ParseToEnd(fset, args); err != nil {
		return nil, err
	}
	return slices.Concat(fset.Args(), rest), nil
}

func (StdFlags) Usage(values []*Value, width int) string {
	fset := newStdFlagSet("", values)

	var (
		rows  []flagRow
		index = make(map[*Value]int)
	)
	// VisitAll walks flags in lexicographical order, aliases share one row.
	fset.VisitAll(func(f *flag.Flag) {
		v := f.Value.(*Value)
		if i, ok := index[v]; ok {
			rows[i].names = append(rows[i].names, "-"+f.Name)
			return
		}
		index[v] = len(rows)
		rows = append(rows, flagRow{
			names:  []string{"-" + f.Name},
			value:  v,
			usage:  f.Usage,
			defval: f.DefValue,
		})
	})
	var b strings.Builder
	writeFlagRows(&b, rows, width)
	return strings.TrimRight(b.String(), "\n")
}

func newStdFlagSet(name string, values []*Value) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.Usage = func() {}
	for _, v := range values {
		for _, n := range v.Spec.flagNames() {
			fset.Var(v, n, v.Spec.Help)
		}
	}
	return fset
}

// POSIXFlags parses flags with pflag: long flags take two dashes (--message), single-letter aliases
// take one (-m) and may be combined (-am).
type POSIXFlags struct{}

var _ FlagParser = POSIXFlags{}

func (POSIXFlags) Parse(name string, values []*Value, tokens []string) ([]string, error) {
	fset := newPOSIXFlagSet(name, values)
	if err := fset.Parse(tokens); err != nil {
		return nil, err
	}
	return fset.Args(), nil
}

func (POSIXFlags) Usage(values []*Value, width int) string {
	fset := newPOSIXFlagSet("", values)
	return strings.TrimRight(fset.FlagUsagesWrapped(width), "\n")
}

func newPOSIXFlagSet(name string, values []*Value) *pflag.FlagSet {
	fset := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.Usage = func() {}
	fset.SortFlags = false
	for _, v := range values {
		long, short, hidden := posixNames(v.Spec)
		setBoolDefaults(fset.VarPF(v, long, short, v.Spec.Help), v)
		for _, n := range hidden {
			setBoolDefaults(fset.VarPF(v, n, "", v.Spec.Help), v)
			_ = fset.MarkHidden(n)
		}
	}
	return fset
}

// setBoolDefaults lets flags that take no value be given bare, and keeps pflag from printing a
// default for switches and counters that start out off.
func setBoolDefaults(f *pflag.Flag, v *Value) {
	if !v.IsBoolFlag() {
		return
	}
	f.NoOptDefVal = "true"
	if v.Spec.Default == nil {
		f.DefValue = strconv.FormatBool(v.Spec.Action == StoreFalse)
	}
}

// posixNames picks pflag's long name and shorthand for spec. Spellings that fit neither slot are
// registered as hidden long flags.
func posixNames(spec *ArgSpec) (long, short string, hidden []string) {
	var rest []string
	for _, n := range append([]string{spec.Name}, spec.Aliases...) {
		trimmed := strings.TrimLeft(n, "-")
		switch {
		case long == "" && strings.HasPrefix(n, "--"):
			long = trimmed
		case short == "" && !strings.HasPrefix(n, "--") && len(trimmed) == 1:
			short = trimmed
		default:
			rest = append(rest, trimmed)
		}
	}
	if long == "" {
		long = strings.TrimLeft(spec.Name, "-")
	}
	for _, n := range rest {
		if n != long {
			hidden = append(hidden, n)
		}
	}
	return long, short, hidden
}
