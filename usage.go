package clams

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/unbservices/clams/pkg/textutil"
)

const defaultWidth = 80

// Usage renders the help text for n, wrapped to width columns. Flag sections are rendered by the
// tree's [FlagParser].
func (t *Tree) Usage(n *Node, width int) string {
	if n == nil {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder

	about := strings.TrimSpace(n.description)
	if about == "" {
		about = strings.TrimSpace(n.summary)
	}
	if about != "" {
		for _, line := range textutil.Wrap(about, width) {
			b.WriteString(line)
			b.WriteRune('\n')
		}
		b.WriteRune('\n')
	}

	b.WriteString("Usage:\n")
	b.WriteString("  " + usageLine(n) + "\n")
	b.WriteRune('\n')

	if children := n.Children(); len(children) > 0 {
		b.WriteString("Available Commands:\n")
		rows := make([]helpRow, 0, len(children))
		for _, c := range children {
			rows = append(rows, helpRow{name: c.name, text: c.summary})
		}
		writeRows(&b, rows, width)
		b.WriteRune('\n')
	}

	var args []helpRow
	for _, spec := range n.positionals() {
		text := spec.Help
		if spec.Default != nil {
			text = strings.TrimSpace(text + fmt.Sprintf(" (default: %s)", formatValue(spec.absent())))
		}
		if len(spec.Choices) > 0 {
			text = strings.TrimSpace(text + fmt.Sprintf(" {%s}", strings.Join(spec.Choices, ",")))
		}
		args = append(args, helpRow{name: spec.metavar(), text: text})
	}
	if len(args) > 0 {
		b.WriteString("Arguments:\n")
		writeRows(&b, args, width)
		b.WriteRune('\n')
	}

	local, inherited := n.flags()
	if len(local) > 0 {
		b.WriteString("Flags:\n")
		b.WriteString(t.parser.Usage(newValues(local), width))
		b.WriteString("\n\n")
	}
	if len(inherited) > 0 {
		b.WriteString("Global Flags:\n")
		b.WriteString(t.parser.Usage(newValues(inherited), width))
		b.WriteString("\n\n")
	}

	if len(n.children) > 0 {
		fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", n.FullName())
	}

	return strings.TrimRight(b.String(), "\n")
}

// usageLine renders the synopsis of n, e.g. "git remote add [flags] <name> <url>".
func usageLine(n *Node) string {
	parts := []string{n.FullName()}
	local, inherited := n.flags()
	if len(local)+len(inherited) > 0 {
		parts = append(parts, "[flags]")
	}
	if len(n.children) > 0 {
		if n.handler != nil {
			parts = append(parts, "[command]")
		} else {
			parts = append(parts, "<command>")
		}
	}
	for _, spec := range n.positionals() {
		parts = append(parts, positionalUsage(spec))
	}
	return strings.Join(parts, " ")
}

func positionalUsage(spec *ArgSpec) string {
	name := spec.metavar()
	switch spec.Arity {
	case ZeroOrOne:
		return "[" + name + "]"
	case ZeroOrMore:
		return "[" + name + "...]"
	case OneOrMore:
		return "<" + name + ">..."
	}
	return strings.TrimSpace(strings.Repeat("<"+name+"> ", spec.Arity.min))
}

func newValues(specs []*ArgSpec) []*Value {
	values := make([]*Value, 0, len(specs))
	for _, s := range specs {
		values = append(values, NewValue(s))
	}
	return values
}

type helpRow struct {
	name string
	text string
}

// writeRows writes a two column listing, wrapping the text column to fit width.
func writeRows(b *strings.Builder, rows []helpRow, width int) {
	maxLen := 0
	for _, r := range rows {
		maxLen = max(maxLen, textutil.Width(r.name))
	}
	nameWidth := maxLen + 4
	wrapWidth := max(width-nameWidth-2, 20)

	for _, r := range rows {
		lines := textutil.Wrap(r.text, wrapWidth)
		if len(lines) == 0 {
			fmt.Fprintf(b, "  %s\n", r.name)
			continue
		}
		fmt.Fprintf(b, "  %s%s\n", textutil.Pad(r.name, nameWidth), lines[0])

		indentPadding := strings.Repeat(" ", nameWidth+2)
		for _, line := range lines[1:] {
			fmt.Fprintf(b, "%s%s\n", indentPadding, line)
		}
	}
}

type flagRow struct {
	names  []string
	value  *Value
	usage  string
	defval string
}

// writeFlagRows formats flags for [StdFlags]: aliases share a row, value-taking flags show their
// metavar and non-empty defaults are appended to the description.
func writeFlagRows(b *strings.Builder, flags []flagRow, width int) {
	rows := make([]helpRow, 0, len(flags))
	for _, f := range flags {
		name := strings.Join(f.names, ", ")
		if !f.value.IsBoolFlag() {
			name += " " + f.value.Spec.metavar()
		}
		text := f.usage
		if f.defval != "" {
			text = strings.TrimSpace(text + fmt.Sprintf(" (default: %s)", f.defval))
		}
		if len(f.value.Spec.Choices) > 0 {
			text = strings.TrimSpace(text + fmt.Sprintf(" {%s}", strings.Join(f.value.Spec.Choices, ",")))
		}
		if f.value.Spec.Required {
			text = strings.TrimSpace(text + " (required)")
		}
		rows = append(rows, helpRow{name: name, text: text})
	}
	writeRows(b, rows, width)
}

// terminalWidth returns the width of the terminal behind w, or the default width when w is not a
// terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
