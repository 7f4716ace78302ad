// Package textutil formats help text for fixed-width terminals. Widths are measured in display
// columns, so wide and combining characters line up.
package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Wrap splits text into lines of at most width columns, breaking at whitespace. A word wider than
// width gets a line of its own.
func Wrap(text string, width int) []string {
	var (
		lines        []string
		current      []string
		currentWidth int
	)
	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		switch {
		case len(current) == 0:
			current = []string{word}
			currentWidth = w
		case currentWidth+1+w > width:
			lines = append(lines, strings.Join(current, " "))
			current = []string{word}
			currentWidth = w
		default:
			current = append(current, word)
			currentWidth += 1 + w
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

// Width returns the number of columns s occupies.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Pad right-pads s with spaces to width columns.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
