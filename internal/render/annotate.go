package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethanyzhang/tdq/tdclient"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// ErrUnannotatable is returned by AnnotateError when the error message
// cannot be mapped onto the query. Print the raw message instead.
var ErrUnannotatable = errors.New("error message cannot be annotated")

// eofMarker is appended when the error column is past the end of the line.
const eofMarker = " <EOF>"

// AnnotateError returns query with the failing position of a Presto error
// highlighted. The message must contain "Query ... failed: line R:C: ";
// the text of line R from column C to the end of the line is shown in
// bright red. When colorize is false a caret line under column C marks the
// position instead.
func AnnotateError(query, message string, colorize bool) (string, error) {
	loc, err := tdclient.ParseErrorLocation(message)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnannotatable, err)
	}

	lines := strings.Split(query, "\n")
	if loc.LineNumber < 1 || loc.LineNumber > len(lines) {
		return "", fmt.Errorf("%w: %s is outside the %d line query", ErrUnannotatable, loc, len(lines))
	}
	if loc.ColumnNumber < 1 {
		return "", fmt.Errorf("%w: bad column in %s", ErrUnannotatable, loc)
	}

	red := color.New(color.FgHiRed)
	if colorize {
		red.EnableColor()
	} else {
		red.DisableColor()
	}

	i := loc.LineNumber - 1
	target := []rune(lines[i])
	col := loc.ColumnNumber - 1
	switch {
	case col >= len(target):
		lines[i] = string(target) + red.Sprint(eofMarker)
	case colorize:
		lines[i] = string(target[:col]) + red.Sprint(string(target[col:]))
	default:
		lines = append(lines[:i+1], append([]string{caretLine(target[:col])}, lines[i+1:]...)...)
	}
	return strings.Join(lines, "\n"), nil
}

// caretLine returns a line whose "^" sits under the character following
// prefix. Tabs are kept so the caret lines up on any tab width.
func caretLine(prefix []rune) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	b.WriteByte('^')
	return b.String()
}
