package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/x/ansi"
)

// OK prints a success line.
func OK(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Success.Render(t.SymOK+" "+msg))
}

// Fail prints an error line.
func Fail(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Error.Render(t.SymFail+" "+msg))
}

// Hint prints a faint follow-up line.
func Hint(w io.Writer, msg string) {
	fmt.Fprintln(w, Current().Muted.Render(msg))
}

// Strip removes styling, leaving the visible text.
func Strip(s string) string { return ansi.Strip(s) }
