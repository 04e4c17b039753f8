package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Descriptions read badly at full widescreen width, so wrapping caps out
// before the terminal does.
const maxRenderWidth = 100

// NewRenderer returns a function that renders markdown using glamour.
// Recipe descriptions are long-form markdown, so the describe command
// pipes them through this before printing. Output wraps to the terminal
// width when stdout is a TTY, to 80 columns otherwise.
func NewRenderer() func(string) (string, error) {
	width := 80
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = min(w, maxRenderWidth)
		}
	}

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(width),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
