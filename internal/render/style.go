package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorMauve    lipgloss.Color = "#cba6f7"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorYellow   lipgloss.Color = "#f9e2af"
)

// Style holds the frame styles. Bodies are written unstyled so the JSON
// stays byte-exact.
type Style struct {
	Header lipgloss.Style
	Footer lipgloss.Style
	Prompt lipgloss.Style
}

// NewStyle builds styles whose color profile follows out: a terminal gets
// colors, a file or buffer gets plain text.
func NewStyle(out io.Writer) Style {
	r := lipgloss.NewRenderer(out)
	return Style{
		Header: r.NewStyle().Bold(true).Foreground(colorMauve),
		Footer: r.NewStyle().Foreground(colorOverlay1),
		Prompt: r.NewStyle().Foreground(colorYellow),
	}
}

// PlainStyle applies no styling.
func PlainStyle() Style {
	return Style{
		Header: lipgloss.NewStyle(),
		Footer: lipgloss.NewStyle(),
		Prompt: lipgloss.NewStyle(),
	}
}
