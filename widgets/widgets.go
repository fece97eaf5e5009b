package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderBar draws v (0-255) as a horizontal bar of width cells
func RenderBar(v uint8, width int, filled, blank rune, color lipgloss.Color) string {
	n := (int(v)*width + 127) / 255
	on := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(string(filled), n))
	return on + strings.Repeat(string(blank), width-n)
}

// RenderPan draws a pan position as a marker on a centered track
func RenderPan(v uint8, width int) string {
	pos := int(v) * (width - 1) / 255
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == pos:
			b.WriteByte('|')
		case i == width/2:
			b.WriteByte('+')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

// FormatMillis renders a time offset as m:ss.mmm
func FormatMillis(ms int) string {
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
