package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Bar renders a single full-width line; newlines are flattened and overflow
// is truncated.
func Bar(style lipgloss.Style, width int, text string) string {
	line := strings.ReplaceAll(text, "\n", " ")
	if width <= 0 {
		return style.Render(line)
	}
	line = ansi.Truncate(line, width, "")
	if w := ansi.StringWidth(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	return style.
		Width(width).
		MaxWidth(width).
		Render(line)
}

// ClipHeight keeps at most height lines of s. A non-positive height keeps everything.
func ClipHeight(s string, height int) string {
	if height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// Input renders a one-line text field. The focused field shows a cursor.
func Input(label, value string, labelWidth int, focused bool, focusStyle, blurStyle lipgloss.Style) string {
	pad := labelWidth - ansi.StringWidth(label)
	if pad < 1 {
		pad = 1
	}
	field := "[" + value
	if focused {
		field += "▏"
	}
	field += "]"
	if focused {
		field = focusStyle.Render(field)
	} else {
		field = blurStyle.Render(field)
	}
	return label + strings.Repeat(" ", pad) + field
}

// Button renders a bracketed action label.
func Button(label string, focused bool, focusStyle, blurStyle lipgloss.Style) string {
	text := "[ " + label + " ]"
	if focused {
		return focusStyle.Render(text)
	}
	return blurStyle.Render(text)
}
