package widgets

import "github.com/charmbracelet/lipgloss"

// Box frames content under a bracketed title.
type Box struct {
	Title   string
	Content string
}

func (b Box) Render(width int) string {
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if width > 4 {
		style = style.Width(width - 2)
	}
	if b.Title == "" {
		return style.Render(b.Content)
	}
	return style.Render("[" + b.Title + "]\n" + b.Content)
}
