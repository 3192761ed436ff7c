package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/rab/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	Items        int
	Loading      bool
	AIConfigured bool
	Model        string
	Spinner      string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [a]dd  [u]pload  [e]xport  [?]help  [q]uit"

	var right string
	switch {
	case s.Loading:
		right = fmt.Sprintf("%s memproses file... ", s.Spinner)
	case !s.AIConfigured:
		right = "AI: belum dikonfigurasi │ " + fmt.Sprintf("%d item ", s.Items)
	default:
		right = fmt.Sprintf("AI: %s │ %d item ", s.Model, s.Items)
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
