package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/fzsearch/internal/ui"
)

func RenderHeader(root, engines string, watching bool, width int) string {
	right := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(engines + " ")
	if watching {
		right = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorSuccess).Render("[watch] ") + right
	}

	avail := width - lipgloss.Width(right) - len(" fzsearch | ")
	if avail < 10 {
		avail = 10
	}
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(fmt.Sprintf(" fzsearch | %s", text.Truncate(avail, root)))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#1F2937")).
		Width(width).
		Render(left + padding + right)
}
