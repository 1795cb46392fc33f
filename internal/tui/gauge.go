package tui

import (
	"fmt"

	"github.com/theirongolddev/burnline/internal/cli"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// colorForPct returns green/yellow/orange/red based on utilization level.
func colorForPct(pct float64) lipgloss.Color {
	switch {
	case pct >= 0.9:
		return cli.ColorRed
	case pct >= 0.7:
		return cli.ColorOrange
	case pct >= 0.5:
		return cli.ColorYellow
	default:
		return cli.ColorGreen
	}
}

// gauge renders a labeled bar for a 0-100 percentage with a trailing note.
func gauge(label string, pct float64, note string, labelW, barWidth int) string {
	frac := min(max(pct/100, 0), 1)
	color := colorForPct(frac)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(cli.ColorTextDim)

	labelStyle := lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	noteStyle := lipgloss.NewStyle().Foreground(cli.ColorTextDim)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + " " +
		bar.ViewAs(frac) + " " +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", frac*100)) + "  " +
		noteStyle.Render(note)
}
