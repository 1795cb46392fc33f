package cli

import (
	"strings"

	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/engine"
	"github.com/theirongolddev/burnline/internal/model"

	"github.com/charmbracelet/lipgloss"
)

const defaultSeparator = " │ "

var (
	segmentStyles = map[string]lipgloss.Style{
		config.SegmentModel:   lipgloss.NewStyle().Foreground(ColorPurple).Bold(true),
		config.SegmentSession: lipgloss.NewStyle().Foreground(ColorGreen),
		config.SegmentToday:   lipgloss.NewStyle().Foreground(ColorBlue),
		config.SegmentContext: lipgloss.NewStyle().Foreground(ColorAccent),
		config.SegmentBurn:    lipgloss.NewStyle().Foreground(ColorOrange),
		config.SegmentMetrics: lipgloss.NewStyle().Foreground(ColorYellow),
	}

	overBudgetStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
)

// RenderStatusLine joins the configured segments in order. Segments whose
// data is absent are left out; unknown segment names are ignored.
func RenderStatusLine(rep engine.Report, modelName string, d config.DisplayConfig) string {
	sep := d.Separator
	if sep == "" {
		sep = defaultSeparator
	}

	var parts []string
	for _, name := range d.Segments {
		text, ok := SegmentText(name, rep, modelName, d.SessionType)
		if !ok {
			continue
		}
		style, known := segmentStyles[name]
		if !known {
			continue
		}
		if warned(name, rep) {
			style = overBudgetStyle
		}
		parts = append(parts, style.Render(text))
	}
	return strings.Join(parts, dimStyle.Render(sep))
}

// SegmentText returns the plain text of one segment, and false when the
// segment has nothing to show.
func SegmentText(name string, rep engine.Report, modelName, sessionType string) (string, bool) {
	switch name {
	case config.SegmentModel:
		if modelName == "" {
			modelName = rep.ModelID
		}
		if modelName == "" {
			modelName = "Claude"
		}
		return "⚡ " + modelName, true

	case config.SegmentSession:
		text, ok := usageText(rep.Session, sessionType)
		if !ok {
			return "", false
		}
		return "Session " + text + FormatBudget(rep.SessionBudget), true

	case config.SegmentToday:
		today, ok := rep.Today.Get()
		if !ok {
			return "", false
		}
		return "Today " + FormatCost(today.Cost) + FormatBudget(rep.DailyBudget), true

	case config.SegmentContext:
		c, ok := rep.Context.Get()
		if !ok {
			return "", false
		}
		return "◔ " + FormatNumber(c.ConsumedTokens) + " (" + FormatPercent(float64(c.PercentageRemaining)) + ")", true

	case config.SegmentBurn:
		var parts []string
		if v, ok := rep.BurnRate.CostPerHour.Get(); ok {
			parts = append(parts, FormatRate(v))
		}
		if v, ok := rep.BurnRate.TokensPerHour.Get(); ok {
			parts = append(parts, FormatTokenRate(v))
		}
		if len(parts) == 0 {
			return "", false
		}
		return "🔥 " + strings.Join(parts, " "), true

	case config.SegmentMetrics:
		var parts []string
		if v, ok := rep.Metrics.ResponseTime.Get(); ok {
			parts = append(parts, "⧖ "+FormatLatency(v))
		}
		if v, ok := rep.Metrics.SessionDuration.Get(); ok {
			parts = append(parts, "⏱ "+FormatDuration(v))
		}
		if v, ok := rep.Metrics.MessageCount.Get(); ok {
			parts = append(parts, "✉ "+FormatNumber(int64(v)))
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

func usageText(s model.UsageSnapshot, sessionType string) (string, bool) {
	cost, hasCost := s.Cost.Get()
	tokens, hasTokens := s.Tokens.Get()

	switch sessionType {
	case "tokens":
		if !hasTokens {
			return "", false
		}
		return FormatTokens(tokens) + " tokens", true
	case "both":
		if !hasCost {
			return "", false
		}
		if !hasTokens {
			return FormatCost(cost), true
		}
		return FormatCost(cost) + " (" + FormatTokens(tokens) + " tokens)", true
	case "breakdown":
		b, ok := s.Breakdown.Get()
		if !ok {
			return "", false
		}
		return FormatTokenBreakdown(b), true
	default:
		if !hasCost {
			return "", false
		}
		return FormatCost(cost), true
	}
}

func warned(segment string, rep engine.Report) bool {
	switch segment {
	case config.SegmentSession:
		return rep.SessionBudget.Warning
	case config.SegmentToday:
		return rep.DailyBudget.Warning
	}
	return false
}
