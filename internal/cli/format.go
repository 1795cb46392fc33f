// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/burnline/internal/model"
)

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatCost formats a USD cost. Sub-cent amounts render as "<$0.01".
func FormatCost(cost float64) string {
	if cost < 0.01 {
		return "<$0.01"
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatTokenBreakdown renders e.g. "1.2Kin + 300out + 4.5Mcached", where
// cached is cache creation plus cache reads. Empty categories are left out.
func FormatTokenBreakdown(b model.TokenBreakdown) string {
	var parts []string
	if b.Input > 0 {
		parts = append(parts, FormatTokens(b.Input)+"in")
	}
	if b.Output > 0 {
		parts = append(parts, FormatTokens(b.Output)+"out")
	}
	if cached := b.CacheCreation + b.CacheRead; cached > 0 {
		parts = append(parts, FormatTokens(cached)+"cached")
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " + ")
}

// FormatDuration formats seconds compactly.
// e.g., 45 -> "45s", 125 -> "2m", 5400 -> "1.5h", 172800 -> "2.0d"
func FormatDuration(secs float64) string {
	switch {
	case secs < 60:
		return fmt.Sprintf("%.0fs", math.Max(secs, 0))
	case secs < 3600:
		return fmt.Sprintf("%.0fm", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%.1fh", secs/3600)
	default:
		return fmt.Sprintf("%.1fd", secs/86400)
	}
}

// FormatLatency formats an average response time.
func FormatLatency(secs float64) string {
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	return fmt.Sprintf("%.1fm", secs/60)
}

// FormatRate formats a USD per hour burn rate. Under a dollar it is shown
// in cents.
func FormatRate(perHour float64) string {
	if perHour < 1 {
		return fmt.Sprintf("%.0f¢/h", perHour*100)
	}
	return fmt.Sprintf("$%.2f/h", perHour)
}

// FormatTokenRate formats a tokens per hour burn rate.
func FormatTokenRate(perHour float64) string {
	return FormatTokens(int64(math.Round(perHour))) + "/h"
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a whole percentage.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatBudget renders a budget suffix such as " +62%" or " !85%", or ""
// when no budget applies.
func FormatBudget(b model.BudgetStatus) string {
	pct, ok := b.Percentage.Get()
	if !ok {
		return ""
	}
	return " " + b.Indicator + FormatPercent(pct)
}
