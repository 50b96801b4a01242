package output

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/renderlens/internal/finding"
)

// ImpactBar renders a visual bar for a 0-100 impact score. High impact is
// bad, so the bar reddens as the score climbs.
// Example: "████████░░ 80/100"
func ImpactBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((score / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case score >= 60:
		style = func(s string) string { return StyleError.Render(s) }
	case score >= 35:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleSuccess.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// SeverityBadge returns a styled severity label.
func SeverityBadge(s finding.Severity) string {
	label := strings.ToUpper(string(s))
	switch s {
	case finding.SeverityCritical:
		return StyleError.Render(label)
	case finding.SeverityHigh:
		return StyleError.Render(label)
	case finding.SeverityWarning:
		return StyleWarning.Render(label)
	default:
		return StyleMuted.Render(label)
	}
}

// ConfidenceTag returns a styled confidence label.
func ConfidenceTag(c finding.Confidence) string {
	switch c {
	case finding.ConfidenceHigh:
		return StyleBold.Render("high")
	case finding.ConfidenceMedium:
		return "medium"
	default:
		return StyleMuted.Render("low")
	}
}

// FpsValue styles an average-fps reading against its target.
func FpsValue(avgFps float64, targetFps int) string {
	text := fmt.Sprintf("%.1f", avgFps)
	target := float64(targetFps)
	switch {
	case avgFps >= target*0.95:
		return StyleSuccess.Render(text)
	case avgFps >= target*0.75:
		return StyleWarning.Render(text)
	default:
		return StyleError.Render(text)
	}
}

// TrendArrow returns a styled trend indicator for a delta value.
// Positive delta shows an up arrow, negative shows down, zero shows a dash.
// The higherIsBetter parameter sets which direction counts as improvement.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := (isPositive && higherIsBetter) || (!isPositive && !higherIsBetter)

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.1f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.1f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// TrendArrowPercent returns a styled trend indicator for a percentage delta.
func TrendArrowPercent(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := (isPositive && higherIsBetter) || (!isPositive && !higherIsBetter)

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.0f%%", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.0f%%", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
