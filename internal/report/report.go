// Package report renders analysis results and comparisons for the terminal
// and as machine-readable JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/renderlens/internal/analyzer"
	"github.com/blackwell-systems/renderlens/internal/compare"
	"github.com/blackwell-systems/renderlens/internal/finding"
	"github.com/blackwell-systems/renderlens/internal/output"
	"github.com/blackwell-systems/renderlens/internal/store"
)

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Terminal writes a styled report for one analysis result.
func Terminal(w io.Writer, res *analyzer.Result) {
	s := res.Summary

	fmt.Fprintln(w, output.Section("Trace"))
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Name"), output.StyleBold.Render(s.Name))
	if s.URL != "" {
		fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("URL"), s.URL)
	}
	fmt.Fprintf(w, " %s %.0fms via %s\n", output.StyleLabel.Render("Duration"), s.DurationMs, s.Meta.AdapterType)

	fmt.Fprintln(w, output.Section("Frame metrics"))
	m := s.FrameMetrics
	fmt.Fprintf(w, " %s %s (target %d)\n", output.StyleLabel.Render("Average FPS"), output.FpsValue(m.AvgFps, s.Meta.TargetFps), s.Meta.TargetFps)
	fmt.Fprintf(w, " %s %d of %d\n", output.StyleLabel.Render("Dropped frames"), m.DroppedFrames, m.TotalFrames)
	fmt.Fprintf(w, " %s %.2fms (budget %.2fms)\n", output.StyleLabel.Render("P95 frame time"), m.P95FrameTimeMs, m.FrameBudgetMs)
	fmt.Fprintf(w, " %s %.2fms\n", output.StyleLabel.Render("Max frame time"), m.MaxFrameTimeMs)

	if p := s.Phases; p.StyleMs+p.LayoutMs+p.PaintMs+p.CompositeMs+p.GPUMs > 0 {
		fmt.Fprintln(w, output.Section("Pipeline phases"))
		tbl := output.NewTable("PHASE", "TIME")
		tbl.AddRow("style", fmt.Sprintf("%.2fms", p.StyleMs))
		tbl.AddRow("layout", fmt.Sprintf("%.2fms", p.LayoutMs))
		tbl.AddRow("paint", fmt.Sprintf("%.2fms", p.PaintMs))
		tbl.AddRow("composite", fmt.Sprintf("%.2fms", p.CompositeMs))
		tbl.AddRow("gpu", fmt.Sprintf("%.2fms", p.GPUMs))
		writeIndented(w, tbl.Render())
	}

	fmt.Fprintln(w, output.Section(fmt.Sprintf("Findings (%d)", len(res.Detections))))
	if len(res.Detections) == 0 {
		fmt.Fprintf(w, " %s\n", output.StyleSuccess.Render("No issues detected."))
	}
	for i, d := range res.Detections {
		writeDetection(w, i+1, d)
	}

	for _, warn := range res.Warnings {
		fmt.Fprintln(w, output.Section("Warning"))
		fmt.Fprintf(w, " %s %s\n", output.StyleWarning.Render(warn.Code), warn.Message)
		for _, sug := range warn.Suggestions {
			fmt.Fprintf(w, "   %s %s\n", output.StyleMuted.Render("•"), sug)
		}
	}
	fmt.Fprintln(w)
}

func writeDetection(w io.Writer, n int, d finding.Detection) {
	fmt.Fprintf(w, "\n %d. %s %s %s\n", n,
		output.SeverityBadge(d.Severity),
		output.StyleBold.Render(string(d.Type)),
		output.StyleMuted.Render(fmt.Sprintf("(confidence: %s)", d.Metrics.Confidence)))
	fmt.Fprintf(w, "    %s\n", d.Description)
	fmt.Fprintf(w, "    %s\n", output.ImpactBar(d.Metrics.ImpactScore, 20))

	if loc := formatLocation(d.Location); loc != "" {
		fmt.Fprintf(w, "    %s %s\n", output.StyleLabel.Render("Where"), loc)
	}
	fmt.Fprintf(w, "    %s %.1fms over %d occurrence(s), %.0f%% of frame budget\n",
		output.StyleLabel.Render("Cost"), d.Metrics.DurationMs, d.Metrics.Occurrences, d.Metrics.FrameBudgetImpact)
	if d.Metrics.EstimatedSpeedupPct > 0 {
		fmt.Fprintf(w, "    %s ~%.0f%% (%s)\n",
			output.StyleLabel.Render("Est. speedup"), d.Metrics.EstimatedSpeedupPct, d.Metrics.SpeedupExplanation)
	}
	fmt.Fprintf(w, "    %s %d/10\n", output.StyleLabel.Render("Fix priority"), d.Metrics.Risk.FixPriority)
}

func formatLocation(l finding.Location) string {
	switch {
	case l.File != "" && l.Line > 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	case l.File != "":
		return l.File
	case l.Selector != "":
		return l.Selector
	case l.Element != "":
		return l.Element
	default:
		return ""
	}
}

// Comparison writes a styled comparison report.
func Comparison(w io.Writer, rep compare.Report) {
	fmt.Fprintln(w, output.Section("Comparison"))
	fmt.Fprintf(w, " %s %s -> %s\n", output.StyleLabel.Render("Runs"), rep.BaselineID, rep.CandidateID)

	verdict := string(rep.Verdict)
	switch rep.Verdict {
	case compare.DirectionRegressed:
		verdict = output.StyleError.Render(verdict)
	case compare.DirectionImproved:
		verdict = output.StyleSuccess.Render(verdict)
	default:
		verdict = output.StyleMuted.Render(verdict)
	}
	fmt.Fprintf(w, " %s %s\n", output.StyleLabel.Render("Verdict"), verdict)

	tbl := output.NewTable("METRIC", "BEFORE", "AFTER", "TREND")
	for _, m := range rep.Metrics {
		tbl.AddRow(m.Name,
			fmt.Sprintf("%.2f", m.Before),
			fmt.Sprintf("%.2f", m.After),
			output.TrendArrowPercent(m.DeltaPct, m.HigherIsBetter))
	}
	fmt.Fprintln(w)
	writeIndented(w, tbl.Render())

	if len(rep.Detections) > 0 {
		tbl := output.NewTable("ISSUE TYPE", "BEFORE", "AFTER", "DIRECTION")
		for _, d := range rep.Detections {
			tbl.AddRow(string(d.Type),
				fmt.Sprintf("%d (%.1f)", d.BeforeCount, d.BeforeScore),
				fmt.Sprintf("%d (%.1f)", d.AfterCount, d.AfterScore),
				string(d.Direction))
		}
		fmt.Fprintln(w)
		writeIndented(w, tbl.Render())
	}
	fmt.Fprintln(w)
}

// RunList writes the persisted-run listing.
func RunList(w io.Writer, runs []store.Run) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Saved runs (%d)", len(runs))))
	if len(runs) == 0 {
		fmt.Fprintf(w, " %s\n", output.StyleMuted.Render("No runs saved yet."))
		return
	}
	tbl := output.NewTable("ID", "NAME", "ADAPTER", "FPS", "DROPPED", "SAVED")
	for _, r := range runs {
		tbl.AddRow(
			fmt.Sprintf("%d", r.ID),
			r.Name,
			r.AdapterType,
			fmt.Sprintf("%.1f", r.AvgFps),
			fmt.Sprintf("%d/%d", r.DroppedFrames, r.TotalFrames),
			r.SavedAt.Format("2006-01-02 15:04"),
		)
	}
	fmt.Fprintln(w)
	writeIndented(w, tbl.Render())
}

func writeIndented(w io.Writer, s string) {
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		fmt.Fprintf(w, " %s\n", line)
	}
}
