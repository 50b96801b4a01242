package output

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/renderlens/internal/finding"
)

func TestMain(m *testing.M) {
	// Styles carry no escape codes in tests so assertions see plain text.
	SetNoColor(true)
	m.Run()
}

func TestTable_Render(t *testing.T) {
	tbl := NewTable("TYPE", "SEVERITY", "IMPACT")
	tbl.AddRow("layout-thrashing", "high", "68")
	tbl.AddRow("long-task", "warning", "44")

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule, and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "TYPE") || !strings.Contains(lines[0], "IMPACT") {
		t.Errorf("header missing columns: %q", lines[0])
	}
	if !strings.Contains(lines[2], "layout-thrashing") {
		t.Errorf("first row wrong: %q", lines[2])
	}

	// Columns align: severity starts at the same offset in both rows.
	sevCol := strings.Index(lines[2], "high")
	if sevCol < 0 || !strings.HasPrefix(lines[3][sevCol:], "warning") {
		t.Errorf("columns misaligned:\n%s", out)
	}
}

func TestTable_ShortRowsPad(t *testing.T) {
	tbl := NewTable("A", "B")
	tbl.AddRow("only-a")
	out := tbl.Render()
	if !strings.Contains(out, "only-a") {
		t.Errorf("short row lost: %q", out)
	}
}

func TestImpactBar_Bounds(t *testing.T) {
	for _, score := range []float64{-5, 0, 50, 100, 150} {
		bar := ImpactBar(score, 10)
		filled := strings.Count(bar, "█")
		if filled < 0 || filled > 10 {
			t.Errorf("score %.0f: bar out of bounds (%d filled): %q", score, filled, bar)
		}
	}
	if !strings.Contains(ImpactBar(80, 10), "80/100") {
		t.Error("bar must include the numeric score")
	}
}

func TestSeverityBadge_Uppercases(t *testing.T) {
	if got := SeverityBadge(finding.SeverityCritical); got != "CRITICAL" {
		t.Errorf("expected CRITICAL, got %q", got)
	}
	if got := SeverityBadge(finding.SeverityInfo); got != "INFO" {
		t.Errorf("expected INFO, got %q", got)
	}
}

func TestTrendArrow(t *testing.T) {
	if got := TrendArrow(0, true); got != "─" {
		t.Errorf("zero delta renders a dash, got %q", got)
	}
	if got := TrendArrow(3.5, true); !strings.Contains(got, "▲ +3.5") {
		t.Errorf("positive delta wrong: %q", got)
	}
	if got := TrendArrow(-2.1, false); !strings.Contains(got, "▼ -2.1") {
		t.Errorf("negative delta wrong: %q", got)
	}
}

func TestSection(t *testing.T) {
	s := Section("Findings")
	if !strings.Contains(s, "Findings") || !strings.Contains(s, "─") {
		t.Errorf("section missing title or rule: %q", s)
	}
}
