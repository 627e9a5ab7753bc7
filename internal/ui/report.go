package ui

import (
	"fmt"
	"io"
	"strconv"

	"bootbench/internal/benchmark"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Printer writes human-readable benchmark output.
type Printer struct {
	w io.Writer
	s styles
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	return &Printer{w: w, s: newStyles(newRenderer(w, noColor), noColor)}
}

func secs(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func (p *Printer) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.s.border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.s.header
			}
			return p.s.cell
		})
}

// Summary prints the per-round samples and the summary of each condition.
func (p *Printer) Summary(run *benchmark.Run) {
	fmt.Fprintln(p.w, p.s.title.Render(fmt.Sprintf("Boot time on %s (%d rounds)", run.Device, run.Rounds)))
	if run.Build != "" {
		fmt.Fprintln(p.w, p.s.muted.Render(run.Build))
	}

	rounds := p.newTable("ROUND", "WITH COMPOS (S)", "WITHOUT COMPOS (S)")
	for i := 0; i < run.Rounds && i < len(run.WithCompOS) && i < len(run.WithoutCompOS); i++ {
		rounds.Row(strconv.Itoa(i+1), secs(run.WithCompOS[i]), secs(run.WithoutCompOS[i]))
	}
	fmt.Fprintln(p.w, rounds.String())

	summary := p.newTable("CONDITION", "AVERAGE", "MIN", "MAX", "STDEV")
	for _, c := range benchmark.Conditions {
		s, ok := run.Summaries[c]
		if !ok {
			continue
		}
		summary.Row(string(c), secs(s.Average), secs(s.Min), secs(s.Max), secs(s.StdDev))
	}
	fmt.Fprintln(p.w, summary.String())
}

// Comparison prints how the averages moved relative to a previous run.
// It returns true if any condition regressed by more than threshold percent.
func (p *Printer) Comparison(comparisons []benchmark.Comparison, threshold float64) bool {
	if len(comparisons) == 0 {
		fmt.Fprintln(p.w, p.s.muted.Render("No previous run to compare against."))
		return false
	}

	regressed := false
	t := p.newTable("CONDITION", "PREVIOUS", "CURRENT", "DIFF %", "STATUS")
	for _, c := range comparisons {
		status := "PASS"
		switch {
		case c.Regressed(threshold):
			status = p.s.bad.Render("FAIL")
			regressed = true
		case c.Improved(threshold):
			status = p.s.good.Render("IMPR")
		}
		t.Row(string(c.Condition), secs(c.Prev.Average), secs(c.Curr.Average), fmt.Sprintf("%+.2f%%", c.AverageDiff), status)
	}
	fmt.Fprintln(p.w, t.String())
	return regressed
}

// History prints one line per stored run.
func (p *Printer) History(runs []benchmark.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.w, p.s.muted.Render("No runs recorded."))
		return
	}
	t := p.newTable("ID", "TIME", "DEVICE", "ROUNDS", "WITH COMPOS AVG", "WITHOUT COMPOS AVG")
	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		t.Row(
			id,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Device,
			strconv.Itoa(r.Rounds),
			secs(r.Summaries[benchmark.CompOS].Average),
			secs(r.Summaries[benchmark.Baseline].Average),
		)
	}
	fmt.Fprintln(p.w, t.String())
}

// Error prints a styled error line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, p.s.errText.Render(fmt.Sprintf(format, args...)))
}

// Success prints a styled success line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.s.good.Render(fmt.Sprintf(format, args...)))
}

// Info prints a muted line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, p.s.muted.Render(fmt.Sprintf(format, args...)))
}
