package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"musage/internal/scan"
)

// RenderTable is the default console rendering: ranked counts plus a
// one-line footer with the scan totals, and the failed files spelled
// out so a lenient run cannot quietly under-report.
func RenderTable(summary *scan.Summary) string {
	var b strings.Builder

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"NAME", "COUNT"})
	for _, row := range summary.Tally.Rank() {
		tbl.AppendRow(table.Row{row.Name, row.Count})
	}
	tbl.AppendFooter(table.Row{"total", summary.Tally.Total()})

	b.WriteString(tbl.Render())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("module %s: %d files scanned, %d failed, %d hits in %v\n",
		summary.Module, summary.Files, len(summary.Failures),
		summary.Tally.Total(), summary.Duration.Round(time.Millisecond)))

	for _, failure := range summary.Failures {
		b.WriteString(fmt.Sprintf("  failed: %s: %s\n", failure.Path, failure.Reason))
	}

	return b.String()
}
