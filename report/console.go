package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/oraichain/duckdb-http/metrics"
	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/verify"
)

// -----------------------------
// Console Rendering
// -----------------------------

// RenderResultSet writes a result set as an aligned text table: column
// names, declared types when known, the rows, and a row-count footer.
// It consumes the result set's cursor.
func RenderResultSet(w io.Writer, rs *core.ResultSet) error {
	if len(rs.Columns) == 0 {
		_, err := fmt.Fprintln(w, "(no columns)")
		return err
	}

	names := rs.ColumnNames()
	types := make([]string, len(rs.Columns))
	hasTypes := false
	for i, col := range rs.Columns {
		types[i] = col.DatabaseType
		if col.DatabaseType != "" {
			hasTypes = true
		}
	}

	rows := rs.FetchAll()
	cells := make([][]string, len(rows))
	widths := make([]int, len(names))
	for i, name := range names {
		widths[i] = len(name)
		if len(types[i]) > widths[i] {
			widths[i] = len(types[i])
		}
	}
	for r, row := range rows {
		cells[r] = make([]string, len(names))
		for c := range names {
			var v any
			if c < len(row) {
				v = row[c]
			}
			cells[r][c] = formatCell(v)
			if len(cells[r][c]) > widths[c] {
				widths[c] = len(cells[r][c])
			}
		}
	}

	if err := writeRow(w, names, widths); err != nil {
		return err
	}
	if hasTypes {
		if err := writeRow(w, types, widths); err != nil {
			return err
		}
	}
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	if err := writeRow(w, rule, widths); err != nil {
		return err
	}
	for _, row := range cells {
		if err := writeRow(w, row, widths); err != nil {
			return err
		}
	}

	unit := "rows"
	if len(rows) == 1 {
		unit = "row"
	}
	_, err := fmt.Fprintf(w, "(%d %s)\n", len(rows), unit)
	return err
}

func writeRow(w io.Writer, cells []string, widths []int) error {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = pad(cell, widths[i])
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	return err
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// RenderHealthText writes a health report as console text, one line per
// check plus an overall verdict.
func RenderHealthText(w io.Writer, run metrics.HealthReport) error {
	if _, err := fmt.Fprintf(w, "Endpoint: %s\n", run.Metadata.Endpoint); err != nil {
		return err
	}
	if run.Metadata.ServerVersion != "" {
		if _, err := fmt.Fprintf(w, "Server:   %s\n", run.Metadata.ServerVersion); err != nil {
			return err
		}
	}

	nameWidth := 0
	for _, c := range run.Checks {
		if len(c.Name) > nameWidth {
			nameWidth = len(c.Name)
		}
	}
	for _, c := range run.Checks {
		status := "PASS"
		detail := c.Detail
		if !c.Passed {
			status = "FAIL"
			detail = c.Error
		}
		if _, err := fmt.Fprintf(w, "  %s  %s  %s (%v)\n",
			pad(c.Name, nameWidth), status, detail, c.Duration.Round(time.Millisecond)); err != nil {
			return err
		}
	}

	verdict := "HEALTHY"
	if !run.Healthy {
		verdict = "UNHEALTHY"
	}
	_, err := fmt.Fprintf(w, "Overall: %s\n", verdict)
	return err
}

// RenderVerifyText writes a verification report as console text: the row
// counts, the difference tallies and a verdict.
func RenderVerifyText(w io.Writer, rep *verify.Report) error {
	if _, err := fmt.Fprintf(w, "Source rows: %d\nTarget rows: %d\n",
		rep.SourceRows, rep.TargetRows); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Missing: %d  Extra: %d  Mismatched: %d\n",
		rep.Missing, rep.Extra, rep.Mismatched); err != nil {
		return err
	}

	names := make([]string, 0, len(rep.MismatchedColumns))
	for name := range rep.MismatchedColumns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %s: %d rows differ\n",
			name, rep.MismatchedColumns[name]); err != nil {
			return err
		}
	}

	verdict := "MATCH"
	if !rep.Clean() {
		verdict = "DIFFER"
	}
	_, err := fmt.Fprintf(w, "Overall: %s (%v)\n",
		verdict, rep.Duration.Round(time.Millisecond))
	return err
}

// RenderSessionStats writes session statistics as console text.
func RenderSessionStats(w io.Writer, stats metrics.SessionStats) error {
	_, err := fmt.Fprintf(w,
		"queries: %d (%d failed)  rows: %d  bytes: %d  latency min/mean/max: %v/%v/%v\n",
		stats.Queries, stats.Failures, stats.Rows, stats.BytesIn,
		stats.MinLatency.Round(time.Microsecond),
		stats.MeanLatency().Round(time.Microsecond),
		stats.MaxLatency.Round(time.Microsecond))
	return err
}
