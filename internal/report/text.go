package report

import (
	"fmt"
	"io"
	"strings"

	"schemasync/internal/domain"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// FormatText writes a human-readable difference report to w, grouped by
// object. If noColor is true, ANSI codes are suppressed.
func FormatText(w io.Writer, r *Report, noColor bool) {
	c := func(code string) string {
		if noColor {
			return ""
		}
		return code
	}

	t := r.Table
	fmt.Fprintf(w, "%s%s%s across %d sources: %s\n",
		c(colorDim), r.Title(), c(colorReset), len(t.Sources), strings.Join(t.Sources, ", "))
	for _, src := range t.Sources {
		if st, ok := r.Stats[src]; ok {
			fmt.Fprintf(w, "  %s%s%s: %d tables, %d columns, %d data types\n",
				c(colorDim), src, c(colorReset), st.Tables, st.Columns, st.DataTypes)
		}
	}

	if !t.HasDifferences() {
		fmt.Fprintf(w, "\n%sNo differences.%s All sources are identical.\n", c(colorGreen), c(colorReset))
		return
	}

	// Records are sorted by object, so groups are contiguous.
	current := "\x00"
	for _, rec := range t.Records {
		if rec.ObjectID != current {
			current = rec.ObjectID
			fmt.Fprintf(w, "\n%s# %s%s\n", c(colorCyan), rec.ObjectID, c(colorReset))
		}

		subject := rec.SubObjectID
		if subject == "" {
			subject = rec.ObjectID
		}
		if domain.IsMissingType(rec.Type) {
			fmt.Fprintf(w, "  %s-%s %s: %s\n", c(colorRed), c(colorReset), subject, rec.Type)
		} else {
			fmt.Fprintf(w, "  %s~%s %s: %s\n", c(colorYellow), c(colorReset), subject, rec.Type)
		}
		for _, src := range t.Sources {
			v, ok := rec.Values[src]
			if !ok {
				v = domain.StatusNotApplicable
			}
			fmt.Fprintf(w, "      %s%s%s: %s\n", c(colorDim), src, c(colorReset), v)
		}
	}

	s := Summarize(t)
	fmt.Fprintf(w, "\n%sSummary:%s %d difference(s), %d missing, %d value.",
		c(colorDim), c(colorReset), s.Total, s.Missing, s.Values)
	if n := r.Diagnostics.Count(domain.SeverityError) + r.Diagnostics.Count(domain.SeverityWarning); n > 0 {
		fmt.Fprintf(w, " %s%d warning(s).%s", c(colorYellow), n, c(colorReset))
	}
	fmt.Fprintln(w)
	for _, tc := range s.SortedTypes() {
		fmt.Fprintf(w, "  %-28s %d\n", tc.Type, tc.Count)
	}
}

// FormatDiagnostics writes warning and error diagnostics to w, one per line.
func FormatDiagnostics(w io.Writer, diags domain.Diagnostics, noColor bool) {
	for _, d := range diags {
		code, reset := colorYellow, colorReset
		switch d.Severity {
		case domain.SeverityError:
			code = colorRed
		case domain.SeverityWarning:
		default:
			continue
		}
		if noColor {
			code, reset = "", ""
		}

		where := d.Source
		if d.Object != "" {
			where = strings.TrimSpace(where + " " + d.Object)
		}
		if where != "" {
			where += ": "
		}
		fmt.Fprintf(w, "%s%s%s %s%s\n", code, d.Severity, reset, where, d.Message)
	}
}
