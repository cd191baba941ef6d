package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"schemasync/internal/domain"
)

// FormatJSON writes the report as JSON to w. Debug diagnostics are omitted.
func FormatJSON(w io.Writer, r *Report) error {
	type jsonReport struct {
		Kind        Kind                      `json:"kind"`
		RunID       string                    `json:"run_id,omitempty"`
		GeneratedAt time.Time                 `json:"generated_at"`
		Sources     []string                  `json:"sources"`
		Columns     []string                  `json:"columns"`
		Differences []domain.DifferenceRecord `json:"differences"`
		Summary     Summary                   `json:"summary"`
		Stats       map[string]domain.Stats   `json:"stats,omitempty"`
		Diagnostics []domain.Diagnostic       `json:"diagnostics,omitempty"`
	}

	jr := jsonReport{
		Kind:        r.Kind,
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Sources:     r.Table.Sources,
		Columns:     r.Table.Header(),
		Differences: r.Table.Records,
		Summary:     Summarize(r.Table),
		Stats:       r.Stats,
	}
	for _, d := range r.Diagnostics {
		if d.Severity != domain.SeverityDebug {
			jr.Diagnostics = append(jr.Diagnostics, d)
		}
	}

	data, err := json.MarshalIndent(jr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}
