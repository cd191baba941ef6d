package compare

import (
	"fmt"

	"schemasync/internal/domain"
	"schemasync/internal/formula"
)

// EventResult is the outcome of CompareEvents. Table is nil only when the
// comparison could not run.
type EventResult struct {
	Table       *domain.DifferenceTable
	Sources     map[string]domain.EventFrames // normalized frames for reporting
	Diagnostics domain.Diagnostics
}

// ProcessFormulas returns a copy of an upper-cased event frame where FORMULA
// is replaced by CALLS_LIST (sorted distinct subroutine names joined with
// ", ") and CALLS_COUNT. Frames without FORMULA are returned unchanged.
func ProcessFormulas(f *domain.Frame) *domain.Frame {
	idx := f.Index(domain.ColFormula)
	if idx < 0 {
		return f
	}

	out := &domain.Frame{Rows: make([][]any, len(f.Rows))}
	for i, c := range f.Columns {
		if i != idx {
			out.Columns = append(out.Columns, c)
		}
	}
	out.Columns = append(out.Columns, domain.ColCallsList, domain.ColCallsCount)

	for r, row := range f.Rows {
		calls := formula.ExtractValue(cell(row, idx))
		nr := make([]any, 0, len(out.Columns))
		for i, v := range row {
			if i != idx {
				nr = append(nr, v)
			}
		}
		out.Rows[r] = append(nr, formula.Join(calls), len(calls))
	}
	return out
}

// NormalizeEventFrame upper-cases column names, derives CALLS_LIST from
// FORMULA, and checks the record set's key columns are present.
func NormalizeEventFrame(source string, f *domain.Frame, spec domain.KeyedSpec) (*domain.Frame, error) {
	if f == nil {
		return nil, domain.ErrSourceUnavailable(source, "%s could not be collected", spec.RecordSet)
	}
	n := ProcessFormulas(upperColumns(f))
	if missing := n.Missing(spec.Keys...); len(missing) > 0 {
		return nil, domain.ErrValidation("%s of %s missing key columns %v", spec.RecordSet, source, missing)
	}
	return n, nil
}

// CompareEvents compares every event record set across sources. A source
// whose record set failed or is malformed is left out of that record set's
// comparison only, so its column shows N/A in those records rather than
// MISSING with an Entry Missing record for every key. A source is usable
// when at least one of its record sets is; fewer than two usable sources is
// an InsufficientSourcesError.
func CompareEvents(inputs map[string]domain.EventFrames) (*EventResult, error) {
	res := &EventResult{Sources: make(map[string]domain.EventFrames)}

	perSpec := make(map[string][]*domain.KeyedSet, len(domain.EventSpecs))
	var excluded []string
	for _, name := range sortedNames(inputs) {
		frames := inputs[name]
		if len(frames) == 0 {
			res.Diagnostics.AddErr(domain.SeverityWarning, name, domain.ErrSourceUnavailable(name, "no event data collected"))
			excluded = append(excluded, name)
			continue
		}

		normalized := make(domain.EventFrames, len(domain.EventSpecs))
		for _, spec := range domain.EventSpecs {
			f, err := NormalizeEventFrame(name, frames[spec.RecordSet], spec)
			if err != nil {
				res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
					Severity: domain.SeverityWarning,
					Source:   name,
					Object:   spec.RecordSet,
					Message:  err.Error(),
					Err:      err,
				})
				continue
			}
			normalized[spec.RecordSet] = f
			set, diags := BuildKeyedSet(name, f, spec)
			res.Diagnostics = append(res.Diagnostics, diags...)
			perSpec[spec.RecordSet] = append(perSpec[spec.RecordSet], set)
		}

		if len(normalized) == 0 {
			excluded = append(excluded, name)
			continue
		}
		res.Sources[name] = normalized
	}

	if len(res.Sources) < 2 {
		return res, &domain.InsufficientSourcesError{Usable: len(res.Sources), Excluded: excluded}
	}

	table := domain.NewDifferenceTable(domain.EventColumns, sortedNames(res.Sources))
	for _, spec := range domain.EventSpecs {
		sets := perSpec[spec.RecordSet]
		if len(sets) < 2 {
			res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
				Severity: domain.SeverityWarning,
				Object:   spec.RecordSet,
				Message:  fmt.Sprintf("skipped: %d usable source(s), at least 2 required", len(sets)),
			})
			continue
		}
		records, diags := CompareKeyed(spec, sets)
		for i := range records {
			fillNotApplicable(records[i].Values, table.Sources)
		}
		table.Add(records...)
		res.Diagnostics = append(res.Diagnostics, diags...)
	}
	table.Sort()

	res.Table = table
	return res, nil
}
