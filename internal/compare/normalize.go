// Package compare implements the N-way structural comparison engine.
//
// Everything here is synchronous and side-effect free: inputs are fully
// materialized frames, outputs are a DifferenceTable plus diagnostics. The
// same inputs always produce the same table, independent of map order.
package compare

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"schemasync/internal/domain"
)

// requiredSchemaColumns identify objects and sub-objects in a schema frame.
var requiredSchemaColumns = []string{domain.ColTableName, domain.ColColumnName}

// upperColumns returns a copy of f with every column name upper-cased.
func upperColumns(f *domain.Frame) *domain.Frame {
	out := f.Clone()
	for i, c := range out.Columns {
		out.Columns[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	return out
}

// sortedNames returns the keys of m in ascending order.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NormalizeSchemas converts raw schema frames into typed, normalized sources.
// Nil, empty, and invalid frames are dropped with a diagnostic. When fewer
// than two sources survive it returns an InsufficientSourcesError.
func NormalizeSchemas(inputs map[string]*domain.Frame, filter TableFilter) ([]*domain.SchemaSource, domain.Diagnostics, error) {
	var (
		diags    domain.Diagnostics
		sources  []*domain.SchemaSource
		excluded []string
	)

	for _, name := range sortedNames(inputs) {
		src, err := normalizeSchema(name, inputs[name], filter, &diags)
		if err != nil {
			diags.AddErr(domain.SeverityWarning, name, err)
			excluded = append(excluded, name)
			continue
		}
		sources = append(sources, src)
	}

	if len(sources) < 2 {
		return nil, diags, &domain.InsufficientSourcesError{Usable: len(sources), Excluded: excluded}
	}
	return sources, diags, nil
}

func normalizeSchema(name string, raw *domain.Frame, filter TableFilter, diags *domain.Diagnostics) (*domain.SchemaSource, error) {
	if raw == nil {
		return nil, domain.ErrSourceUnavailable(name, "no data collected")
	}
	if raw.Empty() {
		return nil, domain.ErrSourceUnavailable(name, "schema is empty")
	}

	f := upperColumns(raw)
	if missing := f.Missing(requiredSchemaColumns...); len(missing) > 0 {
		return nil, domain.ErrValidation("schema %s missing required columns %v (available: %v)", name, missing, f.Columns)
	}

	src := &domain.SchemaSource{
		Name:       name,
		Tables:     make(map[string]*domain.Table),
		Attributes: make(map[string]bool),
	}
	for _, attr := range domain.SchemaAttributes {
		if f.Index(attr) >= 0 {
			src.Attributes[attr] = true
		}
	}

	tIdx := f.Index(domain.ColTableName)
	cIdx := f.Index(domain.ColColumnName)
	idIdx := f.Index(domain.ColColumnID)
	attrIdx := make(map[string]int, len(src.Attributes))
	for attr := range src.Attributes {
		attrIdx[attr] = f.Index(attr)
	}

	kept := &domain.Frame{Columns: f.Columns}
	for i, row := range f.Rows {
		table := domain.Identifier(cell(row, tIdx))
		column := domain.Identifier(cell(row, cIdx))
		if table == "" || column == "" {
			*diags = append(*diags, domain.Diagnostic{
				Severity: domain.SeverityWarning,
				Source:   name,
				Object:   table,
				Message:  fmt.Sprintf("row %d has an empty table or column name, skipped", i+1),
			})
			continue
		}
		if !filter.Keep(table) {
			continue
		}

		t, ok := src.Tables[table]
		if !ok {
			t = &domain.Table{Name: table, Columns: make(map[string]*domain.Column)}
			src.Tables[table] = t
		}
		if _, dup := t.Columns[column]; dup {
			*diags = append(*diags, domain.Diagnostic{
				Severity:  domain.SeverityWarning,
				Source:    name,
				Object:    table,
				SubObject: column,
				Message:   "duplicate column row, first occurrence kept",
			})
			continue
		}

		col := &domain.Column{
			Name:     column,
			Position: position(cell(row, idIdx), len(t.Columns)+1),
			Values:   make(map[string]domain.Value, len(attrIdx)),
		}
		for attr, idx := range attrIdx {
			col.Values[attr] = domain.ValueOf(cell(row, idx))
		}
		t.Columns[column] = col
		kept.Rows = append(kept.Rows, row)
	}

	if len(src.Tables) == 0 && !filter.IsZero() {
		*diags = append(*diags, domain.Diagnostic{
			Severity: domain.SeverityInfo,
			Source:   name,
			Message:  "no tables left after filtering",
		})
	}
	src.Frame = kept
	return src, nil
}

func cell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// position parses a COLUMN_ID value, falling back to insertion order.
func position(v any, fallback int) int {
	val := domain.ValueOf(v)
	if !val.Valid {
		return fallback
	}
	if n, err := strconv.Atoi(val.Text); err == nil {
		return n
	}
	return fallback
}
