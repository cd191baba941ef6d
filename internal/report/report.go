// Package report renders comparison results as text, JSON, CSV, and Excel,
// and publishes written files to S3-compatible storage.
package report

import (
	"time"

	"schemasync/internal/collect"
	"schemasync/internal/compare"
	"schemasync/internal/domain"
)

// Kind names the comparison a report was produced by.
type Kind string

// Report kinds.
const (
	KindSchema Kind = "schema"
	KindEvents Kind = "events"
	KindDump   Kind = "dump"
)

// Sheet is one normalized source frame included alongside the differences.
type Sheet struct {
	Name   string
	Source string
	Frame  *domain.Frame
}

// Report bundles everything a renderer needs. Renderers read the difference
// table; they never recompute comparisons.
type Report struct {
	Kind        Kind
	RunID       string
	GeneratedAt time.Time
	Table       *domain.DifferenceTable
	Stats       map[string]domain.Stats
	Sheets      []Sheet
	Diagnostics domain.Diagnostics
}

// NewSchemaReport builds a report from a schema comparison.
func NewSchemaReport(res *compare.SchemaResult) *Report {
	r := &Report{
		Kind:        KindSchema,
		GeneratedAt: time.Now().UTC(),
		Table:       res.Table,
		Stats:       res.Stats,
		Diagnostics: res.Diagnostics,
	}
	for _, s := range res.Sources {
		r.Sheets = append(r.Sheets, Sheet{Name: s.Name, Source: s.Name, Frame: s.Frame})
	}
	return r
}

// NewEventsReport builds a report from an events comparison. Each source
// contributes one sheet per collected record set.
func NewEventsReport(res *compare.EventResult) *Report {
	r := &Report{
		Kind:        KindEvents,
		GeneratedAt: time.Now().UTC(),
		Table:       res.Table,
		Diagnostics: res.Diagnostics,
	}
	if res.Table == nil {
		return r
	}
	for _, src := range res.Table.Sources {
		frames := res.Sources[src]
		for _, spec := range domain.EventSpecs {
			if f := frames[spec.RecordSet]; f != nil {
				r.Sheets = append(r.Sheets, Sheet{Name: src + " " + spec.RecordSet, Source: src, Frame: f})
			}
		}
	}
	return r
}

// NewDumpReport builds a report holding one source's catalog and extracted
// table rows. It has no difference table.
func NewDumpReport(d *collect.Dump, diags domain.Diagnostics) *Report {
	r := &Report{
		Kind:        KindDump,
		GeneratedAt: time.Now().UTC(),
		Diagnostics: diags,
		Sheets:      []Sheet{{Name: "catalog", Source: d.Source, Frame: d.Catalog}},
	}
	for _, t := range d.Tables {
		r.Sheets = append(r.Sheets, Sheet{Name: t.Name, Source: d.Source, Frame: t.Frame})
	}
	return r
}

// HasDifferences reports whether the comparison found anything.
func (r *Report) HasDifferences() bool {
	return r.Table.HasDifferences()
}

// Title returns a human-readable report title.
func (r *Report) Title() string {
	switch r.Kind {
	case KindEvents:
		return "Events comparison"
	case KindDump:
		return "Source extract"
	}
	return "Schema comparison"
}
