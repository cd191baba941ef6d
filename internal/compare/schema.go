package compare

import (
	"fmt"

	"schemasync/internal/domain"
)

// SchemaOptions configures a schema comparison run.
type SchemaOptions struct {
	Filter TableFilter
}

// SchemaResult is the outcome of CompareSchemas. Table is nil only when the
// comparison could not run; Diagnostics is populated in both cases.
type SchemaResult struct {
	Table       *domain.DifferenceTable
	Sources     []*domain.SchemaSource
	Universe    *Universe
	Stats       map[string]domain.Stats
	Diagnostics domain.Diagnostics
}

// CompareSchemas normalizes the input frames, builds the universe, and runs
// the existence and attribute detectors. It returns an
// InsufficientSourcesError when fewer than two usable sources remain; in
// every other case the returned table is non-nil, possibly with no records.
func CompareSchemas(inputs map[string]*domain.Frame, opts SchemaOptions) (*SchemaResult, error) {
	sources, diags, err := NormalizeSchemas(inputs, opts.Filter)
	res := &SchemaResult{Diagnostics: diags}
	if err != nil {
		return res, err
	}

	u := BuildUniverse(sources)
	res.Sources = sources
	res.Universe = u
	res.Stats = SchemaStatistics(sources)
	res.Diagnostics.Add(domain.SeverityInfo, "", fmt.Sprintf("universe created with %d unique tables across %d schemas", u.Len(), len(sources)))

	table := domain.NewDifferenceTable(domain.SchemaColumns, u.Sources)

	objects := FindObjectDifferences(u, sources)
	columns := FindSubObjectDifferences(u, sources)
	attrs := FindAttributeDifferences(u, sources)
	table.Add(objects...)
	table.Add(columns...)
	table.Add(attrs...)
	table.Sort()

	res.Diagnostics.Add(domain.SeverityInfo, "", fmt.Sprintf(
		"found %d table, %d column, and %d attribute differences", len(objects), len(columns), len(attrs)))
	res.Table = table
	return res, nil
}

// SchemaStatistics returns table, column, and data type counts per source.
func SchemaStatistics(sources []*domain.SchemaSource) map[string]domain.Stats {
	out := make(map[string]domain.Stats, len(sources))
	for _, s := range sources {
		st := domain.Stats{Tables: len(s.Tables)}
		types := make(map[domain.Value]bool)
		for _, t := range s.Tables {
			st.Columns += len(t.Columns)
			for _, c := range t.Columns {
				if v, ok := c.Values[domain.ColDataType]; ok && v.Valid {
					types[v] = true
				}
			}
		}
		st.DataTypes = len(types)
		out[s.Name] = st
	}
	return out
}

// ValidateSchemaInputs checks raw schema frames before comparison and returns
// a human-readable issue per problem found. It does not modify the inputs.
func ValidateSchemaInputs(inputs map[string]*domain.Frame) []string {
	if len(inputs) == 0 {
		return []string{"no schemas provided"}
	}
	var issues []string
	for _, name := range sortedNames(inputs) {
		f := inputs[name]
		switch {
		case f == nil:
			issues = append(issues, fmt.Sprintf("schema %q is nil", name))
		case f.Empty():
			issues = append(issues, fmt.Sprintf("schema %q is empty", name))
		default:
			if missing := f.Missing(domain.ColTableName, domain.ColColumnName, domain.ColDataType); len(missing) > 0 {
				issues = append(issues, fmt.Sprintf("schema %q missing required columns: %v", name, missing))
			}
		}
	}
	if len(inputs) < 2 {
		issues = append(issues, "at least 2 schemas are required for comparison")
	}
	return issues
}
