package compare

import "schemasync/internal/domain"

// schemaFrame builds a schema-shape frame from (table, column, type, length)
// tuples. Column headers are lower case as most drivers return them.
func schemaFrame(rows ...[]any) *domain.Frame {
	f := domain.NewFrame("table_name", "column_name", "data_type", "data_length",
		"data_precision", "data_scale", "nullable", "column_id")
	for i, r := range rows {
		row := make([]any, 8)
		copy(row, r)
		if row[2] == nil {
			row[2] = "VARCHAR2"
		}
		if row[6] == nil {
			row[6] = "Y"
		}
		row[7] = i + 1
		f.Rows = append(f.Rows, row)
	}
	return f
}

func col(table, column string, length any) []any {
	return []any{table, column, nil, length}
}

func mustSources(inputs map[string]*domain.Frame) []*domain.SchemaSource {
	sources, _, err := NormalizeSchemas(inputs, TableFilter{})
	if err != nil {
		panic(err)
	}
	return sources
}

func eventFrame(rows ...[3]any) *domain.Frame {
	f := domain.NewFrame("template", "event", "formula")
	for _, r := range rows {
		f.Append(r[0], r[1], r[2])
	}
	return f
}

// dbEventFrame builds a full database_events frame from (table, event, sub)
// tuples; the trigger condition columns are filled with fixed values.
func dbEventFrame(rows ...[3]any) *domain.Frame {
	f := domain.NewFrame(domain.DatabaseEventColumns...)
	for _, r := range rows {
		f.Append(r[0], r[1], r[2], "F", "STATUS", "T", "OPEN", "CLOSED", nil, "F", nil, nil)
	}
	return f
}

func findRecord(t *domain.DifferenceTable, object, sub, diffType string) *domain.DifferenceRecord {
	for i := range t.Records {
		r := &t.Records[i]
		if r.ObjectID == object && r.SubObjectID == sub && r.Type == diffType {
			return r
		}
	}
	return nil
}
