package domain

// Schema-shape column names, in canonical (upper) case.
const (
	ColTableName     = "TABLE_NAME"
	ColColumnName    = "COLUMN_NAME"
	ColDataType      = "DATA_TYPE"
	ColDataLength    = "DATA_LENGTH"
	ColDataPrecision = "DATA_PRECISION"
	ColDataScale     = "DATA_SCALE"
	ColNullable      = "NULLABLE"
	ColColumnID      = "COLUMN_ID"
)

// SchemaColumnsOrder is the collection order of the schema shape.
var SchemaColumnsOrder = []string{
	ColTableName, ColColumnName, ColDataType, ColDataLength,
	ColDataPrecision, ColDataScale, ColNullable, ColColumnID,
}

// SchemaAttributes is the fixed attribute set compared per column.
var SchemaAttributes = []string{ColDataType, ColDataLength, ColDataPrecision, ColDataScale, ColNullable}

// SchemaSource is one normalized schema: its tables keyed by normalized name,
// and the set of attribute columns its frame actually carried.
type SchemaSource struct {
	Name       string
	Tables     map[string]*Table
	Attributes map[string]bool
	Frame      *Frame // normalized frame, kept for reporting
}

// Table is one object of a schema source.
type Table struct {
	Name    string
	Columns map[string]*Column
}

// Column is one sub-object of a table with its attribute values.
type Column struct {
	Name     string
	Position int
	Values   map[string]Value
}

// HasTable reports whether the source contains the table.
func (s *SchemaSource) HasTable(name string) bool {
	_, ok := s.Tables[name]
	return ok
}

// Column returns the named column of the named table, or nil.
func (s *SchemaSource) Column(table, column string) *Column {
	t, ok := s.Tables[table]
	if !ok {
		return nil
	}
	return t.Columns[column]
}

// Stats holds per-source counts shown in reports.
type Stats struct {
	Tables    int `json:"total_tables"`
	Columns   int `json:"total_columns"`
	DataTypes int `json:"unique_data_types"`
}
