package domain

import (
	"sort"
	"strings"
)

// Existence status tokens written into per-source cells.
const (
	StatusExists        = "EXISTS"
	StatusMissing       = "MISSING"
	StatusNotApplicable = "N/A"
)

// Fixed difference types. Attribute and field differences are built with
// AttributeDifference and FieldMismatch.
const (
	DiffObjectMissing    = "Object Missing"
	DiffSubObjectMissing = "Sub-object Missing"
	DiffEntryMissing     = "Entry Missing"
)

const (
	attributeSuffix = " Different"
	mismatchSuffix  = " Mismatch"
)

// AttributeDifference returns the difference type for a schema attribute,
// e.g. DATA_LENGTH -> "Data_Length Different".
func AttributeDifference(attribute string) string {
	return TitleCase(attribute) + attributeSuffix
}

// FieldMismatch returns the difference type for a keyed comparison field,
// e.g. CALLS_LIST -> "Calls_List Mismatch".
func FieldMismatch(field string) string {
	return TitleCase(field) + mismatchSuffix
}

// IsMissingType reports whether a difference type describes an existence
// difference rather than a value difference.
func IsMissingType(diffType string) bool {
	return strings.HasSuffix(diffType, " Missing")
}

// TitleCase upper-cases the first letter of every letter run and lower-cases
// the rest: "DATA_LENGTH" -> "Data_Length".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		isLetter := ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		switch {
		case isLetter && !prevLetter:
			b.WriteString(strings.ToUpper(string(r)))
		case isLetter:
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}

// DifferenceRecord is one non-uniformity across sources. Values maps each
// source name to an existence status or a stringified value.
type DifferenceRecord struct {
	ObjectID    string            `json:"object_id"`
	SubObjectID string            `json:"sub_object_id"`
	Type        string            `json:"difference_type"`
	Values      map[string]string `json:"values"`
}

// Columns names the three fixed columns of a DifferenceTable.
type Columns struct {
	Object    string
	SubObject string
	Type      string
}

// SchemaColumns is the fixed header of schema comparison output.
var SchemaColumns = Columns{Object: "TABLE_NAME", SubObject: "COLUMN_NAME", Type: "DIFFERENCE_TYPE"}

// EventColumns is the fixed header of event comparison output.
var EventColumns = Columns{Object: "table_type", SubObject: "identifier", Type: "difference_type"}

// DifferenceTable is the flat output of a comparison run: the fixed columns
// followed by one column per source. It is never nil on success, even when
// there are no records.
type DifferenceTable struct {
	Columns Columns
	Sources []string
	Records []DifferenceRecord
}

// NewDifferenceTable creates an empty table. Source names are sorted so the
// header does not depend on input order.
func NewDifferenceTable(cols Columns, sources []string) *DifferenceTable {
	s := append([]string(nil), sources...)
	sort.Strings(s)
	return &DifferenceTable{Columns: cols, Sources: s, Records: []DifferenceRecord{}}
}

// Header returns the full column header.
func (t *DifferenceTable) Header() []string {
	h := make([]string, 0, 3+len(t.Sources))
	h = append(h, t.Columns.Object, t.Columns.SubObject, t.Columns.Type)
	return append(h, t.Sources...)
}

// Rows returns the records as string rows aligned with Header. Sources absent
// from a record's value map render as N/A.
func (t *DifferenceTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Records))
	for _, r := range t.Records {
		row := make([]string, 0, 3+len(t.Sources))
		row = append(row, r.ObjectID, r.SubObjectID, r.Type)
		for _, s := range t.Sources {
			v, ok := r.Values[s]
			if !ok {
				v = StatusNotApplicable
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

// Len returns the number of records.
func (t *DifferenceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasDifferences reports whether any record was emitted.
func (t *DifferenceTable) HasDifferences() bool {
	return t.Len() > 0
}

// Add appends records.
func (t *DifferenceTable) Add(records ...DifferenceRecord) {
	t.Records = append(t.Records, records...)
}

// Sort orders records by object, sub-object, and difference type.
func (t *DifferenceTable) Sort() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		a, b := t.Records[i], t.Records[j]
		if a.ObjectID != b.ObjectID {
			return a.ObjectID < b.ObjectID
		}
		if a.SubObjectID != b.SubObjectID {
			return a.SubObjectID < b.SubObjectID
		}
		return a.Type < b.Type
	})
}

// CountByType returns the number of records per difference type.
func (t *DifferenceTable) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, r := range t.Records {
		counts[r.Type]++
	}
	return counts
}

// Filter returns a table with the same header holding only the records for
// which keep returns true.
func (t *DifferenceTable) Filter(keep func(DifferenceRecord) bool) *DifferenceTable {
	out := &DifferenceTable{Columns: t.Columns, Sources: t.Sources, Records: []DifferenceRecord{}}
	for _, r := range t.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
