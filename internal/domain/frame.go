package domain

import "strings"

// Frame is a fully materialized result set: ordered column names and rows of
// driver values. Collectors produce frames; the comparison core never sees a
// live cursor.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// NewFrame creates a frame with the given columns and no rows.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: columns}
}

// Empty reports whether the frame is nil or has no rows.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Rows) == 0
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Index returns the position of the named column, matched case-insensitively,
// or -1 when absent.
func (f *Frame) Index(column string) int {
	if f == nil {
		return -1
	}
	for i, c := range f.Columns {
		if strings.EqualFold(c, column) {
			return i
		}
	}
	return -1
}

// Has reports whether every named column is present.
func (f *Frame) Has(columns ...string) bool {
	for _, c := range columns {
		if f.Index(c) < 0 {
			return false
		}
	}
	return true
}

// Missing returns the named columns that are not present, in argument order.
func (f *Frame) Missing(columns ...string) []string {
	var out []string
	for _, c := range columns {
		if f.Index(c) < 0 {
			out = append(out, c)
		}
	}
	return out
}

// Value returns the cell at row i for the named column, or nil when the
// column does not exist or the row is short.
func (f *Frame) Value(i int, column string) any {
	idx := f.Index(column)
	if idx < 0 || i < 0 || i >= len(f.Rows) || idx >= len(f.Rows[i]) {
		return nil
	}
	return f.Rows[i][idx]
}

// Append adds a row. Short rows are padded with nil.
func (f *Frame) Append(values ...any) {
	row := make([]any, len(f.Columns))
	copy(row, values)
	f.Rows = append(f.Rows, row)
}

// Clone returns a deep copy of the column list and row slices. Cell values
// are copied by assignment.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([][]any, len(f.Rows)),
	}
	for i, r := range f.Rows {
		out.Rows[i] = append([]any(nil), r...)
	}
	return out
}
