package collect

import (
	"database/sql"
	"fmt"

	"schemasync/internal/domain"
)

// ScanFrame drains rows into a Frame. Byte slices are copied into strings
// since drivers may reuse the underlying buffer between rows.
func ScanFrame(rows *sql.Rows) (*domain.Frame, error) {
	f, _, err := scanFrameLimit(rows, 0)
	return f, err
}

// scanFrameLimit reads at most limit rows (all when limit is 0) and reports
// whether more rows were left unread.
func scanFrameLimit(rows *sql.Rows, limit int) (*domain.Frame, bool, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, false, fmt.Errorf("read columns: %w", err)
	}
	f := domain.NewFrame(cols...)

	for rows.Next() {
		if limit > 0 && f.Len() == limit {
			return f, true, nil
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, false, fmt.Errorf("scan row %d: %w", f.Len()+1, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		f.Rows = append(f.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate rows: %w", err)
	}
	return f, false, nil
}
