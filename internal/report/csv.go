package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"schemasync/internal/domain"
)

// WriteCSV writes the difference table to dir/base.csv and every sheet to
// dir/base_<sheet>.csv using sep as the field separator. It returns the
// written paths, differences first. A report without a table writes only
// its sheets.
func WriteCSV(dir, base string, r *Report, sep rune) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	if r.Table != nil {
		diffPath := filepath.Join(dir, base+".csv")
		if err := writeCSVFile(diffPath, sep, r.Table.Header(), r.Table.Rows()); err != nil {
			return nil, err
		}
		paths = append(paths, diffPath)
	}

	for _, sh := range r.Sheets {
		path := filepath.Join(dir, base+"_"+fileSafe(sh.Name)+".csv")
		if err := writeCSVFile(path, sep, sh.Frame.Columns, frameRows(sh.Frame)); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, sep rune, header []string, rows [][]string) error {
	f, err := os.Create(path) //nolint:gosec // path is built from configured output dir
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	w.Comma = sep
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// frameRows renders frame cells as text. Nulls become empty fields.
func frameRows(f *domain.Frame) [][]string {
	rows := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		out := make([]string, len(f.Columns))
		for j := range out {
			if j < len(row) {
				out[j] = domain.RawString(row[j])
			}
		}
		rows[i] = out
	}
	return rows
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func fileSafe(name string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
}
