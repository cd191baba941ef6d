package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Report file formats written by WriteFiles.
const (
	FileCSV  = "csv"
	FileXLSX = "xlsx"
	FileJSON = "json"
)

// FileFormats lists the accepted file formats.
var FileFormats = []string{FileCSV, FileXLSX, FileJSON}

// ParseFormats splits a comma-separated format list, lower-casing and
// de-duplicating entries. Unknown formats are an error.
func ParseFormats(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		switch f {
		case FileCSV, FileXLSX, FileJSON:
		default:
			return nil, fmt.Errorf("unknown report format %q (want %s)", f, strings.Join(FileFormats, ", "))
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// WriteFiles writes r to dir in each requested format and returns the written
// paths. base is the file name stem, e.g. "schema_comparison".
func WriteFiles(dir, base string, r *Report, formats []string, sep rune) ([]string, error) {
	if r.Table == nil && r.Kind != KindDump {
		return nil, fmt.Errorf("report has no difference table")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for _, format := range formats {
		switch format {
		case FileCSV:
			written, err := WriteCSV(dir, base, r, sep)
			if err != nil {
				return paths, err
			}
			paths = append(paths, written...)
		case FileXLSX:
			path := filepath.Join(dir, base+".xlsx")
			if err := WriteExcel(path, r); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		case FileJSON:
			if r.Table == nil {
				return paths, fmt.Errorf("json output needs a difference table")
			}
			path := filepath.Join(dir, base+".json")
			if err := writeJSONFile(path, r); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		default:
			return paths, fmt.Errorf("unknown report format %q", format)
		}
	}
	return paths, nil
}

func writeJSONFile(path string, r *Report) error {
	f, err := os.Create(path) //nolint:gosec // path is built from configured output dir
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := FormatJSON(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
