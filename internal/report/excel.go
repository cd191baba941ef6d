package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"schemasync/internal/domain"
)

const (
	indexSheet       = "Index"
	differencesSheet = "Differences"
	maxSheetName     = 31

	fillMissing = "FFC7CE"
	fillValue   = "FFEB9C"
	fillHeader  = "DDEBF7"
)

// WriteExcel writes a workbook with an Index sheet linking to every other
// sheet, one sheet per source frame, and a colour-coded Differences sheet
// when the report has a difference table.
func WriteExcel(path string, r *Report) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", indexSheet); err != nil {
		return fmt.Errorf("rename index sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	names := newSheetNamer(indexSheet, differencesSheet)
	type entry struct {
		sheet, source string
		rows          int
	}
	var entries []entry
	for _, sh := range r.Sheets {
		name := names.next(sh.Name)
		if err := writeFrameSheet(f, name, sh.Frame, styles); err != nil {
			return err
		}
		entries = append(entries, entry{name, sh.Source, sh.Frame.Len()})
	}
	if r.Table != nil {
		if err := writeDifferencesSheet(f, r.Table, styles); err != nil {
			return err
		}
	}

	// Index
	row := 1
	set := func(col int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(indexSheet, cell, v)
	}
	link := func(col int, sheet string) error {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if err := f.SetCellValue(indexSheet, cell, sheet); err != nil {
			return err
		}
		if err := f.SetCellStyle(indexSheet, cell, cell, styles.link); err != nil {
			return err
		}
		return f.SetCellHyperLink(indexSheet, cell, quoteSheet(sheet)+"!A1", "Location")
	}

	if err := set(1, r.Title()); err != nil {
		return err
	}
	row++
	if err := set(1, "Generated "+r.GeneratedAt.Format("2006-01-02 15:04:05 MST")); err != nil {
		return err
	}
	row += 2

	if err := f.SetSheetRow(indexSheet, fmt.Sprintf("A%d", row), &[]any{"Sheet", "Source", "Rows"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(indexSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), styles.header); err != nil {
		return err
	}
	row++
	for _, e := range entries {
		if err := link(1, e.sheet); err != nil {
			return err
		}
		if err := set(2, e.source); err != nil {
			return err
		}
		if err := set(3, e.rows); err != nil {
			return err
		}
		row++
	}

	if r.Table != nil {
		row++
		if err := link(1, differencesSheet); err != nil {
			return err
		}
		if err := set(3, r.Table.Len()); err != nil {
			return err
		}
		row++
		for _, tc := range Summarize(r.Table).SortedTypes() {
			if err := set(2, tc.Type); err != nil {
				return err
			}
			if err := set(3, tc.Count); err != nil {
				return err
			}
			row++
		}
	}
	if err := f.SetColWidth(indexSheet, "A", "B", 32); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

type workbookStyles struct {
	header, link, missing, value int
}

func newStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{fillHeader}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	if s.link, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0563C1", Underline: "single"},
	}); err != nil {
		return s, fmt.Errorf("link style: %w", err)
	}
	if s.missing, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fillMissing}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("missing style: %w", err)
	}
	if s.value, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fillValue}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("value style: %w", err)
	}
	return s, nil
}

func writeFrameSheet(f *excelize.File, name string, frame *domain.Frame, styles workbookStyles) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	header := make([]any, len(frame.Columns))
	for i, c := range frame.Columns {
		header[i] = c
	}
	rows := frameRows(frame)
	body := make([][]any, len(rows))
	for i, r := range rows {
		body[i] = make([]any, len(r))
		for j, v := range r {
			body[i][j] = v
		}
	}
	return writeGrid(f, name, header, body, styles)
}

func writeDifferencesSheet(f *excelize.File, t *domain.DifferenceTable, styles workbookStyles) error {
	if _, err := f.NewSheet(differencesSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", differencesSheet, err)
	}
	h := t.Header()
	header := make([]any, len(h))
	for i, c := range h {
		header[i] = c
	}
	rows := t.Rows()
	body := make([][]any, len(rows))
	for i, r := range rows {
		body[i] = make([]any, len(r))
		for j, v := range r {
			body[i][j] = v
		}
	}
	if err := writeGrid(f, differencesSheet, header, body, styles); err != nil {
		return err
	}

	last, _ := excelize.ColumnNumberToName(len(h))
	for i, rec := range t.Records {
		style := styles.value
		if domain.IsMissingType(rec.Type) {
			style = styles.missing
		}
		if err := f.SetCellStyle(differencesSheet, fmt.Sprintf("A%d", i+2), fmt.Sprintf("%s%d", last, i+2), style); err != nil {
			return err
		}
	}
	return nil
}

// writeGrid writes a header and body, freezes the header row, adds an auto
// filter, and puts a "Back to Index" link right of the header.
func writeGrid(f *excelize.File, sheet string, header []any, body [][]any, styles workbookStyles) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := range body {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &body[i]); err != nil {
			return err
		}
	}

	ncol := len(header)
	if ncol == 0 {
		ncol = 1
	}
	last, err := excelize.ColumnNumberToName(ncol)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", styles.header); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", last, len(body)+1), nil); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return err
	}

	back, _ := excelize.CoordinatesToCellName(ncol+2, 1)
	if err := f.SetCellValue(sheet, back, "Back to Index"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, back, back, styles.link); err != nil {
		return err
	}
	return f.SetCellHyperLink(sheet, back, quoteSheet(indexSheet)+"!A1", "Location")
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// sheetNamer produces unique, valid worksheet names.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{used: map[string]bool{}}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = true
	}
	return n
}

var sheetNameReplacer = strings.NewReplacer(
	"[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", `\`, "_")

func (n *sheetNamer) next(name string) string {
	base := strings.Trim(sheetNameReplacer.Replace(name), "'")
	if base == "" {
		base = "Sheet"
	}
	base = truncateRunes(base, maxSheetName)

	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
