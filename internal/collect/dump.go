package collect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"schemasync/internal/domain"
)

// DumpRequest selects what Dump extracts from one source.
type DumpRequest struct {
	Tables  []string // tables whose rows are extracted
	All     bool     // extract every table of the catalog
	Clob    bool     // extract every table with a CLOB or NCLOB column
	Exclude []string // tables skipped by All and Clob
	MaxRows int      // rows per table; 0 means no cap
}

// Dump is one source's extracted metadata and table rows.
type Dump struct {
	Source  string
	Catalog *domain.Frame
	Tables  []TableData
}

// TableData holds the rows read from one table.
type TableData struct {
	Name      string
	Frame     *domain.Frame
	Truncated bool
}

// Dump reads the column catalog of src and then the rows of every selected
// table. A table that cannot be read is reported as a warning and skipped;
// failing to reach the source or to read the catalog is an error.
func (c *Collector) Dump(ctx context.Context, src domain.SourceConfig, req DumpRequest) (*Dump, domain.Diagnostics, error) {
	var (
		out   = &Dump{Source: src.Name}
		diags domain.Diagnostics
	)
	err := c.withSource(ctx, src, func(ctx context.Context, d Dialect, db *sql.DB) error {
		q, args, err := d.SchemaQuery(src)
		if err != nil {
			return err
		}
		if out.Catalog, err = query(ctx, db, q, args); err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		c.logger.Info("catalog collected", "source", src.Name, "rows", out.Catalog.Len())

		for _, table := range dumpTables(out.Catalog, req) {
			data, err := dumpTable(ctx, db, src, table, req.MaxRows)
			if err != nil {
				c.logger.Warn("table dump failed", "source", src.Name, "table", table, "error", err)
				diags = append(diags, domain.Diagnostic{
					Severity: domain.SeverityWarning,
					Source:   src.Name,
					Object:   table,
					Message:  err.Error(),
					Err:      err,
				})
				continue
			}
			if data.Truncated {
				diags = append(diags, domain.Diagnostic{
					Severity: domain.SeverityInfo,
					Source:   src.Name,
					Object:   data.Name,
					Message:  fmt.Sprintf("limited to %d rows", req.MaxRows),
				})
			}
			out.Tables = append(out.Tables, data)
		}
		return nil
	})
	if err != nil {
		return nil, diags, domain.ErrSourceUnavailable(src.Name, "%v", err)
	}
	return out, diags, nil
}

// dumpTables resolves the requested table list against the catalog. Explicit
// tables keep their order; All and Clob add catalog tables in name order.
func dumpTables(catalog *domain.Frame, req DumpRequest) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToUpper(name)] {
			return
		}
		seen[strings.ToUpper(name)] = true
		out = append(out, name)
	}
	for _, t := range req.Tables {
		add(t)
	}
	if !req.All && !req.Clob {
		return out
	}

	excluded := make(map[string]bool, len(req.Exclude))
	for _, t := range req.Exclude {
		excluded[strings.ToUpper(t)] = true
	}
	picked := make(map[string]bool)
	var names []string
	for i := range catalog.Rows {
		table := domain.RawString(catalog.Value(i, domain.ColTableName))
		if table == "" || picked[table] || excluded[strings.ToUpper(table)] {
			continue
		}
		if req.Clob && !req.All && !isClob(catalog.Value(i, domain.ColDataType)) {
			continue
		}
		picked[table] = true
		names = append(names, table)
	}
	sort.Strings(names)
	for _, t := range names {
		add(t)
	}
	return out
}

func isClob(v any) bool {
	t := strings.ToUpper(domain.RawString(v))
	return t == "CLOB" || t == "NCLOB"
}

func dumpTable(ctx context.Context, db *sql.DB, src domain.SourceConfig, table string, maxRows int) (TableData, error) {
	q, err := tableSQL(src, table)
	if err != nil {
		return TableData{}, err
	}
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return TableData{}, err
	}
	defer rows.Close() //nolint:errcheck

	f, truncated, err := scanFrameLimit(rows, maxRows)
	if err != nil {
		return TableData{}, err
	}
	return TableData{Name: strings.ToUpper(table), Frame: f, Truncated: truncated}, nil
}

// tableSQL renders a full-table select. Table names are restricted to plain
// identifiers since they are interpolated.
func tableSQL(src domain.SourceConfig, table string) (string, error) {
	if !identPattern.MatchString(table) {
		return "", domain.ErrValidation("invalid table name %q", table)
	}
	owner := src.Owner
	switch src.Driver {
	case domain.DriverSQLite:
		owner = ""
	case domain.DriverOracle:
		if owner == "" {
			owner = src.User
		}
	case domain.DriverCSV:
		return "", domain.ErrValidation("csv snapshots hold no tables to dump")
	}
	qualified, err := qualify(owner, table)
	if err != nil {
		return "", err
	}
	return "SELECT * FROM " + qualified, nil
}
