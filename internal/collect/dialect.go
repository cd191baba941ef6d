// Package collect reads schema metadata and event record sets from live
// databases and file snapshots into fully materialized frames.
package collect

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	go_ora "github.com/sijms/go-ora/v2"

	"schemasync/internal/domain"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Dialect knows how to reach one kind of source and which queries produce
// the schema and event frames.
type Dialect interface {
	// DriverName is the database/sql driver used to open the source.
	DriverName() string
	// DSN builds the connection string for a source.
	DSN(src domain.SourceConfig) (string, error)
	// SchemaQuery returns the query listing every column of the source's
	// owner, shaped as TABLE_NAME, COLUMN_NAME, DATA_TYPE, DATA_LENGTH,
	// DATA_PRECISION, DATA_SCALE, NULLABLE, COLUMN_ID.
	SchemaQuery(src domain.SourceConfig) (string, []any, error)
	// EventQuery returns the query for one event record set.
	EventQuery(src domain.SourceConfig, recordSet string) (string, []any, error)
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case domain.DriverOracle:
		return oracleDialect{}, nil
	case domain.DriverPostgres:
		return postgresDialect{}, nil
	case domain.DriverMySQL:
		return mysqlDialect{}, nil
	case domain.DriverSQLite:
		return sqliteDialect{}, nil
	case domain.DriverDuckDB:
		return duckdbDialect{}, nil
	case domain.DriverCSV:
		return csvDialect{}, nil
	default:
		return nil, domain.ErrValidation("unsupported driver %q", driver)
	}
}

// identPattern restricts owners to plain identifiers since they are
// interpolated into event queries as a schema prefix.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#]*$`)

func qualify(owner, table string) (string, error) {
	if owner == "" {
		return table, nil
	}
	if !identPattern.MatchString(owner) {
		return "", domain.ErrValidation("invalid owner %q", owner)
	}
	return owner + "." + table, nil
}

// eventSQL renders the event queries shared by every SQL dialect. Only
// enabled formula events are compared.
func eventSQL(owner, recordSet string) (string, error) {
	var table string
	switch recordSet {
	case domain.RecordEvents, domain.RecordTestEvents, domain.RecordDatabaseEvents:
		var err error
		if table, err = qualify(owner, recordSet); err != nil {
			return "", err
		}
	default:
		return "", domain.ErrValidation("unknown event record set %q", recordSet)
	}

	if recordSet == domain.RecordDatabaseEvents {
		return fmt.Sprintf(`SELECT db.%s
FROM %s db
ORDER BY db.table_name, db.event_name`, strings.Join(domain.DatabaseEventColumns, ", db."), table), nil
	}
	return fmt.Sprintf(`SELECT e.template, e.event, e.formula
FROM %s e
WHERE e.enabled_flag = 'T' AND e.formula_flag = 'T'
ORDER BY e.template, e.event`, table), nil
}

// === oracle ===

type oracleDialect struct{}

func (oracleDialect) DriverName() string { return "oracle" }

func (oracleDialect) DSN(src domain.SourceConfig) (string, error) {
	if src.DSN != "" {
		return src.DSN, nil
	}
	port := src.Port
	if port == 0 {
		port = 1521
	}
	return go_ora.BuildUrl(src.Host, port, src.ServiceName, src.User, src.Password, nil), nil
}

func (oracleDialect) SchemaQuery(src domain.SourceConfig) (string, []any, error) {
	owner := strings.ToUpper(src.Owner)
	if owner == "" {
		owner = strings.ToUpper(src.User)
	}
	return `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, DATA_LENGTH, DATA_PRECISION,
       DATA_SCALE, NULLABLE, COLUMN_ID
FROM SYS.ALL_TAB_COLS
WHERE OWNER = :1
  AND COLUMN_NAME NOT LIKE 'SYS\_%' ESCAPE '\'
ORDER BY TABLE_NAME, COLUMN_ID`, []any{owner}, nil
}

func (oracleDialect) EventQuery(src domain.SourceConfig, recordSet string) (string, []any, error) {
	q, err := eventSQL(src.Owner, recordSet)
	return q, nil, err
}

// === postgres ===

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) DSN(src domain.SourceConfig) (string, error) {
	if src.DSN != "" {
		return src.DSN, nil
	}
	port := src.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(src.User, src.Password),
		Host:   net.JoinHostPort(src.Host, strconv.Itoa(port)),
		Path:   "/" + src.ServiceName,
	}
	return u.String(), nil
}

func (postgresDialect) SchemaQuery(src domain.SourceConfig) (string, []any, error) {
	owner := src.Owner
	if owner == "" {
		owner = "public"
	}
	return `SELECT table_name, column_name, UPPER(data_type) AS data_type,
       character_maximum_length AS data_length, numeric_precision AS data_precision,
       numeric_scale AS data_scale,
       CASE WHEN is_nullable = 'YES' THEN 'Y' ELSE 'N' END AS nullable,
       ordinal_position AS column_id
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`, []any{owner}, nil
}

func (postgresDialect) EventQuery(src domain.SourceConfig, recordSet string) (string, []any, error) {
	q, err := eventSQL(src.Owner, recordSet)
	return q, nil, err
}

// === mysql ===

type mysqlDialect struct{}

func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DSN(src domain.SourceConfig) (string, error) {
	if src.DSN != "" {
		return src.DSN, nil
	}
	port := src.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = src.User
	cfg.Passwd = src.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(src.Host, strconv.Itoa(port))
	cfg.DBName = src.ServiceName
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (mysqlDialect) SchemaQuery(src domain.SourceConfig) (string, []any, error) {
	return `SELECT table_name AS table_name, column_name AS column_name,
       UPPER(data_type) AS data_type, character_maximum_length AS data_length,
       numeric_precision AS data_precision, numeric_scale AS data_scale,
       CASE WHEN is_nullable = 'YES' THEN 'Y' ELSE 'N' END AS nullable,
       ordinal_position AS column_id
FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
ORDER BY table_name, ordinal_position`, []any{src.Owner}, nil
}

func (mysqlDialect) EventQuery(src domain.SourceConfig, recordSet string) (string, []any, error) {
	q, err := eventSQL(src.Owner, recordSet)
	return q, nil, err
}

// === sqlite ===

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return "sqlite3" }

// DSN opens plain file paths read-only.
func (sqliteDialect) DSN(src domain.SourceConfig) (string, error) {
	if strings.HasPrefix(src.DSN, "file:") || strings.Contains(src.DSN, "?") {
		return src.DSN, nil
	}
	return "file:" + src.DSN + "?mode=ro", nil
}

func (sqliteDialect) SchemaQuery(domain.SourceConfig) (string, []any, error) {
	return `SELECT m.name AS table_name, p.name AS column_name, UPPER(p.type) AS data_type,
       NULL AS data_length, NULL AS data_precision, NULL AS data_scale,
       CASE WHEN p."notnull" = 1 THEN 'N' ELSE 'Y' END AS nullable,
       p.cid + 1 AS column_id
FROM sqlite_master m
JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite\_%' ESCAPE '\'
ORDER BY m.name, p.cid`, nil, nil
}

// EventQuery ignores the owner; a SQLite file has a single schema.
func (sqliteDialect) EventQuery(_ domain.SourceConfig, recordSet string) (string, []any, error) {
	q, err := eventSQL("", recordSet)
	return q, nil, err
}

// === duckdb ===

type duckdbDialect struct{}

func (duckdbDialect) DriverName() string { return "duckdb" }

func (duckdbDialect) DSN(src domain.SourceConfig) (string, error) { return src.DSN, nil }

func (duckdbDialect) SchemaQuery(src domain.SourceConfig) (string, []any, error) {
	owner := src.Owner
	if owner == "" {
		owner = "main"
	}
	return `SELECT table_name, column_name, UPPER(data_type) AS data_type,
       character_maximum_length AS data_length, numeric_precision AS data_precision,
       numeric_scale AS data_scale,
       CASE WHEN is_nullable = 'YES' THEN 'Y' ELSE 'N' END AS nullable,
       ordinal_position AS column_id
FROM information_schema.columns
WHERE table_schema = ?
ORDER BY table_name, ordinal_position`, []any{owner}, nil
}

func (duckdbDialect) EventQuery(src domain.SourceConfig, recordSet string) (string, []any, error) {
	q, err := eventSQL(src.Owner, recordSet)
	return q, nil, err
}

// === csv snapshots ===

// csvDialect reads exported snapshots through an in-memory DuckDB. For
// schemas DSN is a CSV file in schema shape; for events DSN is a directory
// holding events.csv, test_events.csv, and database_events.csv.
type csvDialect struct{}

func (csvDialect) DriverName() string { return "duckdb" }

func (csvDialect) DSN(domain.SourceConfig) (string, error) { return "", nil }

func (csvDialect) SchemaQuery(src domain.SourceConfig) (string, []any, error) {
	return readCSV(src.DSN), nil, nil
}

func (csvDialect) EventQuery(src domain.SourceConfig, recordSet string) (string, []any, error) {
	switch recordSet {
	case domain.RecordEvents, domain.RecordTestEvents, domain.RecordDatabaseEvents:
		return readCSV(filepath.Join(src.DSN, recordSet+".csv")), nil, nil
	default:
		return "", nil, domain.ErrValidation("unknown event record set %q", recordSet)
	}
}

// readCSV renders a read_csv_auto scan. Every column is read as text so
// snapshots compare the same way regardless of type sniffing.
func readCSV(path string) string {
	return fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header = true, all_varchar = true)", quoteLiteral(path))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
