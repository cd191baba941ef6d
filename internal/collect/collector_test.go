package collect

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/compare"
	"schemasync/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createSQLite builds a SQLite file from DDL/DML statements and returns its path.
func createSQLite(t *testing.T, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}

const (
	eventsDDL     = `CREATE TABLE events (template TEXT, event TEXT, formula TEXT, enabled_flag TEXT, formula_flag TEXT)`
	testEventsDDL = `CREATE TABLE test_events (template TEXT, event TEXT, formula TEXT, enabled_flag TEXT, formula_flag TEXT)`
	dbEventsDDL   = `CREATE TABLE database_events (table_name TEXT, event_name TEXT, sub_name TEXT, or_fields TEXT,
		field_name_1 TEXT, has_value_1 TEXT, changed_from_1 TEXT, changed_to_1 TEXT,
		field_name_2 TEXT, has_value_2 TEXT, changed_from_2 TEXT, changed_to_2 TEXT)`
)

func TestCollectSchemas_SQLite(t *testing.T) {
	a := createSQLite(t, "a",
		`CREATE TABLE orders (id INTEGER NOT NULL, name VARCHAR(20))`)
	b := createSQLite(t, "b",
		`CREATE TABLE orders (id INTEGER NOT NULL, name VARCHAR(40), note TEXT)`,
		`CREATE TABLE audit (id INTEGER)`)

	c := New(10*time.Second, 2, testLogger())
	frames, diags := c.CollectSchemas(context.Background(), []domain.SourceConfig{
		{Name: "A", Driver: domain.DriverSQLite, DSN: a},
		{Name: "B", Driver: domain.DriverSQLite, DSN: b},
	})
	require.Empty(t, diags)
	require.Len(t, frames, 2)

	fa := frames["A"]
	assert.Equal(t, []string{"table_name", "column_name", "data_type", "data_length",
		"data_precision", "data_scale", "nullable", "column_id"}, fa.Columns)
	require.Equal(t, 2, fa.Len())
	assert.Equal(t, "id", fa.Value(0, "column_name"))
	assert.Equal(t, "N", fa.Value(0, "nullable"))
	assert.Equal(t, "VARCHAR(20)", fa.Value(1, "data_type"))

	res, err := compare.CompareSchemas(frames, compare.SchemaOptions{})
	require.NoError(t, err)

	var types []string
	for _, r := range res.Table.Records {
		types = append(types, r.ObjectID+"."+r.SubObjectID+":"+r.Type)
	}
	assert.ElementsMatch(t, []string{
		"AUDIT.:Object Missing",
		"ORDERS.NAME:Data_Type Different",
		"ORDERS.NOTE:Sub-object Missing",
	}, types)
}

func TestCollectSchemas_FailedSourceIsDiagnosed(t *testing.T) {
	good := createSQLite(t, "good", `CREATE TABLE t (id INTEGER)`)

	c := New(5*time.Second, 4, testLogger())
	frames, diags := c.CollectSchemas(context.Background(), []domain.SourceConfig{
		{Name: "GOOD", Driver: domain.DriverSQLite, DSN: good},
		{Name: "MISSING", Driver: domain.DriverSQLite, DSN: filepath.Join(t.TempDir(), "nope.sqlite")},
		{Name: "BAD", Driver: "mssql", DSN: "x"},
	})

	assert.Len(t, frames, 1)
	assert.Contains(t, frames, "GOOD")
	require.Len(t, diags, 2)
	for _, d := range diags {
		var unavailable *domain.SourceUnavailableError
		assert.ErrorAs(t, d.Err, &unavailable, d.Source)
		assert.Equal(t, domain.SeverityError, d.Severity)
	}
}

func TestCollectEvents_SQLite(t *testing.T) {
	a := createSQLite(t, "a", eventsDDL, testEventsDDL, dbEventsDDL,
		`INSERT INTO events VALUES ('TPL', 'EVT', 'GOSUB FOO', 'T', 'T')`,
		`INSERT INTO events VALUES ('TPL', 'OFF', 'GOSUB X', 'F', 'T')`,
		`INSERT INTO database_events VALUES ('ORDERS', 'ON_INSERT', 'SUB_A', 'F', 'STATUS', 'T', 'OPEN', 'CLOSED', NULL, 'F', NULL, NULL)`)
	b := createSQLite(t, "b", eventsDDL, testEventsDDL,
		`INSERT INTO events VALUES ('TPL', 'EVT', 'GOSUB FOO : Subroutine("BAR")', 'T', 'T')`)

	c := New(10*time.Second, 2, testLogger())
	inputs, diags := c.CollectEvents(context.Background(), []domain.SourceConfig{
		{Name: "A", Driver: domain.DriverSQLite, DSN: a},
		{Name: "B", Driver: domain.DriverSQLite, DSN: b},
	})
	require.Len(t, inputs, 2)

	assert.Equal(t, 1, inputs["A"][domain.RecordEvents].Len(), "disabled events are filtered")
	assert.Nil(t, inputs["B"][domain.RecordDatabaseEvents], "missing table is a failed record set")
	assert.Equal(t, domain.DatabaseEventColumns, inputs["A"][domain.RecordDatabaseEvents].Columns)
	assert.Equal(t, "STATUS", inputs["A"][domain.RecordDatabaseEvents].Value(0, "field_name_1"))
	require.Len(t, diags, 1)
	assert.Equal(t, "B", diags[0].Source)
	assert.Equal(t, domain.RecordDatabaseEvents, diags[0].Object)

	res, err := compare.CompareEvents(inputs)
	require.NoError(t, err)
	require.Len(t, res.Table.Records, 1)
	r := res.Table.Records[0]
	assert.Equal(t, "Calls_List Mismatch", r.Type)
	assert.Equal(t, map[string]string{"A": "FOO", "B": "BAR, FOO"}, r.Values)
}

func TestCollectSchemas_CSVSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"TABLE_NAME,COLUMN_NAME,DATA_TYPE,DATA_LENGTH,NULLABLE\n"+
			"ORDERS,ID,NUMBER,22,N\n"+
			"ORDERS,NAME,VARCHAR2,40,Y\n"), 0o644))

	c := New(30*time.Second, 1, testLogger())
	frames, diags := c.CollectSchemas(context.Background(), []domain.SourceConfig{
		{Name: "SNAP", Driver: domain.DriverCSV, DSN: path},
	})
	require.Empty(t, diags)
	f := frames["SNAP"]
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "ORDERS", f.Value(0, "TABLE_NAME"))
	assert.Equal(t, "22", f.Value(0, "DATA_LENGTH"))
}

func TestPing(t *testing.T) {
	path := createSQLite(t, "ping", `CREATE TABLE t (id INTEGER)`)
	c := New(time.Second, 1, testLogger())
	assert.NoError(t, c.Ping(context.Background(), domain.SourceConfig{Name: "P", Driver: domain.DriverSQLite, DSN: path}))
	assert.Error(t, c.Ping(context.Background(), domain.SourceConfig{Name: "P", Driver: "nope"}))
}
