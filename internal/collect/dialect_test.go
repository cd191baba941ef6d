package collect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/domain"
)

func TestDialectFor(t *testing.T) {
	for _, d := range domain.Drivers {
		_, err := DialectFor(d)
		assert.NoError(t, err, d)
	}
	_, err := DialectFor("mssql")
	var invalid *domain.ValidationError
	assert.ErrorAs(t, err, &invalid)
}

func TestDSN(t *testing.T) {
	src := domain.SourceConfig{Host: "db", User: "reader", Password: "p@ss", ServiceName: "APP"}

	tests := []struct {
		driver string
		check  func(t *testing.T, dsn string)
	}{
		{domain.DriverOracle, func(t *testing.T, dsn string) {
			assert.True(t, strings.HasPrefix(dsn, "oracle://"), dsn)
			assert.Contains(t, dsn, "db:1521")
		}},
		{domain.DriverPostgres, func(t *testing.T, dsn string) {
			assert.Equal(t, "postgres://reader:p%40ss@db:5432/APP", dsn)
		}},
		{domain.DriverMySQL, func(t *testing.T, dsn string) {
			assert.Contains(t, dsn, "reader:p@ss@tcp(db:3306)/APP")
			assert.Contains(t, dsn, "parseTime=true")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			require.NoError(t, err)
			dsn, err := d.DSN(src)
			require.NoError(t, err)
			tt.check(t, dsn)
		})
	}
}

func TestDSN_ExplicitWins(t *testing.T) {
	d, _ := DialectFor(domain.DriverPostgres)
	dsn, err := d.DSN(domain.SourceConfig{DSN: "postgres://x/y?sslmode=disable", Host: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://x/y?sslmode=disable", dsn)
}

func TestSQLiteDSN_ReadOnly(t *testing.T) {
	d := sqliteDialect{}
	dsn, _ := d.DSN(domain.SourceConfig{DSN: "/data/app.db"})
	assert.Equal(t, "file:/data/app.db?mode=ro", dsn)
	dsn, _ = d.DSN(domain.SourceConfig{DSN: "file:app.db?cache=shared"})
	assert.Equal(t, "file:app.db?cache=shared", dsn)
}

func TestOracleSchemaQuery_OwnerDefaultsToUser(t *testing.T) {
	q, args, err := oracleDialect{}.SchemaQuery(domain.SourceConfig{User: "app_reader"})
	require.NoError(t, err)
	assert.Contains(t, q, "SYS.ALL_TAB_COLS")
	assert.Equal(t, []any{"APP_READER"}, args)
}

func TestEventSQL(t *testing.T) {
	q, err := eventSQL("APP", domain.RecordTestEvents)
	require.NoError(t, err)
	assert.Contains(t, q, "FROM APP.test_events e")
	assert.Contains(t, q, "e.enabled_flag = 'T' AND e.formula_flag = 'T'")

	q, err = eventSQL("", domain.RecordDatabaseEvents)
	require.NoError(t, err)
	assert.Contains(t, q, "FROM database_events db")
	assert.Contains(t, q, "SELECT db.table_name, db.event_name, db.sub_name, db.or_fields, db.field_name_1, db.has_value_1")
	assert.Contains(t, q, "db.changed_from_2, db.changed_to_2\nFROM")

	_, err = eventSQL("APP; DROP TABLE x", domain.RecordEvents)
	assert.Error(t, err)

	_, err = eventSQL("APP", "other")
	assert.Error(t, err)
}

func TestCSVEventQuery(t *testing.T) {
	q, _, err := csvDialect{}.EventQuery(domain.SourceConfig{DSN: "/snap/o'neil"}, domain.RecordEvents)
	require.NoError(t, err)
	assert.Contains(t, q, "read_csv_auto('/snap/o''neil/events.csv'")
}
