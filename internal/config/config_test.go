package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/domain"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"KEY_ID", "SECRET", "ENDPOINT", "REGION", "BUCKET", "S3_PREFIX",
		"DOCS_OUTPUT_DIR", "CSV_SEPARATOR", "SOURCES_FILE", "ARCHIVE_DB_PATH",
		"COLLECT_TIMEOUT", "COLLECT_PARALLELISM", "TABLE_REGEX", "LOG_LEVEL",
		"MAX_RECORDS_PER_TABLE", "TABLES_WITH_CLOB_TO_EXCLUDE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Nil(t, cfg.S3KeyID)
	assert.Nil(t, cfg.S3Bucket)
	assert.Equal(t, "docs", cfg.OutputDir)
	assert.Equal(t, "|", cfg.CSVSeparator)
	assert.Equal(t, "schema_comparison", cfg.SchemaReportFile)
	assert.Equal(t, "events_comparison", cfg.EventsReportFile)
	assert.Equal(t, "schemasync.sqlite", cfg.ArchivePath)
	assert.Equal(t, 2*time.Minute, cfg.CollectTimeout)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1000, cfg.MaxRecordsPerTable)
	assert.Empty(t, cfg.ClobTableExclude)
}

func TestLoadFromEnv_WithS3(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("KEY_ID", "testkey")
	t.Setenv("SECRET", "testsecret")
	t.Setenv("ENDPOINT", "s3.example.com")
	t.Setenv("REGION", "us-east-1")
	t.Setenv("BUCKET", "reports")
	t.Setenv("S3_PREFIX", "/schemasync/")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.HasS3Config())
	require.NotNil(t, cfg.S3KeyID)
	assert.Equal(t, "testkey", *cfg.S3KeyID)
	assert.Equal(t, "schemasync", cfg.S3Prefix)
}

func TestLoadFromEnv_PartialS3Warns(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("KEY_ID", "testkey")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.HasS3Config(), "partial S3 config should return false")
	assert.Contains(t, cfg.Warnings, "S3 publishing is partially configured; KEY_ID, SECRET, ENDPOINT, REGION and BUCKET are all required")
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"timeout", "COLLECT_TIMEOUT", "soon"},
		{"parallelism", "COLLECT_PARALLELISM", "0"},
		{"separator", "CSV_SEPARATOR", "||"},
		{"regex", "TABLE_REGEX", "("},
		{"max records", "MAX_RECORDS_PER_TABLE", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFromEnv_Filters(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TABLE_INCLUDE", "APP_*, ORD*")
	t.Setenv("TABLES_TO_EXCLUDE", "*_TMP,,")
	t.Setenv("TABLES_WITH_CLOB_TO_EXCLUDE", "DOCS, BLOBS")
	t.Setenv("MAX_RECORDS_PER_TABLE", "50")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"DOCS", "BLOBS"}, cfg.ClobTableExclude)
	assert.Equal(t, 50, cfg.MaxRecordsPerTable)
	assert.Equal(t, []string{"APP_*", "ORD*"}, cfg.TableInclude)
	assert.Equal(t, []string{"*_TMP"}, cfg.TableExclude)
}

func TestLoadFromEnv_SourcesFileOverridesEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DES_COR_V7_NAME", "DES_COR")
	t.Setenv("DES_COR_V7_HOST", "env-host")
	t.Setenv("DES_COR_V7_USER", "reader")

	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: des_cor
    driver: postgres
    dsn: postgres://file-host/db
  - name: LOCAL
    driver: sqlite
    dsn: local.db
`), 0o644))
	t.Setenv("SOURCES_FILE", path)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	src, err := cfg.Source("DES_COR")
	require.NoError(t, err)
	assert.Equal(t, domain.DriverPostgres, src.Driver)
	assert.Equal(t, path, src.Origin)

	_, err = cfg.Source("LOCAL")
	assert.NoError(t, err)
}

func TestLoadGroupedSources(t *testing.T) {
	sources, warnings := LoadGroupedSources([]string{
		"DES_COR_V7_NAME=DES_COR",
		"DES_COR_V7_HOST=db1",
		"DES_COR_V7_PORT=1521",
		"DES_COR_V7_SERVICE_NAME=CORDB",
		"DES_COR_V7_USER=reader",
		"DES_COR_V7_PASSWORD=secret=with=equals",
		"DES_COR_V7_OWNER=APP",
		"PRO_SIN_V8_NAME=PRO_SIN",
		"PRO_SIN_V8_DRIVER=Postgres",
		"PRO_SIN_V8_DSN=postgres://x",
		"PRE_CAR_V6_HOST=orphan",
		"DEV_COR_V7_NAME=ignored",
		"DES_COR_V9_NAME=ignored",
		"PATH=/usr/bin",
	})

	require.Len(t, sources, 2)
	assert.Equal(t, domain.SourceConfig{
		Name:        "DES_COR",
		Driver:      domain.DriverOracle,
		Host:        "db1",
		Port:        1521,
		ServiceName: "CORDB",
		User:        "reader",
		Password:    "secret=with=equals",
		Owner:       "APP",
		Origin:      "env:DES_COR_V7",
	}, sources[0])
	assert.Equal(t, "PRO_SIN", sources[1].Name)
	assert.Equal(t, domain.DriverPostgres, sources[1].Driver)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "PRE_CAR_V6")
}

func TestSelectSources(t *testing.T) {
	cfg := &Config{Sources: []domain.SourceConfig{{Name: "A"}, {Name: "B"}, {Name: "C"}}}

	all, err := cfg.SelectSources(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	picked, err := cfg.SelectSources([]string{"c", "A"})
	require.NoError(t, err)
	assert.Equal(t, "C", picked[0].Name)
	assert.Equal(t, "A", picked[1].Name)

	_, err = cfg.SelectSources([]string{"Z"})
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# comment\nexport TEST_DOTENV_KEY=\"test value\"\n\nBROKEN LINE\n"), 0o644))
	t.Setenv("TEST_DOTENV_KEY", "")
	require.NoError(t, os.Unsetenv("TEST_DOTENV_KEY"))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "test value", os.Getenv("TEST_DOTENV_KEY"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("TEST_PRECEDENCE_KEY"))
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"} {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel().String(), in)
	}
}
