package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/domain"
)

func TestParseSources(t *testing.T) {
	t.Setenv("TEST_SRC_PASSWORD", "s3cret")

	sources, err := ParseSources("sources.yaml", []byte(`
sources:
  - name: DES_COR
    driver: Oracle
    host: db.example.com
    port: 1521
    service_name: CORDB
    user: reader
    password: ${TEST_SRC_PASSWORD}
    owner: APP
  - name: SNAPSHOT
    driver: csv
    dsn: ./exports/pro.csv
`))
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, domain.DriverOracle, sources[0].Driver)
	assert.Equal(t, "s3cret", sources[0].Password)
	assert.Equal(t, "reader@db.example.com:1521/CORDB", sources[0].Address())
	assert.Equal(t, "sources.yaml", sources[0].Origin)
	assert.Equal(t, "./exports/pro.csv", sources[1].Address())
}

func TestParseSources_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "sources:\n  - name: A\n    driver: sqlite\n    dsn: a.db\n    passwd: x\n",
			wantErr: "passwd",
		},
		{
			name:    "unsupported driver",
			yaml:    "sources:\n  - name: A\n    driver: mssql\n    dsn: x\n",
			wantErr: "unsupported driver",
		},
		{
			name:    "missing host",
			yaml:    "sources:\n  - name: A\n    driver: oracle\n    user: u\n",
			wantErr: "host or dsn",
		},
		{
			name:    "file driver needs dsn",
			yaml:    "sources:\n  - name: A\n    driver: duckdb\n",
			wantErr: "dsn is required",
		},
		{
			name:    "duplicate",
			yaml:    "sources:\n  - name: A\n    driver: sqlite\n    dsn: a.db\n  - name: a\n    driver: sqlite\n    dsn: b.db\n",
			wantErr: "duplicate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSources("test.yaml", []byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSourcesFile_Missing(t *testing.T) {
	_, err := LoadSourcesFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateSources(t *testing.T) {
	issues := ValidateSources([]domain.SourceConfig{
		{Name: "A", Driver: "sqlite", DSN: "a.db"},
		{Name: "a", Driver: "sqlite", DSN: "b.db"},
		{Name: "B", Driver: "oracle", Host: "h"},
	})
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0], "duplicate")
	assert.Contains(t, issues[1], "user is required")

	assert.Equal(t, []string{"at least 2 sources are required for comparison, got 0"}, ValidateSources(nil))
}
