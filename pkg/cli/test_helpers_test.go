package cli

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// isolateEnv clears every variable the CLI reads and moves into a temp dir
// so no stray .env or sources file is picked up.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if groupedVar(key) {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
	for _, key := range []string{
		"SOURCES_FILE", "DOCS_OUTPUT_DIR", "CSV_SEPARATOR", "LOG_TO_FILE", "LOG_LEVEL",
		"ARCHIVE_ENABLED", "ARCHIVE_DB_PATH", "TABLE_INCLUDE", "TABLES_TO_EXCLUDE", "TABLE_REGEX",
		"WATCH_SCHEDULE", "KEY_ID", "SECRET", "ENDPOINT", "REGION", "BUCKET", "S3_PREFIX",
		"COLLECT_TIMEOUT", "COLLECT_PARALLELISM", "MAX_RECORDS_PER_TABLE", "TABLES_WITH_CLOB_TO_EXCLUDE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_TO_FILE", "false")
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func groupedVar(key string) bool {
	for _, p := range []string{"DES_", "PRE_", "PRO_"} {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// runCLI executes the root command with args and returns stdout, stderr,
// and the command error.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// createSQLite builds a SQLite file in dir from statements and returns its path.
func createSQLite(t *testing.T, dir, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(dir, name+".sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}

// writeSourcesFile writes a sources YAML file pointing at SQLite files.
func writeSourcesFile(t *testing.T, dir string, paths map[string]string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("sources:\n")
	for _, name := range []string{"DEV", "PRO"} {
		if p, ok := paths[name]; ok {
			b.WriteString("  - name: " + name + "\n    driver: sqlite\n    dsn: " + p + "\n")
		}
	}
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}
