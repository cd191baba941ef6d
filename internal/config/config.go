// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"schemasync/internal/domain"
)

// Config holds the configuration for collection, comparison, reporting, and
// the optional S3 publishing and run archive.
type Config struct {
	// S3 fields are optional; nil when not configured.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string
	S3Bucket   *string
	S3Prefix   string // key prefix for published reports

	OutputDir        string // report directory (default "docs")
	CSVSeparator     string // CSV field separator (default "|")
	SchemaReportFile string // schema report base name (default "schema_comparison")
	EventsReportFile string // events report base name (default "events_comparison")
	LogToFile        bool   // also write the run log into OutputDir

	SourcesFile string // optional YAML sources file
	Sources     []domain.SourceConfig

	ArchivePath    string // path to SQLite run archive (default "schemasync.sqlite")
	ArchiveEnabled bool   // archive every run (default false)

	CollectTimeout time.Duration // per-source collection timeout (default 2m)
	Parallelism    int           // concurrent source collections (default 8)

	// Table name filters applied before schema comparison.
	TableInclude []string
	TableExclude []string
	TableRegex   string

	WatchSchedule string // cron expression for the watch command

	// Source dumps.
	MaxRecordsPerTable int      // row cap per dumped table (default 1000)
	ClobTableExclude   []string // tables skipped by the CLOB dump

	LogLevel string // log level: debug, info, warn, error (default "info")

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasS3Config returns true if all required S3 fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Endpoint != nil && c.S3Region != nil && c.S3Bucket != nil
}

// Source returns the configured source with the given name.
func (c *Config) Source(name string) (domain.SourceConfig, error) {
	for _, s := range c.Sources {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return domain.SourceConfig{}, domain.ErrNotFound("source %q not configured", name)
}

// SelectSources returns the named sources in the given order, or every
// configured source when names is empty.
func (c *Config) SelectSources(names []string) ([]domain.SourceConfig, error) {
	if len(names) == 0 {
		return c.Sources, nil
	}
	out := make([]domain.SourceConfig, 0, len(names))
	for _, n := range names {
		s, err := c.Source(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ReportPath joins the output directory with a report file name.
func (c *Config) ReportPath(name string) string {
	return filepath.Join(c.OutputDir, name)
}

// LoadFromEnv loads configuration from environment variables. Connection
// sources come from grouped <ENV>_<COMPLEX>_<VERSION>_<VAR> variables and,
// when SOURCES_FILE is set, from a YAML sources file; file entries override
// env entries with the same name.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		S3Prefix:         strings.Trim(os.Getenv("S3_PREFIX"), "/"),
		OutputDir:        os.Getenv("DOCS_OUTPUT_DIR"),
		CSVSeparator:     os.Getenv("CSV_SEPARATOR"),
		SchemaReportFile: os.Getenv("SCHEMA_COMPARISON_REPORT_FILE"),
		EventsReportFile: os.Getenv("EVENTS_COMPARISON_REPORT_FILE"),
		LogToFile:        parseBoolEnvDefault("LOG_TO_FILE", true),
		SourcesFile:      os.Getenv("SOURCES_FILE"),
		ArchivePath:      os.Getenv("ARCHIVE_DB_PATH"),
		ArchiveEnabled:   parseBoolEnvDefault("ARCHIVE_ENABLED", false),
		TableInclude:     splitList(os.Getenv("TABLE_INCLUDE")),
		TableExclude:     splitList(os.Getenv("TABLES_TO_EXCLUDE")),
		TableRegex:       os.Getenv("TABLE_REGEX"),
		WatchSchedule:    os.Getenv("WATCH_SCHEDULE"),
		ClobTableExclude: splitList(os.Getenv("TABLES_WITH_CLOB_TO_EXCLUDE")),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}

	if v := os.Getenv("COLLECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("COLLECT_TIMEOUT: %w", err)
		}
		cfg.CollectTimeout = d
	}
	if v := os.Getenv("COLLECT_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("COLLECT_PARALLELISM must be a positive integer, got %q", v)
		}
		cfg.Parallelism = n
	}

	if v := os.Getenv("MAX_RECORDS_PER_TABLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("MAX_RECORDS_PER_TABLE must be a non-negative integer, got %q", v)
		}
		cfg.MaxRecordsPerTable = n
	} else {
		cfg.MaxRecordsPerTable = 1000
	}

	// S3 fields are optional; only set if present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}
	if v := os.Getenv("BUCKET"); v != "" {
		cfg.S3Bucket = &v
	}

	// Defaults
	if cfg.OutputDir == "" {
		cfg.OutputDir = "docs"
	}
	if cfg.CSVSeparator == "" {
		cfg.CSVSeparator = "|"
	}
	if len([]rune(cfg.CSVSeparator)) != 1 {
		return nil, fmt.Errorf("CSV_SEPARATOR must be a single character, got %q", cfg.CSVSeparator)
	}
	if cfg.SchemaReportFile == "" {
		cfg.SchemaReportFile = "schema_comparison"
	}
	if cfg.EventsReportFile == "" {
		cfg.EventsReportFile = "events_comparison"
	}
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = "schemasync.sqlite"
	}
	if cfg.CollectTimeout == 0 {
		cfg.CollectTimeout = 2 * time.Minute
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 8
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TableRegex != "" {
		if _, err := regexp.Compile(cfg.TableRegex); err != nil {
			return nil, fmt.Errorf("TABLE_REGEX: %w", err)
		}
	}

	envSources, warnings := LoadGroupedSources(os.Environ())
	cfg.Warnings = append(cfg.Warnings, warnings...)
	cfg.Sources = envSources

	if cfg.SourcesFile != "" {
		fileSources, err := LoadSourcesFile(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sources = mergeSources(cfg.Sources, fileSources)
	}

	if len(cfg.Sources) == 0 {
		cfg.Warnings = append(cfg.Warnings, "no sources configured; set <ENV>_<COMPLEX>_<VERSION>_NAME variables or SOURCES_FILE")
	}
	if (cfg.S3KeyID != nil || cfg.S3Bucket != nil) && !cfg.HasS3Config() {
		cfg.Warnings = append(cfg.Warnings, "S3 publishing is partially configured; KEY_ID, SECRET, ENDPOINT, REGION and BUCKET are all required")
	}

	return cfg, nil
}

// groupedVarPattern matches <ENV>_<COMPLEX>_<VERSION>_<VAR> connection
// variables, e.g. DES_COR_V7_HOST.
var groupedVarPattern = regexp.MustCompile(
	`^(DES|PRE|PRO)_([A-Z]{2,3})_(V[6-8])_(NAME|HOST|PORT|SERVICE_NAME|USER|PASSWORD|OWNER|DRIVER|DSN)$`)

// LoadGroupedSources builds sources from KEY=VALUE environment entries.
// Each group needs a NAME; groups without one are reported as warnings. The
// driver defaults to oracle. Sources are returned sorted by name.
func LoadGroupedSources(environ []string) ([]domain.SourceConfig, []string) {
	groups := make(map[string]map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m := groupedVarPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		group := m[1] + "_" + m[2] + "_" + m[3]
		if groups[group] == nil {
			groups[group] = make(map[string]string)
		}
		groups[group][m[4]] = value
	}

	var (
		sources  []domain.SourceConfig
		warnings []string
	)
	for group, vars := range groups {
		name := strings.TrimSpace(vars["NAME"])
		if name == "" {
			warnings = append(warnings, fmt.Sprintf("connection group %s has no %s_NAME, ignored", group, group))
			continue
		}
		src := domain.SourceConfig{
			Name:        name,
			Driver:      strings.ToLower(vars["DRIVER"]),
			DSN:         vars["DSN"],
			Host:        vars["HOST"],
			ServiceName: vars["SERVICE_NAME"],
			User:        vars["USER"],
			Password:    vars["PASSWORD"],
			Owner:       vars["OWNER"],
			Origin:      "env:" + group,
		}
		if src.Driver == "" {
			src.Driver = domain.DriverOracle
		}
		if p := vars["PORT"]; p != "" {
			port, err := strconv.Atoi(p)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("connection group %s has invalid port %q, ignored", group, p))
			} else {
				src.Port = port
			}
		}
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, warnings
}

// mergeSources overlays b onto a by case-insensitive name, keeping a's order
// and appending new names from b.
func mergeSources(a, b []domain.SourceConfig) []domain.SourceConfig {
	out := append([]domain.SourceConfig(nil), a...)
	for _, s := range b {
		replaced := false
		for i := range out {
			if strings.EqualFold(out[i].Name, s.Name) {
				out[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, s)
		}
	}
	return out
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
