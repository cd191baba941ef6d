package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"schemasync/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(newConfigShowCmd(a))
	return cmd
}

// effectiveConfig is the printable view of config.Config.
type effectiveConfig struct {
	OutputDir        string        `yaml:"output_dir" json:"output_dir"`
	CSVSeparator     string        `yaml:"csv_separator" json:"csv_separator"`
	SchemaReportFile string        `yaml:"schema_report_file" json:"schema_report_file"`
	EventsReportFile string        `yaml:"events_report_file" json:"events_report_file"`
	LogToFile        bool          `yaml:"log_to_file" json:"log_to_file"`
	LogLevel         string        `yaml:"log_level" json:"log_level"`
	ArchiveEnabled   bool          `yaml:"archive_enabled" json:"archive_enabled"`
	ArchivePath      string        `yaml:"archive_path" json:"archive_path"`
	CollectTimeout   string        `yaml:"collect_timeout" json:"collect_timeout"`
	Parallelism      int           `yaml:"parallelism" json:"parallelism"`
	TableInclude     []string      `yaml:"table_include,omitempty" json:"table_include,omitempty"`
	TableExclude     []string      `yaml:"table_exclude,omitempty" json:"table_exclude,omitempty"`
	TableRegex       string        `yaml:"table_regex,omitempty" json:"table_regex,omitempty"`
	WatchSchedule    string        `yaml:"watch_schedule,omitempty" json:"watch_schedule,omitempty"`
	MaxRecords       int           `yaml:"max_records_per_table" json:"max_records_per_table"`
	ClobExclude      []string      `yaml:"clob_table_exclude,omitempty" json:"clob_table_exclude,omitempty"`
	S3               *effectiveS3  `yaml:"s3,omitempty" json:"s3,omitempty"`
	Sources          []shownSource `yaml:"sources" json:"sources"`
}

type effectiveS3 struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Region   string `yaml:"region" json:"region"`
	Bucket   string `yaml:"bucket" json:"bucket"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	KeyID    string `yaml:"key_id" json:"key_id"`
	Secret   string `yaml:"secret" json:"secret"`
}

type shownSource struct {
	Name     string `yaml:"name" json:"name"`
	Driver   string `yaml:"driver" json:"driver"`
	Address  string `yaml:"address" json:"address"`
	Owner    string `yaml:"owner,omitempty" json:"owner,omitempty"`
	User     string `yaml:"user,omitempty" json:"user,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	Origin   string `yaml:"origin,omitempty" json:"origin,omitempty"`
}

func newEffectiveConfig(cfg *config.Config, reveal bool) effectiveConfig {
	mask := maskSecret
	if reveal {
		mask = func(s string) string { return s }
	}

	out := effectiveConfig{
		OutputDir:        cfg.OutputDir,
		CSVSeparator:     cfg.CSVSeparator,
		SchemaReportFile: cfg.SchemaReportFile,
		EventsReportFile: cfg.EventsReportFile,
		LogToFile:        cfg.LogToFile,
		LogLevel:         cfg.LogLevel,
		ArchiveEnabled:   cfg.ArchiveEnabled,
		ArchivePath:      cfg.ArchivePath,
		CollectTimeout:   cfg.CollectTimeout.String(),
		Parallelism:      cfg.Parallelism,
		TableInclude:     cfg.TableInclude,
		TableExclude:     cfg.TableExclude,
		TableRegex:       cfg.TableRegex,
		WatchSchedule:    cfg.WatchSchedule,
		MaxRecords:       cfg.MaxRecordsPerTable,
		ClobExclude:      cfg.ClobTableExclude,
		Sources:          make([]shownSource, 0, len(cfg.Sources)),
	}
	if cfg.HasS3Config() {
		out.S3 = &effectiveS3{
			Endpoint: *cfg.S3Endpoint,
			Region:   *cfg.S3Region,
			Bucket:   *cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KeyID:    mask(*cfg.S3KeyID),
			Secret:   mask(*cfg.S3Secret),
		}
	}
	for _, s := range cfg.Sources {
		out.Sources = append(out.Sources, shownSource{
			Name:     s.Name,
			Driver:   s.Driver,
			Address:  s.Address(),
			Owner:    s.Owner,
			User:     s.User,
			Password: mask(s.Password),
			Origin:   s.Origin,
		})
	}
	return out
}

func newConfigShowCmd(a *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eff := newEffectiveConfig(a.cfg, reveal)
			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(w, eff)
			}
			data, err := yaml.Marshal(eff)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = fmt.Fprint(w, string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show sensitive values unmasked")
	return cmd
}
