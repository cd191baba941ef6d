package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"schemasync/internal/collect"
	"schemasync/internal/config"
	"schemasync/internal/domain"
	"schemasync/internal/report"
	"schemasync/internal/service/comparison"
	"schemasync/internal/store"
)

var (
	version = "dev"
	commit  = "none"
)

// errDifferences signals a successful comparison that found differences.
// Execute maps it to exit code 2.
var errDifferences = errors.New("differences found")

// Execute runs the CLI and returns the process exit code: 0 when sources are
// identical, 2 when differences were found, 1 on error.
func Execute() int {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDifferences):
		return 2
	}

	output, _ := rootCmd.PersistentFlags().GetString("output")
	if output == "json" {
		_ = printJSON(os.Stdout, map[string]any{"error": err.Error()})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

// app holds state resolved once per invocation in PersistentPreRunE.
type app struct {
	envFile     string
	logLevel    string
	sourcesFile string
	output      string
	noColor     bool

	cfg     *config.Config
	logger  *slog.Logger
	stderr  io.Writer
	logFile *os.File
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "schemasync",
		Short:         "Compare database schemas and event definitions across environments",
		Long:          "Collects table/column metadata and event formulas from several sources and reports every difference between them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&a.sourcesFile, "sources-file", "", "YAML sources file (overrides SOURCES_FILE)")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "Output format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newCompareCmd(a))
	rootCmd.AddCommand(newFormulaCmd())
	rootCmd.AddCommand(newSourcesCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	if err := validateOutputFormat(a.output); err != nil {
		return err
	}
	a.stderr = cmd.ErrOrStderr()

	if a.envFile != "" {
		// The default .env is optional; an explicit --env-file must exist.
		if cmd.Flags().Changed("env-file") {
			if _, err := os.Stat(a.envFile); err != nil {
				return fmt.Errorf("env file: %w", err)
			}
		}
		if err := config.LoadDotEnv(a.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	if a.sourcesFile != "" {
		if err := os.Setenv("SOURCES_FILE", a.sourcesFile); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		if err := os.Setenv("LOG_LEVEL", a.logLevel); err != nil {
			return err
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		a.logger.Warn(w)
	}
	return nil
}

// openLogFile tees the log into <OutputDir>/<base>.log as JSON when
// LOG_TO_FILE is enabled. Call closeLogFile when the command finishes.
func (a *app) openLogFile(base string) error {
	if !a.cfg.LogToFile {
		return nil
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(a.cfg.OutputDir, base+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // path from configured output dir
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logFile = f

	opts := &slog.HandlerOptions{Level: a.cfg.SlogLevel()}
	a.logger = slog.New(teeHandler{
		slog.NewTextHandler(a.stderr, opts),
		slog.NewJSONHandler(f, opts),
	})
	return nil
}

func (a *app) closeLogFile() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// newService wires the collector, the optional run archive, and the optional
// S3 publisher. The returned cleanup closes the archive.
func (a *app) newService(publish bool, publishDest string) (*comparison.Service, func(), error) {
	collector := collect.New(a.cfg.CollectTimeout, a.cfg.Parallelism, a.logger)

	var (
		runs    domain.RunRepository
		cleanup = func() {}
	)
	if a.cfg.ArchiveEnabled {
		archive, db, err := store.OpenArchive(a.cfg.ArchivePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open run archive: %w", err)
		}
		runs = archive
		cleanup = func() { _ = db.Close() }
	}

	svc := comparison.NewService(collector, runs, a.logger)
	if publish {
		pub, err := report.NewPublisher(a.cfg, publishDest, a.logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		svc.SetPublisher(pub)
	}
	return svc, cleanup, nil
}

// openArchive opens the run archive regardless of ARCHIVE_ENABLED, for
// history commands.
func (a *app) openArchive() (*comparison.Service, func(), error) {
	archive, db, err := store.OpenArchive(a.cfg.ArchivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open run archive: %w", err)
	}
	svc := comparison.NewService(nil, archive, a.logger)
	return svc, func() { _ = db.Close() }, nil
}

// separator returns the configured CSV separator rune.
func (a *app) separator() rune {
	return []rune(a.cfg.CSVSeparator)[0]
}

func (a *app) colorDisabled(w io.Writer) bool {
	return a.noColor || !isTerminal(w)
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch strings.ToLower(args[0]) {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
