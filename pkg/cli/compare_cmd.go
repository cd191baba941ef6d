package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"schemasync/internal/compare"
	"schemasync/internal/report"
	"schemasync/internal/service/comparison"
)

// compareFlags are shared by the compare subcommands and watch.
type compareFlags struct {
	sources   []string
	formats   string
	outDir    string
	include   []string
	exclude   []string
	regex     string
	archive   bool
	publish   bool
	publishTo string
}

func (f *compareFlags) register(fs *pflag.FlagSet, withFilters bool) {
	fs.StringSliceVar(&f.sources, "sources", nil, "Source names to compare (default: all configured)")
	fs.StringVar(&f.formats, "format", "csv,xlsx", "Report files to write: csv, xlsx, json (empty writes none)")
	fs.StringVar(&f.outDir, "out-dir", "", "Report directory (overrides DOCS_OUTPUT_DIR)")
	fs.BoolVar(&f.archive, "archive", false, "Archive the run (also enabled by ARCHIVE_ENABLED)")
	fs.BoolVar(&f.publish, "publish", false, "Upload written reports to S3")
	fs.StringVar(&f.publishTo, "publish-to", "", "Upload destination s3://bucket/prefix (implies --publish)")
	if withFilters {
		fs.StringSliceVar(&f.include, "include", nil, "Only compare tables matching these glob patterns")
		fs.StringSliceVar(&f.exclude, "exclude", nil, "Skip tables matching these glob patterns")
		fs.StringVar(&f.regex, "regex", "", "Only compare tables matching this regular expression")
	}
}

// request resolves flags against the loaded configuration.
func (f *compareFlags) request(a *app, kind report.Kind) (comparison.Request, error) {
	if f.outDir != "" {
		a.cfg.OutputDir = f.outDir
	}
	if f.archive {
		a.cfg.ArchiveEnabled = true
	}
	if f.publishTo != "" {
		f.publish = true
	}

	sources, err := a.cfg.SelectSources(f.sources)
	if err != nil {
		return comparison.Request{}, err
	}
	formats, err := report.ParseFormats(f.formats)
	if err != nil {
		return comparison.Request{}, err
	}

	req := comparison.Request{
		Kind:      kind,
		Sources:   sources,
		Formats:   formats,
		OutputDir: a.cfg.OutputDir,
		BaseName:  a.cfg.SchemaReportFile,
		Separator: a.separator(),
	}
	if kind == report.KindEvents {
		req.BaseName = a.cfg.EventsReportFile
		return req, nil
	}

	include, exclude, regex := a.cfg.TableInclude, a.cfg.TableExclude, a.cfg.TableRegex
	if len(f.include) > 0 {
		include = f.include
	}
	if len(f.exclude) > 0 {
		exclude = f.exclude
	}
	if f.regex != "" {
		regex = f.regex
	}
	req.Filter, err = compare.NewTableFilter(include, exclude, regex)
	if err != nil {
		return comparison.Request{}, err
	}
	return req, nil
}

func newCompareCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare sources and report differences",
		Long: `Collects from every selected source and prints the differences.
Exit code is 0 when all sources are identical, 2 when differences were found, and 1 on error.`,
	}

	cmd.AddCommand(newCompareKindCmd(a, report.KindSchema, "schema", "Compare table and column metadata"))
	cmd.AddCommand(newCompareKindCmd(a, report.KindEvents, "events", "Compare event formulas and database events"))

	return cmd
}

func newCompareKindCmd(a *app, kind report.Kind, use, short string) *cobra.Command {
	var flags compareFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request(a, kind)
			if err != nil {
				return err
			}
			if err := a.openLogFile(req.BaseName); err != nil {
				return err
			}
			defer a.closeLogFile()

			svc, cleanup, err := a.newService(flags.publish, flags.publishTo)
			if err != nil {
				return err
			}
			defer cleanup()

			out, runErr := svc.Run(cmd.Context(), req)
			if out != nil && out.Report.Table != nil {
				if err := writeReport(cmd, a, out.Report); err != nil {
					return err
				}
			} else if out != nil && getOutputFormat(cmd) != "json" {
				report.FormatDiagnostics(a.stderr, out.Report.Diagnostics, a.colorDisabled(a.stderr))
			}
			if runErr != nil {
				return runErr
			}

			if len(out.Run.Reports) > 0 && getOutputFormat(cmd) != "json" {
				for _, p := range out.Run.Reports {
					_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", p)
				}
			}
			if out.Report.HasDifferences() {
				return errDifferences
			}
			return nil
		},
	}

	flags.register(cmd.Flags(), kind == report.KindSchema)
	return cmd
}

func writeReport(cmd *cobra.Command, a *app, r *report.Report) error {
	w := cmd.OutOrStdout()
	if getOutputFormat(cmd) == "json" {
		return report.FormatJSON(w, r)
	}
	report.FormatText(w, r, a.colorDisabled(w))
	report.FormatDiagnostics(a.stderr, r.Diagnostics, a.colorDisabled(a.stderr))
	return nil
}
