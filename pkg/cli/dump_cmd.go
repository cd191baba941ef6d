package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"schemasync/internal/collect"
	"schemasync/internal/report"
)

func newSourcesDumpCmd(a *app) *cobra.Command {
	var (
		tables  []string
		all     bool
		clob    bool
		maxRows int
		formats string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "dump <name>",
		Short: "Export one source's column catalog and table rows",
		Long: `Reads the column catalog of a single source and writes it as <name>_dump_catalog.
Rows of the tables named by --tables, of every table (--all, minus TABLES_TO_EXCLUDE)
or of every table holding a CLOB column (--clob, minus TABLES_WITH_CLOB_TO_EXCLUDE)
are written as one file or sheet per table, capped at --max-rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.cfg.Source(args[0])
			if err != nil {
				return err
			}
			fileFormats, err := report.ParseFormats(formats)
			if err != nil {
				return err
			}
			if outDir != "" {
				a.cfg.OutputDir = outDir
			}
			if !cmd.Flags().Changed("max-rows") {
				maxRows = a.cfg.MaxRecordsPerTable
			}

			req := collect.DumpRequest{Tables: tables, All: all, Clob: clob, MaxRows: maxRows}
			switch {
			case all:
				req.Exclude = a.cfg.TableExclude
			case clob:
				req.Exclude = a.cfg.ClobTableExclude
			}

			base := strings.ToLower(src.Name) + "_dump"
			if err := a.openLogFile(base); err != nil {
				return err
			}
			defer a.closeLogFile()

			c := collect.New(a.cfg.CollectTimeout, a.cfg.Parallelism, a.logger)
			d, diags, err := c.Dump(cmd.Context(), src, req)
			if err != nil {
				return err
			}

			r := report.NewDumpReport(d, diags)
			paths, err := report.WriteFiles(a.cfg.OutputDir, base, r, fileFormats, a.separator())
			if err != nil {
				return err
			}

			report.FormatDiagnostics(a.stderr, r.Diagnostics, a.colorDisabled(a.stderr))
			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(w, map[string]any{
					"source":  d.Source,
					"catalog": d.Catalog.Len(),
					"tables":  len(d.Tables),
					"files":   paths,
				})
			}
			for _, p := range paths {
				_, _ = fmt.Fprintf(w, "wrote %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tables, "tables", nil, "Tables whose rows are exported")
	cmd.Flags().BoolVar(&all, "all", false, "Export every table of the catalog")
	cmd.Flags().BoolVar(&clob, "clob", false, "Export every table with a CLOB or NCLOB column")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Rows per table, 0 for no cap (default MAX_RECORDS_PER_TABLE)")
	cmd.Flags().StringVar(&formats, "format", "csv,xlsx", "Files to write: csv, xlsx")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (overrides DOCS_OUTPUT_DIR)")
	return cmd
}
