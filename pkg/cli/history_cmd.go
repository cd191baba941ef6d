package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"schemasync/internal/report"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived comparison runs",
	}
	cmd.AddCommand(newHistoryListCmd(a))
	cmd.AddCommand(newHistoryShowCmd(a))
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.openArchive()
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := svc.History(cmd.Context(), kind, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(w, runs)
			}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID, r.Kind, string(r.Status),
					r.StartedAt.Local().Format(time.DateTime),
					strconv.Itoa(len(r.Sources)),
					strconv.Itoa(r.Differences),
				}
			}
			printTable(w, []string{"id", "kind", "status", "started", "sources", "differences"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list runs of this kind (schema, events)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the differences of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := a.openArchive()
			if err != nil {
				return err
			}
			defer cleanup()

			run, r, err := svc.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return report.FormatJSON(w, r)
			}
			if run.Error != "" {
				_, _ = fmt.Fprintf(w, "Run %s failed: %s\n", run.ID, run.Error)
				return nil
			}
			report.FormatText(w, r, a.colorDisabled(w))
			return nil
		},
	}
}
