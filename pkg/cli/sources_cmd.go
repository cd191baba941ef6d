package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"schemasync/internal/collect"
	"schemasync/internal/compare"
	"schemasync/internal/config"
	"schemasync/internal/domain"
)

func newSourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List and check configured sources",
	}
	cmd.AddCommand(newSourcesListCmd(a))
	cmd.AddCommand(newSourcesValidateCmd(a))
	cmd.AddCommand(newSourcesDumpCmd(a))
	return cmd
}

func newSourcesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(w, a.cfg.Sources)
			}
			rows := make([][]string, len(a.cfg.Sources))
			for i, s := range a.cfg.Sources {
				rows[i] = []string{s.Name, s.Driver, s.Address(), s.Owner, s.Origin}
			}
			printTable(w, []string{"name", "driver", "address", "owner", "origin"}, rows)
			return nil
		},
	}
}

type sourceCheck struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func newSourcesValidateCmd(a *app) *cobra.Command {
	var (
		ping   bool
		schema bool
		names  []string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate source configuration, optionally connecting to each source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := a.cfg.SelectSources(names)
			if err != nil {
				return err
			}

			issues := config.ValidateSources(sources)
			checks := make([]sourceCheck, 0, len(sources))
			if ping {
				c := collect.New(a.cfg.CollectTimeout, a.cfg.Parallelism, a.logger)
				for _, s := range sources {
					check := sourceCheck{Name: s.Name, OK: true}
					if err := c.Ping(cmd.Context(), s); err != nil {
						check.OK, check.Error = false, err.Error()
					}
					checks = append(checks, check)
				}
			}

			if schema {
				c := collect.New(a.cfg.CollectTimeout, a.cfg.Parallelism, a.logger)
				frames, diags := c.CollectSchemas(cmd.Context(), sources)
				for _, d := range diags {
					if d.Severity == domain.SeverityError || d.Severity == domain.SeverityWarning {
						issues = append(issues, d.Source+": "+d.Message)
					}
				}
				issues = append(issues, compare.ValidateSchemaInputs(frames)...)
			}

			failed := len(issues) > 0
			for _, c := range checks {
				failed = failed || !c.OK
			}

			w := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				if err := printJSON(w, map[string]any{
					"valid":   !failed,
					"sources": len(sources),
					"issues":  issues,
					"checks":  checks,
				}); err != nil {
					return err
				}
			} else {
				for _, issue := range issues {
					_, _ = fmt.Fprintf(w, "  - %s\n", issue)
				}
				if len(checks) > 0 {
					rows := make([][]string, len(checks))
					for i, c := range checks {
						rows[i] = []string{c.Name, strconv.FormatBool(c.OK), c.Error}
					}
					printTable(w, []string{"name", "ok", "error"}, rows)
				}
				if !failed {
					_, _ = fmt.Fprintf(w, "%d source(s) are valid.\n", len(sources))
				}
			}

			if failed {
				return domain.ErrValidation("source configuration has problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Connect to each source")
	cmd.Flags().BoolVar(&schema, "schema", false, "Collect each schema and check it has the columns comparison needs")
	cmd.Flags().StringSliceVar(&names, "sources", nil, "Source names to check (default: all configured)")
	return cmd
}
