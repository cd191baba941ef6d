package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"schemasync/internal/formula"
)

func newFormulaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Inspect event formulas",
	}
	cmd.AddCommand(newFormulaExtractCmd())
	return cmd
}

func newFormulaExtractCmd() *cobra.Command {
	var refs bool

	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "List the subroutines a formula calls",
		Long:  "Reads formula text from a file, or stdin when the argument is '-' or omitted, and prints the distinct called subroutine names.",
		Args:  cobra.MaximumNArgs(1),
		// Works offline; no config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if refs {
				found := formula.Scan(text)
				if getOutputFormat(cmd) == "json" {
					if found == nil {
						found = []formula.Reference{}
					}
					return printJSON(w, found)
				}
				rows := make([][]string, len(found))
				for i, r := range found {
					rows[i] = []string{strconv.Itoa(r.Line), string(r.Form), r.Name}
				}
				printTable(w, []string{"line", "form", "name"}, rows)
				return nil
			}

			names := formula.Extract(text)
			if getOutputFormat(cmd) == "json" {
				return printJSON(w, map[string]any{
					"calls_list":  formula.Join(names),
					"calls_count": len(names),
				})
			}
			_, _ = fmt.Fprintln(w, formula.Join(names))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refs, "refs", false, "List every call site with its line and form")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read formula: %w", err)
	}
	return string(data), nil
}
