package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qrprint/internal/preflight"
	"qrprint/internal/printing"
	"qrprint/internal/textutil"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check directories, print commands, and class printers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			printers, err := ctx.loadPrinters()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			spooler := printing.New(printing.WithLogger(logger))
			results := preflight.RunAll(cmd.Context(), cfg, printers, spooler)

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, textutil.Ternary(r.Passed, "ok", "FAIL"), r.Detail})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Check", "Result", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			return nil
		},
	}
}
