package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recent engine runs",
		Long: `List recent imports, match passes, and merge passes from the audit
log, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum runs to show")

	return cmd
}

func runReport(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		runs, err := d.ReportHandler.HandleRecent(ctx, limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tRUN\tDETAILS")
		for i := range runs {
			r := &runs[i]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.CreatedAt.Format("2006-01-02 15:04"),
				r.Action,
				truncate(r.RunID, 12),
				truncate(formatDetails(r.Details), 60),
			)
		}
		w.Flush()

		return nil
	})
}

func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	b, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(b)
}
