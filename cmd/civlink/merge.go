package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge persons whose names normalize identically",
		Long: `Group persons by normalized name and absorb each group into its
lowest-ID member. Relation rows are repointed at the survivor; rows the
survivor already holds are dropped instead of duplicated.

Use --dry-run to see the planned groups without changing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the merge without writing")

	return cmd
}

func runMerge(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.MergeHandler.HandleRun(ctx, dryRun)
		if err != nil {
			return fmt.Errorf("running merge pass: %w", err)
		}

		summary := result.Summary
		mode := "merged"
		if summary.DryRun {
			mode = "dry run"
		}
		fmt.Printf("Merge pass %s (%s): %d persons scanned, %d groups, %d absorbed\n",
			result.RunID, mode, summary.PersonsScanned, len(summary.Groups), summary.PersonsAbsorbed)

		if len(summary.Groups) == 0 {
			fmt.Println("No duplicate persons found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSURVIVOR\tABSORBED\tMOVED\tDROPPED")
		for i := range summary.Groups {
			g := &summary.Groups[i]
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\n",
				truncate(g.NormalizedName, 40), g.SurvivorID, formatIDs(g.AbsorbedIDs), g.Moved(), g.Dropped())
		}
		w.Flush()

		return nil
	})
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
