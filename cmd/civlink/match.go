package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/civicgraph/civlink/internal/application/handlers"
	"github.com/civicgraph/civlink/internal/domain/entities"
)

func newMatchCmd() *cobra.Command {
	var (
		kind          string
		minConfidence float64
		dryRun        bool
		review        bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match external records to persons and link the winners",
		Long: `Run one match pass over a source population. Accepted candidates are
linked idempotently; ambiguous candidates are reported but never linked.

With --review the pass runs read-only at the review threshold, surfacing
lower-confidence candidates a human should look at.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, kind, minConfidence, dryRun, review)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Record kind to match: legislator or finance (required)")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Override the acceptance threshold")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Select and report without writing links")
	cmd.Flags().BoolVar(&review, "review", false, "Run read-only at the review threshold")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runMatch(cmd *cobra.Command, kind string, minConfidence float64, dryRun, review bool) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		opts := handlers.MatchOptions{
			Kind:          entities.RecordKind(kind),
			MinConfidence: d.Config.Matching.AutoConfidence,
			DryRun:        dryRun,
		}
		if review {
			opts.MinConfidence = d.Config.Matching.ReviewConfidence
			opts.DryRun = true
		}
		if minConfidence > 0 {
			opts.MinConfidence = minConfidence
		}

		result, err := d.MatchHandler.HandleRun(ctx, opts)
		if err != nil {
			return fmt.Errorf("running match pass: %w", err)
		}

		printMatchResult(result)
		return nil
	})
}

func printMatchResult(result *handlers.MatchRunResult) {
	mode := "linked"
	if result.DryRun {
		mode = "dry run"
	}
	fmt.Printf("Match pass %s (%s, kind=%s, min confidence %.2f)\n",
		result.RunID, mode, result.Kind, result.MinConfidence)
	fmt.Printf("  %d persons, %d records, %d candidates\n",
		result.Persons, result.Records, result.Candidates)
	fmt.Printf("  selected %d, ambiguous %d, below threshold %d\n",
		len(result.Selection.Selected), len(result.Selection.Ambiguous), result.Selection.BelowThreshold)
	if !result.DryRun {
		fmt.Printf("  links created %d, skipped %d\n", result.Links.Created, result.Links.Skipped)
	}

	if result.DryRun && len(result.Selection.Selected) > 0 {
		fmt.Println("\nCandidates:")
		printCandidates(result.Selection.Selected)
	}

	if len(result.Selection.Ambiguous) > 0 {
		fmt.Println("\nAmbiguous (not linked, needs review):")
		printCandidates(result.Selection.Ambiguous)
	}
}

func printCandidates(candidates []entities.MatchCandidate) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERSON\tNAME\tRECORD\tRECORD NAME\tSCORE\tRULE")
	for i := range candidates {
		c := &candidates[i]
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%.2f\t%s\n",
			c.PersonID, truncate(c.PersonName, 40), c.RecordID, truncate(c.RecordName, 40), c.Score, c.Rule)
	}
	w.Flush()
}
