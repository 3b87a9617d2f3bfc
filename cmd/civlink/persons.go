package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/civicgraph/civlink/internal/application/handlers"
)

func newPersonsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persons",
		Short: "Inspect canonical persons",
	}

	cmd.AddCommand(newPersonsListCmd())
	cmd.AddCommand(newPersonsSearchCmd())

	return cmd
}

func newPersonsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all persons with their link counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonsList(cmd)
		},
	}
}

func runPersonsList(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		summaries, err := d.PersonHandler.HandleList(ctx)
		if err != nil {
			return fmt.Errorf("listing persons: %w", err)
		}

		printPersonSummaries(summaries)
		return nil
	})
}

func newPersonsSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search persons by display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersonsSearch(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum results to return")

	return cmd
}

func runPersonsSearch(cmd *cobra.Command, query string, limit int) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		summaries, err := d.PersonHandler.HandleSearch(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("searching persons: %w", err)
		}

		printPersonSummaries(summaries)
		return nil
	})
}

func printPersonSummaries(summaries []handlers.PersonSummary) {
	if len(summaries) == 0 {
		fmt.Println("No persons found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLINKS\tCREATED")
	for i := range summaries {
		s := &summaries[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			s.Person.ID,
			truncate(s.Person.DisplayName, 50),
			strconv.Itoa(s.Links),
			s.Person.CreatedAt.Format("2006-01-02"),
		)
	}
	w.Flush()
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
