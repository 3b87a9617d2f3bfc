package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civicgraph/civlink/internal/infrastructure/parsers"
)

func newImportCmd() *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import source records from a CSV or JSON file",
		Long: `Import persons, legislator roll records, or campaign-finance entities.
Imports are upserts keyed on the upstream identifier, so re-importing the
same file is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], dataset)
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "Dataset to import: persons, legislators, or finance (required)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runImport(cmd *cobra.Command, filename, dataset string) error {
	ctx := cmd.Context()

	ds, err := parsers.ParseDataset(dataset)
	if err != nil {
		return err
	}

	return withDeps(ctx, func(d *Deps) error {
		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()

		result, err := d.ImportHandler.HandleImport(ctx, ds, filename, f)
		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}

		fmt.Printf("Imported %d %s rows (run %s)\n", result.Rows, result.Dataset, result.RunID)
		return nil
	})
}
