package main

import (
	"context"
	"fmt"
	"os"

	"github.com/civicgraph/civlink/internal/application/handlers"
	"github.com/civicgraph/civlink/internal/infrastructure/config"
	"github.com/civicgraph/civlink/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands. Only handlers are
// exposed - services and the repository stay internal.
type Deps struct {
	Config        *config.Config
	MatchHandler  *handlers.MatchHandler
	MergeHandler  *handlers.MergeHandler
	ImportHandler *handlers.ImportHandler
	PersonHandler *handlers.PersonHandler
	ReportHandler *handlers.ReportHandler
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	repo, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	// The merge step rewrites the configured relation tables; refuse to
	// run at all if they drifted from the schema.
	if err := repo.ValidateRelationTables(ctx, cfg.Merge.RelationTables); err != nil {
		return fmt.Errorf("validating relation tables: %w", err)
	}

	deps := &Deps{
		Config:        cfg,
		MatchHandler:  handlers.NewMatchHandler(repo, repo, cfg.Matching),
		MergeHandler:  handlers.NewMergeHandler(repo, repo, cfg.Merge.RelationTables),
		ImportHandler: handlers.NewImportHandler(repo),
		PersonHandler: handlers.NewPersonHandler(repo, cfg.Merge.RelationTables),
		ReportHandler: handlers.NewReportHandler(repo),
	}

	return fn(deps)
}
