package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
	"github.com/civicgraph/civlink/internal/domain/services"
	"github.com/civicgraph/civlink/internal/infrastructure/config"
)

// MatchHandler runs the full resolution pipeline for one record kind:
// candidate generation, scoring, selection, and idempotent linking.
type MatchHandler struct {
	store     ports.Store
	generator *services.CandidateGenerator
	scorer    *services.Scorer
	selector  *services.Selector
	linker    *services.Linker
}

// NewMatchHandler creates a MatchHandler wired to the given store and
// refresher using the configured thresholds.
func NewMatchHandler(store ports.Store, refresher ports.ViewRefresher, cfg config.MatchingConfig) *MatchHandler {
	return &MatchHandler{
		store:     store,
		generator: services.NewCandidateGenerator(),
		scorer:    services.NewScorer(),
		selector:  services.NewSelector(cfg.AmbiguityMargin),
		linker:    services.NewLinker(store, refresher, cfg.BatchSize),
	}
}

// MatchOptions controls one match pass.
type MatchOptions struct {
	// Kind selects which source population to match against.
	Kind entities.RecordKind
	// MinConfidence is the acceptance threshold for this pass.
	MinConfidence float64
	// DryRun selects and reports without writing links. The review tier
	// runs as a dry run at a lower threshold.
	DryRun bool
}

// MatchRunResult is the structured summary of one match pass.
type MatchRunResult struct {
	RunID         string                   `json:"run_id"`
	Kind          entities.RecordKind      `json:"kind"`
	MinConfidence float64                  `json:"min_confidence"`
	DryRun        bool                     `json:"dry_run"`
	Persons       int                      `json:"persons"`
	Records       int                      `json:"records"`
	Candidates    int                      `json:"candidates"`
	Selection     entities.SelectionResult `json:"selection"`
	Links         entities.LinkResult      `json:"links"`
}

// HandleRun executes a match pass. An empty population on either side is
// not an error; the pass reports zero candidates and writes nothing.
func (h *MatchHandler) HandleRun(ctx context.Context, opts MatchOptions) (*MatchRunResult, error) {
	if !opts.Kind.Valid() {
		return nil, fmt.Errorf("unknown record kind: %q", opts.Kind)
	}

	persons, err := h.store.ListPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}

	records, err := h.loadRecords(ctx, opts.Kind)
	if err != nil {
		return nil, err
	}

	candidates := h.generator.Generate(persons, records)
	h.scorer.ScoreCandidates(candidates)

	result := &MatchRunResult{
		RunID:         uuid.New().String(),
		Kind:          opts.Kind,
		MinConfidence: opts.MinConfidence,
		DryRun:        opts.DryRun,
		Persons:       len(persons),
		Records:       len(records),
		Candidates:    len(candidates),
		Selection:     h.selector.Select(candidates, opts.MinConfidence),
	}

	if !opts.DryRun {
		links, err := h.linker.Link(ctx, result.Selection.Selected)
		result.Links = links
		if err != nil {
			return result, fmt.Errorf("linking selected candidates: %w", err)
		}

		if err := h.store.LogRun(ctx, result.RunID, entities.ActionMatchRun, map[string]any{
			"kind":            string(opts.Kind),
			"min_confidence":  opts.MinConfidence,
			"records":         len(records),
			"candidates":      len(candidates),
			"created":         links.Created,
			"skipped":         links.Skipped,
			"ambiguous":       len(result.Selection.Ambiguous),
			"below_threshold": result.Selection.BelowThreshold,
		}); err != nil {
			return result, fmt.Errorf("logging match run: %w", err)
		}
	}

	return result, nil
}

// loadRecords fetches the external population for the requested kind.
func (h *MatchHandler) loadRecords(ctx context.Context, kind entities.RecordKind) ([]entities.ExternalRecord, error) {
	switch kind {
	case entities.KindLegislator:
		recs, err := h.store.ListLegislators(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing legislators: %w", err)
		}
		records := make([]entities.ExternalRecord, len(recs))
		for i := range recs {
			records[i] = &recs[i]
		}
		return records, nil
	default:
		recs, err := h.store.ListFinanceEntities(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing finance entities: %w", err)
		}
		records := make([]entities.ExternalRecord, len(recs))
		for i := range recs {
			records[i] = &recs[i]
		}
		return records, nil
	}
}
