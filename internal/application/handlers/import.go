package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
	"github.com/civicgraph/civlink/internal/infrastructure/parsers"
)

// ImportHandler loads source records into the store. Imports are upserts
// keyed on the upstream identifier, so re-importing the same file is safe.
type ImportHandler struct {
	store ports.Store
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(store ports.Store) *ImportHandler {
	return &ImportHandler{store: store}
}

// ImportResult summarizes one import.
type ImportResult struct {
	RunID   string          `json:"run_id"`
	Dataset parsers.Dataset `json:"dataset"`
	Rows    int             `json:"rows"`
}

// HandleImport parses the reader using the parser for the file name and
// saves every row.
func (h *ImportHandler) HandleImport(ctx context.Context, dataset parsers.Dataset, filename string, r io.Reader) (*ImportResult, error) {
	parser := parsers.ForFile(filename, dataset)
	if parser == nil {
		return nil, fmt.Errorf("unsupported file format: %s", filename)
	}

	set, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	for i := range set.Persons {
		if _, err := h.store.SavePerson(ctx, &set.Persons[i]); err != nil {
			return nil, fmt.Errorf("saving person %q: %w", set.Persons[i].DisplayName, err)
		}
	}
	for i := range set.Legislators {
		if err := h.store.SaveLegislator(ctx, &set.Legislators[i]); err != nil {
			return nil, fmt.Errorf("saving legislator %d: %w", set.Legislators[i].ID, err)
		}
	}
	for i := range set.FinanceEntities {
		if err := h.store.SaveFinanceEntity(ctx, &set.FinanceEntities[i]); err != nil {
			return nil, fmt.Errorf("saving finance entity %d: %w", set.FinanceEntities[i].ID, err)
		}
	}

	result := &ImportResult{
		RunID:   uuid.New().String(),
		Dataset: dataset,
		Rows:    set.Len(),
	}

	if err := h.store.LogRun(ctx, result.RunID, entities.ActionImport, map[string]any{
		"dataset": string(dataset),
		"file":    filename,
		"rows":    result.Rows,
	}); err != nil {
		return nil, fmt.Errorf("logging import: %w", err)
	}

	return result, nil
}
