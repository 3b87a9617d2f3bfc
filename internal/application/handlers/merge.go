package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
	"github.com/civicgraph/civlink/internal/domain/services"
)

// MergeHandler runs duplicate-person merge passes.
type MergeHandler struct {
	store       ports.Store
	coordinator *services.MergeCoordinator
}

// NewMergeHandler creates a MergeHandler rewriting the given relation
// tables.
func NewMergeHandler(store ports.Store, refresher ports.ViewRefresher, tables []entities.RelationTable) *MergeHandler {
	return &MergeHandler{
		store:       store,
		coordinator: services.NewMergeCoordinator(store, refresher, tables),
	}
}

// MergeRunResult pairs a run ID with the pass summary.
type MergeRunResult struct {
	RunID   string                    `json:"run_id"`
	Summary *entities.MergeRunSummary `json:"summary"`
}

// HandleRun executes a merge pass. Groups committed before a failure stay
// merged; the partial summary is returned alongside the error.
func (h *MergeHandler) HandleRun(ctx context.Context, dryRun bool) (*MergeRunResult, error) {
	result := &MergeRunResult{RunID: uuid.New().String()}

	summary, err := h.coordinator.Run(ctx, dryRun)
	result.Summary = summary
	if err != nil {
		return result, err
	}

	if !dryRun {
		moved, dropped := 0, 0
		for i := range summary.Groups {
			moved += summary.Groups[i].Moved()
			dropped += summary.Groups[i].Dropped()
		}
		if err := h.store.LogRun(ctx, result.RunID, entities.ActionMergeRun, map[string]any{
			"persons_scanned":  summary.PersonsScanned,
			"groups":           len(summary.Groups),
			"persons_absorbed": summary.PersonsAbsorbed,
			"rows_moved":       moved,
			"rows_dropped":     dropped,
		}); err != nil {
			return result, fmt.Errorf("logging merge run: %w", err)
		}
	}

	return result, nil
}
