package services

import (
	"context"
	"fmt"
	"time"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
)

// DefaultBatchSize bounds how many links one transaction writes. Batching
// exists to keep transactions and lock scopes small, not to parallelize:
// a failure partway through a run loses only the in-flight batch.
const DefaultBatchSize = 200

// Linker persists accepted matches as link rows. Pre-existing links are
// skipped, not errors, so the same selection can be replayed safely.
type Linker struct {
	store     ports.Store
	refresher ports.ViewRefresher
	batchSize int
}

// NewLinker creates a Linker writing through the given store. A
// non-positive batch size falls back to the default.
func NewLinker(store ports.Store, refresher ports.ViewRefresher, batchSize int) *Linker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Linker{
		store:     store,
		refresher: refresher,
		batchSize: batchSize,
	}
}

// Link writes the selected candidates as links in bounded batches, each
// committed independently. On a batch failure the counts of all committed
// batches are returned alongside the error; the run can be re-invoked and
// the already-written links will count as skipped.
func (l *Linker) Link(ctx context.Context, selected []entities.MatchCandidate) (entities.LinkResult, error) {
	var result entities.LinkResult
	if len(selected) == 0 {
		return result, nil
	}

	now := time.Now()
	links := make([]entities.Link, len(selected))
	for i, c := range selected {
		links[i] = entities.Link{
			PersonID:  c.PersonID,
			RecordID:  c.RecordID,
			Kind:      c.Kind,
			CreatedAt: now,
		}
	}

	for start := 0; start < len(links); start += l.batchSize {
		end := start + l.batchSize
		if end > len(links) {
			end = len(links)
		}
		batchResult, err := l.store.InsertLinks(ctx, links[start:end])
		result.Add(batchResult)
		if err != nil {
			return result, fmt.Errorf("inserting link batch: %w", err)
		}
	}

	if result.Created > 0 {
		if err := l.refresher.MarkDirty(ctx, ports.ScopeLinks); err != nil {
			return result, fmt.Errorf("marking views dirty: %w", err)
		}
	}

	return result, nil
}
