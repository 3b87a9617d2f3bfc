package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
)

// MergeCoordinator consolidates duplicate canonical persons. A run scans
// every person, groups them by normalized display name, and absorbs each
// group of two or more into the member with the lowest ID (the oldest
// record, a stable and auditable rule). Each group is one atomic
// transaction: either the duplicates are fully absorbed and deleted, or
// nothing in that group changes. Rows already moved by an earlier,
// interrupted run are recognized as already correct, so retries are safe.
type MergeCoordinator struct {
	store     ports.Store
	refresher ports.ViewRefresher
	tables    []entities.RelationTable
}

// NewMergeCoordinator creates a MergeCoordinator rewriting the given
// relation tables.
func NewMergeCoordinator(store ports.Store, refresher ports.ViewRefresher, tables []entities.RelationTable) *MergeCoordinator {
	return &MergeCoordinator{
		store:     store,
		refresher: refresher,
		tables:    tables,
	}
}

// Plan scans all persons and returns the merge groups a run would absorb,
// without mutating anything. Persons whose name normalizes to the empty
// string are never grouped; a blank name is not evidence of identity.
func (m *MergeCoordinator) Plan(ctx context.Context) ([]entities.MergeGroup, int, error) {
	persons, err := m.store.ListPersons(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing persons: %w", err)
	}

	byName := make(map[string][]int64)
	for _, p := range persons {
		norm := p.NormalizedName()
		if norm == "" {
			continue
		}
		byName[norm] = append(byName[norm], p.ID)
	}

	var groups []entities.MergeGroup
	for norm, ids := range byName {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		groups = append(groups, entities.MergeGroup{
			NormalizedName: norm,
			SurvivorID:     ids[0],
			DuplicateIDs:   ids[1:],
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].SurvivorID < groups[j].SurvivorID })

	return groups, len(persons), nil
}

// Run executes a full merge pass. The configured relation tables are
// validated against the live schema before any write; a mismatch aborts
// the run, since a missed table would silently orphan data. With dryRun
// set, the pass reports the groups it would absorb and changes nothing.
// A group failure aborts the run, but groups already committed stay
// merged; re-invoking resumes where the failure left off.
func (m *MergeCoordinator) Run(ctx context.Context, dryRun bool) (*entities.MergeRunSummary, error) {
	if err := m.store.ValidateRelationTables(ctx, m.tables); err != nil {
		return nil, fmt.Errorf("validating relation tables: %w", err)
	}

	groups, scanned, err := m.Plan(ctx)
	if err != nil {
		return nil, err
	}

	summary := &entities.MergeRunSummary{
		DryRun:         dryRun,
		PersonsScanned: scanned,
	}

	for _, group := range groups {
		if dryRun {
			summary.Groups = append(summary.Groups, entities.GroupMergeSummary{
				NormalizedName: group.NormalizedName,
				SurvivorID:     group.SurvivorID,
				AbsorbedIDs:    group.DuplicateIDs,
			})
			summary.PersonsAbsorbed += len(group.DuplicateIDs)
			continue
		}

		groupSummary, err := m.store.MergePersons(ctx, group, m.tables)
		if err != nil {
			return summary, fmt.Errorf("merging group %q into person %d: %w", group.NormalizedName, group.SurvivorID, err)
		}
		summary.Groups = append(summary.Groups, *groupSummary)
		summary.PersonsAbsorbed += len(groupSummary.AbsorbedIDs)
	}

	if !dryRun && summary.PersonsAbsorbed > 0 {
		if err := m.refresher.MarkDirty(ctx, ports.ScopePersons); err != nil {
			return summary, fmt.Errorf("marking views dirty: %w", err)
		}
	}

	return summary, nil
}
