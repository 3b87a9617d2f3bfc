// Package mocks provides in-memory test doubles for the domain ports.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// linkKey identifies a relation row uniquely.
type linkKey struct {
	table    string
	personID int64
	refID    int64
}

// Store is an in-memory Store implementation for service tests. Relation
// rows are keyed by (table, person, ref) so the idempotence and merge
// collision semantics match the real repository.
type Store struct {
	Persons         map[int64]entities.Person
	Legislators     map[int64]entities.LegislatorRecord
	FinanceEntities map[int64]entities.FinanceEntityRecord
	Relations       map[linkKey]time.Time
	AuditEntries    []entities.AuditEntry

	NextPersonID int64

	// Error hooks for failure-path tests.
	InsertLinksErr error
	MergeErr       error
	ValidateErr    error
	ListPersonsErr error

	// InsertBatches records the size of each InsertLinks call.
	InsertBatches []int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		Persons:         make(map[int64]entities.Person),
		Legislators:     make(map[int64]entities.LegislatorRecord),
		FinanceEntities: make(map[int64]entities.FinanceEntityRecord),
		Relations:       make(map[linkKey]time.Time),
		NextPersonID:    1,
	}
}

// tableForKind mirrors the repository's kind-to-table mapping.
func tableForKind(kind entities.RecordKind) string {
	if kind == entities.KindLegislator {
		return "person_legislators"
	}
	return "person_finance_entities"
}

// EnsureSchema is a no-op.
func (s *Store) EnsureSchema(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// SavePerson stores a person, assigning an ID when missing.
func (s *Store) SavePerson(_ context.Context, person *entities.Person) (int64, error) {
	if person.ID == 0 {
		person.ID = s.NextPersonID
		s.NextPersonID++
	} else if person.ID >= s.NextPersonID {
		s.NextPersonID = person.ID + 1
	}
	s.Persons[person.ID] = *person
	return person.ID, nil
}

// FindPersonByID returns the person or nil.
func (s *Store) FindPersonByID(_ context.Context, id int64) (*entities.Person, error) {
	if p, ok := s.Persons[id]; ok {
		return &p, nil
	}
	return nil, nil
}

// ListPersons returns all persons ordered by ID.
func (s *Store) ListPersons(_ context.Context) ([]entities.Person, error) {
	if s.ListPersonsErr != nil {
		return nil, s.ListPersonsErr
	}
	result := make([]entities.Person, 0, len(s.Persons))
	for _, p := range s.Persons {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SearchPersons matches on a normalized-name substring.
func (s *Store) SearchPersons(_ context.Context, query string, limit int) ([]entities.Person, error) {
	norm := entities.NormalizeName(query)
	var result []entities.Person
	for _, p := range s.Persons {
		if strings.Contains(p.NormalizedName(), norm) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountPersons returns the number of stored persons.
func (s *Store) CountPersons(_ context.Context) (int, error) {
	return len(s.Persons), nil
}

// SaveLegislator stores a legislator record.
func (s *Store) SaveLegislator(_ context.Context, rec *entities.LegislatorRecord) error {
	s.Legislators[rec.ID] = *rec
	return nil
}

// ListLegislators returns all legislator records ordered by ID.
func (s *Store) ListLegislators(_ context.Context) ([]entities.LegislatorRecord, error) {
	result := make([]entities.LegislatorRecord, 0, len(s.Legislators))
	for _, r := range s.Legislators {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SaveFinanceEntity stores a finance entity record.
func (s *Store) SaveFinanceEntity(_ context.Context, rec *entities.FinanceEntityRecord) error {
	s.FinanceEntities[rec.ID] = *rec
	return nil
}

// ListFinanceEntities returns all finance entity records ordered by ID.
func (s *Store) ListFinanceEntities(_ context.Context) ([]entities.FinanceEntityRecord, error) {
	result := make([]entities.FinanceEntityRecord, 0, len(s.FinanceEntities))
	for _, r := range s.FinanceEntities {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// InsertLinks inserts links, skipping existing pairs.
func (s *Store) InsertLinks(_ context.Context, links []entities.Link) (entities.LinkResult, error) {
	if s.InsertLinksErr != nil {
		return entities.LinkResult{}, s.InsertLinksErr
	}
	s.InsertBatches = append(s.InsertBatches, len(links))

	var result entities.LinkResult
	for _, l := range links {
		key := linkKey{table: tableForKind(l.Kind), personID: l.PersonID, refID: l.RecordID}
		if _, ok := s.Relations[key]; ok {
			result.Skipped++
			continue
		}
		s.Relations[key] = l.CreatedAt
		result.Created++
	}
	return result, nil
}

// ListLinks returns all links of the given kind ordered by person then record.
func (s *Store) ListLinks(_ context.Context, kind entities.RecordKind) ([]entities.Link, error) {
	table := tableForKind(kind)
	var result []entities.Link
	for key, created := range s.Relations {
		if key.table != table {
			continue
		}
		result = append(result, entities.Link{
			PersonID:  key.personID,
			RecordID:  key.refID,
			Kind:      kind,
			CreatedAt: created,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PersonID != result[j].PersonID {
			return result[i].PersonID < result[j].PersonID
		}
		return result[i].RecordID < result[j].RecordID
	})
	return result, nil
}

// CountLinksByPerson counts relation rows referencing the person.
func (s *Store) CountLinksByPerson(_ context.Context, personID int64, tables []entities.RelationTable) (int, error) {
	names := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		names[t.Name] = struct{}{}
	}
	count := 0
	for key := range s.Relations {
		if key.personID != personID {
			continue
		}
		if _, ok := names[key.table]; ok {
			count++
		}
	}
	return count, nil
}

// ValidateRelationTables returns the configured validation error, if any.
func (s *Store) ValidateRelationTables(_ context.Context, _ []entities.RelationTable) error {
	return s.ValidateErr
}

// AddRelation seeds an arbitrary relation row for merge tests.
func (s *Store) AddRelation(table string, personID, refID int64) {
	s.Relations[linkKey{table: table, personID: personID, refID: refID}] = time.Now()
}

// HasRelation reports whether a relation row exists.
func (s *Store) HasRelation(table string, personID, refID int64) bool {
	_, ok := s.Relations[linkKey{table: table, personID: personID, refID: refID}]
	return ok
}

// MergePersons absorbs a group: move non-colliding rows, drop colliding
// ones, delete the duplicates.
func (s *Store) MergePersons(_ context.Context, group entities.MergeGroup, tables []entities.RelationTable) (*entities.GroupMergeSummary, error) {
	if s.MergeErr != nil {
		return nil, s.MergeErr
	}
	if _, ok := s.Persons[group.SurvivorID]; !ok {
		return nil, fmt.Errorf("survivor person not found: %d", group.SurvivorID)
	}

	summary := &entities.GroupMergeSummary{
		NormalizedName: group.NormalizedName,
		SurvivorID:     group.SurvivorID,
		AbsorbedIDs:    group.DuplicateIDs,
		Relations:      make(map[string]entities.RelationCounts),
	}

	for _, table := range tables {
		counts := entities.RelationCounts{}
		for _, dupID := range group.DuplicateIDs {
			for key, created := range s.Relations {
				if key.table != table.Name || key.personID != dupID {
					continue
				}
				target := linkKey{table: key.table, personID: group.SurvivorID, refID: key.refID}
				delete(s.Relations, key)
				if _, exists := s.Relations[target]; exists {
					counts.Dropped++
					continue
				}
				s.Relations[target] = created
				counts.Moved++
			}
		}
		summary.Relations[table.Name] = counts
	}

	for _, dupID := range group.DuplicateIDs {
		delete(s.Persons, dupID)
	}
	return summary, nil
}

// LogRun appends an audit entry.
func (s *Store) LogRun(_ context.Context, runID, action string, details map[string]any) error {
	s.AuditEntries = append(s.AuditEntries, entities.AuditEntry{
		ID:        int64(len(s.AuditEntries) + 1),
		RunID:     runID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

// ListRuns returns audit entries newest first.
func (s *Store) ListRuns(_ context.Context, limit int) ([]entities.AuditEntry, error) {
	result := make([]entities.AuditEntry, 0, len(s.AuditEntries))
	for i := len(s.AuditEntries) - 1; i >= 0; i-- {
		result = append(result, s.AuditEntries[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
