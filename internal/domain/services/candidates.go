package services

import (
	"strings"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// CandidateGenerator proposes (person, record) pairs worth scoring. A
// cheap token-overlap pre-filter keeps the pair count far below the full
// cross product when both populations are large: only pairs whose
// normalized names share at least one token are emitted. Pairs that are
// equal (directly or after "Last, First" inversion) are always included,
// so the filter can never be stricter than equality.
type CandidateGenerator struct{}

// NewCandidateGenerator creates a new CandidateGenerator.
func NewCandidateGenerator() *CandidateGenerator {
	return &CandidateGenerator{}
}

// personEntry caches a person's normalized forms for the duration of one
// generation pass.
type personEntry struct {
	person   entities.Person
	norm     string
	inverted string
}

// Generate returns the candidate pairs eligible for scoring. An empty
// population on either side yields an empty candidate set; that is not an
// error.
func (g *CandidateGenerator) Generate(persons []entities.Person, records []entities.ExternalRecord) []entities.MatchCandidate {
	if len(persons) == 0 || len(records) == 0 {
		return nil
	}

	idx := make([]personEntry, 0, len(persons))
	byToken := make(map[string][]int)
	byNorm := make(map[string][]int)
	for i, p := range persons {
		norm := entities.NormalizeName(p.DisplayName)
		entry := personEntry{
			person:   p,
			norm:     norm,
			inverted: entities.InvertName(p.DisplayName),
		}
		idx = append(idx, entry)
		for _, tok := range strings.Fields(norm) {
			byToken[tok] = append(byToken[tok], i)
		}
		byNorm[norm] = append(byNorm[norm], i)
		if entry.inverted != norm {
			byNorm[entry.inverted] = append(byNorm[entry.inverted], i)
		}
	}

	var candidates []entities.MatchCandidate
	for _, rec := range records {
		name := rec.MatchName()
		norm := entities.NormalizeName(name)
		inverted := entities.InvertName(name)

		seen := make(map[int]struct{})
		for _, tok := range strings.Fields(norm) {
			for _, i := range byToken[tok] {
				seen[i] = struct{}{}
			}
		}
		if inverted != norm {
			for _, tok := range strings.Fields(inverted) {
				for _, i := range byToken[tok] {
					seen[i] = struct{}{}
				}
			}
		}
		// Equality escape hatch: exact and reversed-order matches are
		// candidates even when the token filter misses them.
		for _, i := range byNorm[norm] {
			seen[i] = struct{}{}
		}
		for _, i := range byNorm[inverted] {
			seen[i] = struct{}{}
		}

		for i := range seen {
			candidates = append(candidates, entities.MatchCandidate{
				PersonID:   idx[i].person.ID,
				RecordID:   rec.RecordID(),
				Kind:       rec.RecordKind(),
				PersonName: idx[i].person.DisplayName,
				RecordName: name,
			})
		}
	}

	return candidates
}
