package services

import (
	"sort"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// DefaultAmbiguityMargin is the score gap below which two competing
// fuzzy candidates for the same record are considered indistinguishable.
const DefaultAmbiguityMargin = 0.05

// Selector keeps, for each external record, the single best-scoring
// candidate at or above a confidence threshold. Ties on score break to
// the lowest person ID so reruns are reproducible. A FUZZY winner with a
// competitor inside the ambiguity margin is flagged ambiguous and
// excluded from auto-linking rather than guessed.
type Selector struct {
	ambiguityMargin float64
}

// NewSelector creates a Selector with the given ambiguity margin; a
// non-positive margin falls back to the default.
func NewSelector(ambiguityMargin float64) *Selector {
	if ambiguityMargin <= 0 {
		ambiguityMargin = DefaultAmbiguityMargin
	}
	return &Selector{ambiguityMargin: ambiguityMargin}
}

// Select filters scored candidates down to at most one per external
// record. Candidates below minConfidence are dropped and counted.
func (s *Selector) Select(candidates []entities.MatchCandidate, minConfidence float64) entities.SelectionResult {
	result := entities.SelectionResult{}

	byRecord := make(map[int64][]entities.MatchCandidate)
	var order []int64
	for _, c := range candidates {
		if c.Score < minConfidence {
			result.BelowThreshold++
			continue
		}
		if _, ok := byRecord[c.RecordID]; !ok {
			order = append(order, c.RecordID)
		}
		byRecord[c.RecordID] = append(byRecord[c.RecordID], c)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, recordID := range order {
		group := byRecord[recordID]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Score != group[j].Score {
				return group[i].Score > group[j].Score
			}
			return group[i].PersonID < group[j].PersonID
		})

		best := group[0]
		if best.Rule == entities.RuleFuzzy {
			if rival, ok := s.closeCompetitor(group); ok {
				result.Ambiguous = append(result.Ambiguous, best, rival)
				continue
			}
		}
		result.Selected = append(result.Selected, best)
	}

	return result
}

// closeCompetitor returns a candidate for a different person that scored
// within the ambiguity margin of the winner, if one exists.
func (s *Selector) closeCompetitor(group []entities.MatchCandidate) (entities.MatchCandidate, bool) {
	best := group[0]
	for _, c := range group[1:] {
		if c.PersonID == best.PersonID {
			continue
		}
		if best.Score-c.Score < s.ambiguityMargin {
			return c, true
		}
	}
	return entities.MatchCandidate{}, false
}
