package services

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// Scorer assigns a confidence in [0,1] to a candidate pair using a fixed
// rule hierarchy, evaluated top to bottom with first match winning:
//
//  1. EXACT          normalized equality               -> 1.0
//  2. REVERSED_EXACT equality after "Last, First" flip -> 0.95
//  3. CONTAINS       substring containment             -> 0.90 / 0.80
//  4. FUZZY          statistical similarity            -> [0, 0.79]
//
// Cheap, unambiguous rules dominate noisy statistical similarity so that
// two different people with high trigram overlap are never preferred over
// an exact match of someone else.
type Scorer struct{}

// NewScorer creates a new Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

const (
	scoreExact         = 1.0
	scoreReversedExact = 0.95
	scoreContainsBound = 0.90
	scoreContainsInner = 0.80
	fuzzyCeiling       = 0.79
)

// Score returns the confidence for a pair of raw names and the rule that
// produced it. It is pure, never errors, and always returns a finite
// value in [0,1]; unscoreable pairs (an empty name) score 0.0 under FUZZY.
func (s *Scorer) Score(personName, recordName string) (float64, entities.MatchRule) {
	np := entities.NormalizeName(personName)
	nr := entities.NormalizeName(recordName)

	if np == "" || nr == "" {
		return 0.0, entities.RuleFuzzy
	}

	if np == nr {
		return scoreExact, entities.RuleExact
	}

	if entities.InvertName(personName) == nr || np == entities.InvertName(recordName) {
		return scoreReversedExact, entities.RuleReversedExact
	}

	if contained, boundary := containment(np, nr); contained {
		if boundary {
			return scoreContainsBound, entities.RuleContains
		}
		return scoreContainsInner, entities.RuleContains
	}

	return fuzzySimilarity(np, nr), entities.RuleFuzzy
}

// ScoreCandidates scores every candidate in place.
func (s *Scorer) ScoreCandidates(candidates []entities.MatchCandidate) {
	for i := range candidates {
		candidates[i].Score, candidates[i].Rule = s.Score(candidates[i].PersonName, candidates[i].RecordName)
	}
}

// containment reports whether one normalized name is a substring of the
// other, and whether the match sits on a token boundary (a whole leading
// or trailing run of tokens rather than an interior fragment).
func containment(a, b string) (contained, boundary bool) {
	longer, shorter := a, b
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	if !strings.Contains(longer, shorter) {
		return false, false
	}
	if strings.HasPrefix(longer, shorter+" ") || strings.HasSuffix(longer, " "+shorter) {
		return true, true
	}
	return true, false
}

// fuzzySimilarity is the statistical fallback: the mean of trigram Jaccard
// overlap and normalized Levenshtein similarity on the normalized names,
// clamped below the CONTAINS tier so it can never outrank a structural
// rule.
func fuzzySimilarity(a, b string) float64 {
	sim := (trigramJaccard(a, b) + levenshteinSimilarity(a, b)) / 2

	if sim < 0 {
		sim = 0
	}
	if sim > fuzzyCeiling {
		sim = fuzzyCeiling
	}
	return sim
}

// levenshteinSimilarity converts edit distance to a similarity in [0,1].
func levenshteinSimilarity(a, b string) float64 {
	distance := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// trigramJaccard computes the Jaccard index over character trigram sets.
func trigramJaccard(a, b string) float64 {
	grams1 := trigrams(a)
	grams2 := trigrams(b)

	if len(grams1) == 0 && len(grams2) == 0 {
		return 1.0
	}
	if len(grams1) == 0 || len(grams2) == 0 {
		return 0.0
	}

	intersection := 0
	for gram := range grams1 {
		if _, ok := grams2[gram]; ok {
			intersection++
		}
	}
	union := len(grams1) + len(grams2) - intersection
	return float64(intersection) / float64(union)
}

// trigrams returns the set of character trigrams in a string. Strings
// shorter than three runes contribute themselves as a single gram.
func trigrams(s string) map[string]struct{} {
	grams := make(map[string]struct{})
	runes := []rune(s)
	if len(runes) < 3 {
		if len(runes) > 0 {
			grams[string(runes)] = struct{}{}
		}
		return grams
	}
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = struct{}{}
	}
	return grams
}
