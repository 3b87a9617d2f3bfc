package entities

// MatchRule identifies which tier of the scoring hierarchy produced a
// candidate's confidence. Higher tiers dominate lower ones: an exact match
// is always preferred over any statistical similarity.
type MatchRule string

const (
	// RuleExact fires on equality of normalized names (score 1.0).
	RuleExact MatchRule = "EXACT"
	// RuleReversedExact fires on equality after "Last, First" inversion
	// of one side (score 0.95).
	RuleReversedExact MatchRule = "REVERSED_EXACT"
	// RuleContains fires when one normalized name contains the other
	// (score 0.90 on a token boundary, 0.80 otherwise).
	RuleContains MatchRule = "CONTAINS"
	// RuleFuzzy is the statistical fallback, clamped to [0, 0.79] so it
	// can never masquerade as a higher tier.
	RuleFuzzy MatchRule = "FUZZY"
)

// MatchCandidate pairs a person with an external record for scoring. It is
// ephemeral: produced by the candidate generator, scored, consumed by the
// selector, then discarded.
type MatchCandidate struct {
	PersonID   int64      `json:"person_id"`
	RecordID   int64      `json:"record_id"`
	Kind       RecordKind `json:"kind"`
	PersonName string     `json:"person_name"`
	RecordName string     `json:"record_name"`
	Score      float64    `json:"score"`
	Rule       MatchRule  `json:"rule"`
}

// SelectionResult is the outcome of choosing the best candidate per
// external record. Ambiguous candidates are surfaced for human review,
// never auto-linked.
type SelectionResult struct {
	Selected       []MatchCandidate `json:"selected"`
	Ambiguous      []MatchCandidate `json:"ambiguous"`
	BelowThreshold int              `json:"below_threshold"`
}
