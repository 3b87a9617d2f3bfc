package entities

// RelationTable names a table whose rows reference persons and must be
// rewritten when a duplicate person is absorbed. The list of relation
// tables is configuration: an omitted table is a silent data-loss bug, so
// the configured list is validated against the live schema before any
// merge writes.
type RelationTable struct {
	Name         string `yaml:"name" json:"name"`
	PersonColumn string `yaml:"person_column" json:"person_column"`
	RefColumn    string `yaml:"ref_column" json:"ref_column"`
}

// MergeGroup is one set of duplicate persons sharing a normalized name,
// with the chosen survivor. Ephemeral: computed per run and discarded
// after the group's transaction commits.
type MergeGroup struct {
	NormalizedName string  `json:"normalized_name"`
	SurvivorID     int64   `json:"survivor_id"`
	DuplicateIDs   []int64 `json:"duplicate_ids"`
}

// RelationCounts reports what happened to one relation table during a
// group merge: rows repointed at the survivor versus rows dropped because
// the survivor already held an equivalent row.
type RelationCounts struct {
	Moved   int `json:"moved"`
	Dropped int `json:"dropped"`
}

// GroupMergeSummary reports the outcome of absorbing one merge group.
type GroupMergeSummary struct {
	NormalizedName string                    `json:"normalized_name"`
	SurvivorID     int64                     `json:"survivor_id"`
	AbsorbedIDs    []int64                   `json:"absorbed_ids"`
	Relations      map[string]RelationCounts `json:"relations"`
}

// Moved returns the total rows repointed across all relation tables.
func (s *GroupMergeSummary) Moved() int {
	total := 0
	for _, c := range s.Relations {
		total += c.Moved
	}
	return total
}

// Dropped returns the total collision rows dropped across all relation
// tables.
func (s *GroupMergeSummary) Dropped() int {
	total := 0
	for _, c := range s.Relations {
		total += c.Dropped
	}
	return total
}

// MergeRunSummary reports a whole merge pass.
type MergeRunSummary struct {
	DryRun          bool                `json:"dry_run"`
	PersonsScanned  int                 `json:"persons_scanned"`
	Groups          []GroupMergeSummary `json:"groups"`
	PersonsAbsorbed int                 `json:"persons_absorbed"`
}
