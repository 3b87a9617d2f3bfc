package entities

import "time"

// Link is a typed edge asserting that a Person is the same individual as
// an ExternalRecord. A person normally carries several links (multiple
// legislator terms, multiple finance entities). A given
// (person_id, record_id) pair appears at most once; links are append-only
// except during merges, when a duplicate's links are repointed at the
// surviving person.
type Link struct {
	PersonID  int64      `json:"person_id"`
	RecordID  int64      `json:"record_id"`
	Kind      RecordKind `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
}

// LinkResult summarizes a linking pass. Skipped counts links that already
// existed; re-running the same pass yields created == 0.
type LinkResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Add accumulates another batch's counts.
func (r *LinkResult) Add(other LinkResult) {
	r.Created += other.Created
	r.Skipped += other.Skipped
}
