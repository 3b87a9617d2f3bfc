package entities

// RecordKind identifies which source population an external record
// belongs to.
type RecordKind string

const (
	// KindLegislator marks records from the legislator roll.
	KindLegislator RecordKind = "legislator"
	// KindFinance marks records from the campaign-finance entity register.
	KindFinance RecordKind = "finance"
)

// Valid reports whether the kind is one of the known source populations.
func (k RecordKind) Valid() bool {
	return k == KindLegislator || k == KindFinance
}

// ExternalRecord is a record from one of the two source systems. Records
// are owned by the upstream ingestion process and are immutable from the
// engine's point of view; the engine only reads their identifying name.
type ExternalRecord interface {
	// RecordID returns the source system's stable identifier.
	RecordID() int64
	// RecordKind returns the population the record belongs to.
	RecordKind() RecordKind
	// MatchName returns the name used for similarity comparison.
	MatchName() string
}

// LegislatorRecord is a row from the legislator roll.
type LegislatorRecord struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Party    string `json:"party"`
	Chamber  string `json:"chamber"`
	District string `json:"district"`
}

// RecordID returns the legislator identifier.
func (r *LegislatorRecord) RecordID() int64 { return r.ID }

// RecordKind returns KindLegislator.
func (r *LegislatorRecord) RecordKind() RecordKind { return KindLegislator }

// MatchName returns the legislator's full name.
func (r *LegislatorRecord) MatchName() string { return r.FullName }

// FinanceEntityRecord is a row from the campaign-finance entity register.
// An entity may be a candidate committee, a PAC, or an individual filer;
// the candidate name, when present, is the best handle on the person
// behind the entity.
type FinanceEntityRecord struct {
	ID            int64  `json:"id"`
	EntityName    string `json:"entity_name"`
	CandidateName string `json:"candidate_name"`
	CommitteeName string `json:"committee_name"`
	EntityType    string `json:"entity_type"`
}

// RecordID returns the finance entity identifier.
func (r *FinanceEntityRecord) RecordID() int64 { return r.ID }

// RecordKind returns KindFinance.
func (r *FinanceEntityRecord) RecordKind() RecordKind { return KindFinance }

// MatchName prefers the candidate name over the entity name, since
// committee-style entity names rarely resemble a person's name.
func (r *FinanceEntityRecord) MatchName() string {
	if r.CandidateName != "" {
		return r.CandidateName
	}
	return r.EntityName
}
