package ports

import (
	"context"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// Store defines the relational persistence boundary for the resolution
// engine. It owns the Person and link lifecycles; external records are
// read-only once imported. Mutating operations are idempotent so a failed
// run can be safely re-invoked with the same inputs.
type Store interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Person operations

	// SavePerson inserts a person and returns its assigned ID. If the
	// person already has an ID, it is upserted under that ID.
	SavePerson(ctx context.Context, person *entities.Person) (int64, error)

	// FindPersonByID finds a person by ID. Returns nil if absent.
	FindPersonByID(ctx context.Context, id int64) (*entities.Person, error)

	// ListPersons returns all persons ordered by ID.
	ListPersons(ctx context.Context) ([]entities.Person, error)

	// SearchPersons searches persons by normalized-name pattern.
	SearchPersons(ctx context.Context, query string, limit int) ([]entities.Person, error)

	// CountPersons returns the total number of persons.
	CountPersons(ctx context.Context) (int, error)

	// External record operations

	// SaveLegislator upserts a legislator roll record.
	SaveLegislator(ctx context.Context, rec *entities.LegislatorRecord) error

	// ListLegislators returns all legislator records ordered by ID.
	ListLegislators(ctx context.Context) ([]entities.LegislatorRecord, error)

	// SaveFinanceEntity upserts a campaign-finance entity record.
	SaveFinanceEntity(ctx context.Context, rec *entities.FinanceEntityRecord) error

	// ListFinanceEntities returns all finance entity records ordered by ID.
	ListFinanceEntities(ctx context.Context) ([]entities.FinanceEntityRecord, error)

	// Link operations

	// InsertLinks inserts the given links in a single transaction,
	// skipping pairs that already exist. Safe to retry: a second call
	// with the same links creates nothing.
	InsertLinks(ctx context.Context, links []entities.Link) (entities.LinkResult, error)

	// ListLinks returns all links of the given kind.
	ListLinks(ctx context.Context, kind entities.RecordKind) ([]entities.Link, error)

	// CountLinksByPerson returns how many relation rows reference the
	// person across the given relation tables.
	CountLinksByPerson(ctx context.Context, personID int64, tables []entities.RelationTable) (int, error)

	// Merge operations

	// ValidateRelationTables checks that every configured relation table
	// and its columns exist in the live schema. Must be called before any
	// merge writes; a missing table would silently orphan data.
	ValidateRelationTables(ctx context.Context, tables []entities.RelationTable) error

	// MergePersons absorbs a merge group in one atomic transaction:
	// every relation table's duplicate rows are repointed at the survivor
	// (or dropped on collision), then the duplicate persons are deleted.
	// Either the whole group is absorbed or nothing changes.
	MergePersons(ctx context.Context, group entities.MergeGroup, tables []entities.RelationTable) (*entities.GroupMergeSummary, error)

	// Audit operations

	// LogRun records a run summary in the audit log.
	LogRun(ctx context.Context, runID, action string, details map[string]any) error

	// ListRuns returns the most recent audit entries, newest first.
	ListRuns(ctx context.Context, limit int) ([]entities.AuditEntry, error)
}
