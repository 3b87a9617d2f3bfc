// Package sqlite provides a SQLite implementation of the Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.Store and ports.ViewRefresher using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Canonical person identities
	CREATE TABLE IF NOT EXISTS persons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		display_name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_persons_display ON persons(display_name);

	-- Legislator roll (upstream-owned, read-only after import)
	CREATE TABLE IF NOT EXISTS legislators (
		id INTEGER PRIMARY KEY,
		full_name TEXT NOT NULL,
		party TEXT,
		chamber TEXT,
		district TEXT
	);

	-- Campaign-finance entity register (upstream-owned, read-only after import)
	CREATE TABLE IF NOT EXISTS finance_entities (
		id INTEGER PRIMARY KEY,
		entity_name TEXT NOT NULL,
		candidate_name TEXT,
		committee_name TEXT,
		entity_type TEXT
	);

	-- Relation tables rewritten on merge. Each pairs a person with an
	-- upstream identifier, at most once per pair.
	CREATE TABLE IF NOT EXISTS person_legislators (
		person_id INTEGER NOT NULL REFERENCES persons(id),
		legislator_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(person_id, legislator_id)
	);
	CREATE INDEX IF NOT EXISTS idx_person_legislators_person ON person_legislators(person_id);

	CREATE TABLE IF NOT EXISTS person_sessions (
		person_id INTEGER NOT NULL REFERENCES persons(id),
		session_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(person_id, session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_person_sessions_person ON person_sessions(person_id);

	CREATE TABLE IF NOT EXISTS person_finance_entities (
		person_id INTEGER NOT NULL REFERENCES persons(id),
		entity_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(person_id, entity_id)
	);
	CREATE INDEX IF NOT EXISTS idx_person_finance_person ON person_finance_entities(person_id);

	CREATE TABLE IF NOT EXISTS person_transactions (
		person_id INTEGER NOT NULL REFERENCES persons(id),
		transaction_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(person_id, transaction_id)
	);
	CREATE INDEX IF NOT EXISTS idx_person_transactions_person ON person_transactions(person_id);

	CREATE TABLE IF NOT EXISTS person_reports (
		person_id INTEGER NOT NULL REFERENCES persons(id),
		report_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(person_id, report_id)
	);
	CREATE INDEX IF NOT EXISTS idx_person_reports_person ON person_reports(person_id);

	-- Read-side refresh signal
	CREATE TABLE IF NOT EXISTS view_state (
		name TEXT PRIMARY KEY,
		dirty INTEGER NOT NULL DEFAULT 0,
		marked_at TIMESTAMP
	);

	-- Run audit log
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SavePerson inserts a person and returns its assigned ID. A person with a
// non-zero ID is upserted under that ID.
func (r *Repository) SavePerson(ctx context.Context, person *entities.Person) (int64, error) {
	if person.CreatedAt.IsZero() {
		person.CreatedAt = timeNow()
	}

	if person.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO persons (display_name, created_at) VALUES (?, ?)`,
			person.DisplayName, person.CreatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting person: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading inserted person id: %w", err)
		}
		person.ID = id
		return id, nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO persons (id, display_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name
	`, person.ID, person.DisplayName, person.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("saving person: %w", err)
	}
	return person.ID, nil
}

// FindPersonByID finds a person by ID. Returns nil if absent.
func (r *Repository) FindPersonByID(ctx context.Context, id int64) (*entities.Person, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, created_at FROM persons WHERE id = ?`, id)

	var person entities.Person
	err := row.Scan(&person.ID, &person.DisplayName, &person.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning person: %w", err)
	}
	return &person, nil
}

// ListPersons returns all persons ordered by ID.
func (r *Repository) ListPersons(ctx context.Context) ([]entities.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, display_name, created_at FROM persons ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying persons: %w", err)
	}
	defer rows.Close()

	var result []entities.Person
	for rows.Next() {
		var person entities.Person
		if err := rows.Scan(&person.ID, &person.DisplayName, &person.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		result = append(result, person)
	}
	return result, rows.Err()
}

// SearchPersons searches persons on a normalized-name substring, so a
// punctuated display name ("J.D. Mesnard") is found by its own text as
// well as by its normalized form. Normalization happens in Go; the
// person population is dashboard-sized, so a full scan is fine.
func (r *Repository) SearchPersons(ctx context.Context, query string, limit int) ([]entities.Person, error) {
	persons, err := r.ListPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching persons: %w", err)
	}

	norm := entities.NormalizeName(query)
	result := make([]entities.Person, 0, limit)
	for _, person := range persons {
		if !strings.Contains(person.NormalizedName(), norm) {
			continue
		}
		result = append(result, person)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// CountPersons returns the total number of persons.
func (r *Repository) CountPersons(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting persons: %w", err)
	}
	return count, nil
}

// SaveLegislator upserts a legislator roll record.
func (r *Repository) SaveLegislator(ctx context.Context, rec *entities.LegislatorRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO legislators (id, full_name, party, chamber, district)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			party = excluded.party,
			chamber = excluded.chamber,
			district = excluded.district
	`, rec.ID, rec.FullName, rec.Party, rec.Chamber, rec.District)
	if err != nil {
		return fmt.Errorf("saving legislator: %w", err)
	}
	return nil
}

// ListLegislators returns all legislator records ordered by ID.
func (r *Repository) ListLegislators(ctx context.Context) ([]entities.LegislatorRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, party, chamber, district FROM legislators ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying legislators: %w", err)
	}
	defer rows.Close()

	var result []entities.LegislatorRecord
	for rows.Next() {
		var rec entities.LegislatorRecord
		if err := rows.Scan(&rec.ID, &rec.FullName, &rec.Party, &rec.Chamber, &rec.District); err != nil {
			return nil, fmt.Errorf("scanning legislator: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// SaveFinanceEntity upserts a campaign-finance entity record.
func (r *Repository) SaveFinanceEntity(ctx context.Context, rec *entities.FinanceEntityRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO finance_entities (id, entity_name, candidate_name, committee_name, entity_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entity_name = excluded.entity_name,
			candidate_name = excluded.candidate_name,
			committee_name = excluded.committee_name,
			entity_type = excluded.entity_type
	`, rec.ID, rec.EntityName, rec.CandidateName, rec.CommitteeName, rec.EntityType)
	if err != nil {
		return fmt.Errorf("saving finance entity: %w", err)
	}
	return nil
}

// ListFinanceEntities returns all finance entity records ordered by ID.
func (r *Repository) ListFinanceEntities(ctx context.Context) ([]entities.FinanceEntityRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_name, candidate_name, committee_name, entity_type FROM finance_entities ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying finance entities: %w", err)
	}
	defer rows.Close()

	var result []entities.FinanceEntityRecord
	for rows.Next() {
		var rec entities.FinanceEntityRecord
		if err := rows.Scan(&rec.ID, &rec.EntityName, &rec.CandidateName, &rec.CommitteeName, &rec.EntityType); err != nil {
			return nil, fmt.Errorf("scanning finance entity: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
