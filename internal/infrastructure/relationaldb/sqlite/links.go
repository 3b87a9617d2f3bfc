package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// relationForKind maps a record kind to the relation table its links live in.
func relationForKind(kind entities.RecordKind) (entities.RelationTable, error) {
	switch kind {
	case entities.KindLegislator:
		return entities.RelationTable{
			Name:         "person_legislators",
			PersonColumn: "person_id",
			RefColumn:    "legislator_id",
		}, nil
	case entities.KindFinance:
		return entities.RelationTable{
			Name:         "person_finance_entities",
			PersonColumn: "person_id",
			RefColumn:    "entity_id",
		}, nil
	default:
		return entities.RelationTable{}, fmt.Errorf("unknown record kind: %q", kind)
	}
}

// InsertLinks inserts the given links in a single transaction, skipping
// pairs that already exist. A second call with the same links creates
// nothing and counts every pair as skipped.
func (r *Repository) InsertLinks(ctx context.Context, links []entities.Link) (entities.LinkResult, error) {
	var result entities.LinkResult
	if len(links) == 0 {
		return result, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, link := range links {
		table, err := relationForKind(link.Kind)
		if err != nil {
			return entities.LinkResult{}, err
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (%s, %s, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(%s, %s) DO NOTHING
		`, table.Name, table.PersonColumn, table.RefColumn, table.PersonColumn, table.RefColumn)

		res, err := tx.ExecContext(ctx, query, link.PersonID, link.RecordID, link.CreatedAt)
		if err != nil {
			return entities.LinkResult{}, fmt.Errorf("inserting link (%d, %d): %w", link.PersonID, link.RecordID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return entities.LinkResult{}, fmt.Errorf("reading affected rows: %w", err)
		}
		if affected > 0 {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return entities.LinkResult{}, fmt.Errorf("committing link batch: %w", err)
	}
	return result, nil
}

// ListLinks returns all links of the given kind ordered by person then record.
func (r *Repository) ListLinks(ctx context.Context, kind entities.RecordKind) ([]entities.Link, error) {
	table, err := relationForKind(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, created_at
		FROM %s
		ORDER BY %s ASC, %s ASC
	`, table.PersonColumn, table.RefColumn, table.Name, table.PersonColumn, table.RefColumn)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var result []entities.Link
	for rows.Next() {
		link := entities.Link{Kind: kind}
		if err := rows.Scan(&link.PersonID, &link.RecordID, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		result = append(result, link)
	}
	return result, rows.Err()
}

// CountLinksByPerson returns how many relation rows reference the person
// across the given relation tables.
func (r *Repository) CountLinksByPerson(ctx context.Context, personID int64, tables []entities.RelationTable) (int, error) {
	total := 0
	for _, table := range tables {
		if err := checkIdentifiers(table); err != nil {
			return 0, err
		}
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, table.Name, table.PersonColumn)
		var count int
		if err := r.db.QueryRowContext(ctx, query, personID).Scan(&count); err != nil {
			return 0, fmt.Errorf("counting rows in %s: %w", table.Name, err)
		}
		total += count
	}
	return total, nil
}

// MarkDirty flags the named view scope as needing a refresh. This is the
// engine's whole obligation toward the read side; whatever recomputes the
// denormalized views polls and clears the flag.
func (r *Repository) MarkDirty(ctx context.Context, scope string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO view_state (name, dirty, marked_at)
		VALUES (?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET
			dirty = 1,
			marked_at = excluded.marked_at
	`, scope, timeNow())
	if err != nil {
		return fmt.Errorf("marking view state dirty: %w", err)
	}
	return nil
}

// ViewDirty reports whether the named view scope is flagged dirty.
func (r *Repository) ViewDirty(ctx context.Context, scope string) (bool, error) {
	var dirty bool
	err := r.db.QueryRowContext(ctx,
		`SELECT dirty FROM view_state WHERE name = ?`, scope).Scan(&dirty)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading view state: %w", err)
	}
	return dirty, nil
}

// ClearDirty resets the named view scope after a refresh.
func (r *Repository) ClearDirty(ctx context.Context, scope string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE view_state SET dirty = 0 WHERE name = ?`, scope)
	if err != nil {
		return fmt.Errorf("clearing view state: %w", err)
	}
	return nil
}
