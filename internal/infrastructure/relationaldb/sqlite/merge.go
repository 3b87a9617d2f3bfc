package sqlite

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// ErrSchemaMismatch marks a configured relation table that does not match
// the live schema. Fatal before any merge write: a missed table would
// silently orphan data.
var ErrSchemaMismatch = errors.New("relation table schema mismatch")

// reIdentifier guards SQL identifiers interpolated into merge statements.
var reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkIdentifiers rejects relation table configs whose names cannot be
// safely interpolated into SQL.
func checkIdentifiers(table entities.RelationTable) error {
	for _, ident := range []string{table.Name, table.PersonColumn, table.RefColumn} {
		if !reIdentifier.MatchString(ident) {
			return fmt.Errorf("%w: invalid identifier %q", ErrSchemaMismatch, ident)
		}
	}
	return nil
}

// ValidateRelationTables checks that every configured relation table and
// its person/reference columns exist in the live schema.
func (r *Repository) ValidateRelationTables(ctx context.Context, tables []entities.RelationTable) error {
	for _, table := range tables {
		if err := checkIdentifiers(table); err != nil {
			return err
		}

		rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table.Name))
		if err != nil {
			return fmt.Errorf("reading table info for %s: %w", table.Name, err)
		}

		columns := make(map[string]bool)
		for rows.Next() {
			var (
				cid        int
				name       string
				colType    string
				notNull    int
				defaultVal any
				pk         int
			)
			if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
				rows.Close()
				return fmt.Errorf("scanning table info for %s: %w", table.Name, err)
			}
			columns[name] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("reading table info for %s: %w", table.Name, err)
		}
		rows.Close()

		if len(columns) == 0 {
			return fmt.Errorf("%w: table %s does not exist", ErrSchemaMismatch, table.Name)
		}
		if !columns[table.PersonColumn] {
			return fmt.Errorf("%w: table %s has no column %s", ErrSchemaMismatch, table.Name, table.PersonColumn)
		}
		if !columns[table.RefColumn] {
			return fmt.Errorf("%w: table %s has no column %s", ErrSchemaMismatch, table.Name, table.RefColumn)
		}
	}
	return nil
}

// MergePersons absorbs a merge group in one atomic transaction. For every
// relation table, each duplicate's rows are repointed at the survivor
// unless the survivor already holds an equivalent row, in which case the
// duplicate's row is dropped. Once every table is repointed the duplicate
// person rows are deleted. Either the whole group commits or nothing
// changes, so dashboard reads observe pre-merge or post-merge state,
// never a partial merge.
func (r *Repository) MergePersons(ctx context.Context, group entities.MergeGroup, tables []entities.RelationTable) (*entities.GroupMergeSummary, error) {
	for _, table := range tables {
		if err := checkIdentifiers(table); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning merge transaction: %w", err)
	}
	defer tx.Rollback()

	// The survivor must exist; duplicates may already be gone if a prior
	// run committed this group before failing elsewhere.
	var survivorID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM persons WHERE id = ?`, group.SurvivorID).Scan(&survivorID)
	if err != nil {
		return nil, fmt.Errorf("loading survivor person %d: %w", group.SurvivorID, err)
	}

	summary := &entities.GroupMergeSummary{
		NormalizedName: group.NormalizedName,
		SurvivorID:     group.SurvivorID,
		AbsorbedIDs:    group.DuplicateIDs,
		Relations:      make(map[string]entities.RelationCounts),
	}

	for _, table := range tables {
		dropQuery := fmt.Sprintf(`
			DELETE FROM %s
			WHERE %s = ? AND %s IN (SELECT %s FROM %s WHERE %s = ?)
		`, table.Name, table.PersonColumn, table.RefColumn, table.RefColumn, table.Name, table.PersonColumn)
		moveQuery := fmt.Sprintf(`
			UPDATE %s SET %s = ? WHERE %s = ?
		`, table.Name, table.PersonColumn, table.PersonColumn)

		counts := entities.RelationCounts{}
		for _, dupID := range group.DuplicateIDs {
			// Drop rows that would collide with the survivor's, then
			// move the rest.
			res, err := tx.ExecContext(ctx, dropQuery, dupID, group.SurvivorID)
			if err != nil {
				return nil, fmt.Errorf("dropping colliding rows in %s: %w", table.Name, err)
			}
			dropped, err := res.RowsAffected()
			if err != nil {
				return nil, fmt.Errorf("reading dropped rows: %w", err)
			}

			res, err = tx.ExecContext(ctx, moveQuery, group.SurvivorID, dupID)
			if err != nil {
				return nil, fmt.Errorf("moving rows in %s: %w", table.Name, err)
			}
			moved, err := res.RowsAffected()
			if err != nil {
				return nil, fmt.Errorf("reading moved rows: %w", err)
			}

			counts.Dropped += int(dropped)
			counts.Moved += int(moved)
		}
		summary.Relations[table.Name] = counts
	}

	for _, dupID := range group.DuplicateIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, dupID); err != nil {
			return nil, fmt.Errorf("deleting duplicate person %d: %w", dupID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing merge: %w", err)
	}
	return summary, nil
}
