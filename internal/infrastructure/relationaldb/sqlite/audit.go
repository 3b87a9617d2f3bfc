package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// LogRun records a run summary in the audit log.
func (r *Repository) LogRun(ctx context.Context, runID, action string, details map[string]any) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (run_id, action, details, created_at)
		VALUES (?, ?, ?, ?)
	`, runID, action, string(detailsJSON), timeNow())
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// ListRuns returns the most recent audit entries, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, action, details, created_at
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var result []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var detailsJSON sql.NullString
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Action, &detailsJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling audit details: %w", err)
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
