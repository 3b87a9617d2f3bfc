package entities

import "time"

// AuditEntry records one engine run (a match pass or a merge pass) so a
// human can later distinguish "nothing to do" from "something was dropped".
type AuditEntry struct {
	ID        int64          `json:"id"`
	RunID     string         `json:"run_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Audit actions recorded by the engine.
const (
	ActionMatchRun = "match_run"
	ActionMergeRun = "merge_run"
	ActionImport   = "import"
)
