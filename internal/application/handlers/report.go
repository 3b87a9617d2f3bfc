package handlers

import (
	"context"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
)

// ReportHandler serves run history from the audit log.
type ReportHandler struct {
	store ports.Store
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ports.Store) *ReportHandler {
	return &ReportHandler{store: store}
}

// HandleRecent returns the most recent runs, newest first.
func (h *ReportHandler) HandleRecent(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return h.store.ListRuns(ctx, limit)
}
