package ports

import "context"

// ViewRefresher receives the engine's only obligation toward the read
// side: a cheap signal that a batch of writes completed and denormalized
// projections are stale. How (or whether) the views are recomputed is the
// collaborator's concern.
type ViewRefresher interface {
	// MarkDirty flags the named view scope as needing a refresh.
	MarkDirty(ctx context.Context, scope string) error
}

// View scopes the engine marks dirty.
const (
	ScopeLinks   = "links"
	ScopePersons = "persons"
)
