package mocks

import "context"

// Refresher records view-refresh signals for assertions.
type Refresher struct {
	Scopes []string
	Err    error
}

// MarkDirty appends the scope, or returns the configured error.
func (r *Refresher) MarkDirty(_ context.Context, scope string) error {
	if r.Err != nil {
		return r.Err
	}
	r.Scopes = append(r.Scopes, scope)
	return nil
}
