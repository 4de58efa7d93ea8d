package formconfigs

import "context"

// Repo persists form configs keyed by (userID, baseID, tableID).
// Get returns an error wrapping errors.ErrNotFound when no config exists.
type Repo interface {
	Upsert(ctx context.Context, config *FormConfig) error
	Get(ctx context.Context, userID, baseID, tableID string) (*FormConfig, error)
	ListByUser(ctx context.Context, userID string) ([]Summary, error)
}
