package credentials

import "context"

// Repo persists one TokenRecord per user.
// Get returns an error wrapping errors.ErrNotFound when the user has no record.
type Repo interface {
	Upsert(ctx context.Context, record *TokenRecord) error
	Get(ctx context.Context, userID string) (*TokenRecord, error)
}
