package flowstate

import (
	"context"
	"time"
)

// State is what the callback needs to finish an authorization attempt.
type State struct {
	CodeVerifier string
	UserID       string
	CreatedAt    time.Time
}

// Repo holds pending authorization attempts keyed by the opaque state value.
// Take is single use: a second Take of the same key fails with errors.ErrInvalidState.
type Repo interface {
	Put(ctx context.Context, key string, state *State) error
	Take(ctx context.Context, key string) (*State, error)
	Len() int
}
