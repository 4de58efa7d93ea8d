package flowstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/patrickmn/go-cache"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Entries expire after the configured TTL.
type InMemoryRepo struct {
	mu     sync.Mutex
	states *cache.Cache
}

// NewInMemoryRepo creates a repo whose entries live for ttl. Expired entries
// are swept every cleanupInterval; a zero interval disables the sweeper.
func NewInMemoryRepo(ttl, cleanupInterval time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		states: cache.New(ttl, cleanupInterval),
	}
}

// Put stores an auth flow state under key
func (r *InMemoryRepo) Put(_ context.Context, key string, state *State) error {
	if key == "" {
		return errors.New("state cannot be empty")
	}
	if state == nil {
		return errors.New("flow state cannot be nil")
	}

	// Create a copy to prevent external modifications
	stored := *state
	r.states.SetDefault(key, &stored)
	return nil
}

// Take returns the state and removes it. Get and delete happen under one lock
// so two concurrent callbacks cannot both consume the same state.
func (r *InMemoryRepo) Take(_ context.Context, key string) (*State, error) {
	if key == "" {
		return nil, fmt.Errorf("state cannot be empty: %w", apperrors.ErrInvalidState)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.states.Get(key)
	if !ok {
		return nil, fmt.Errorf("state not found: %w", apperrors.ErrInvalidState)
	}
	r.states.Delete(key)

	state := *value.(*State)
	return &state, nil
}

// Len reports the number of pending, possibly expired but unswept, states
func (r *InMemoryRepo) Len() int {
	return r.states.ItemCount()
}
