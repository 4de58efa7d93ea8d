package credentialsrepofake

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-airtable-forms/credentials"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
)

var _ credentials.Repo = (*FakeCredentialsRepo)(nil)

// FakeCredentialsRepo is a thread-safe in-memory credentials.Repo, also used
// when no database is configured.
type FakeCredentialsRepo struct {
	mu      sync.RWMutex
	records map[string]credentials.TokenRecord // userID -> record
	upserts int
}

func NewFakeCredentialsRepo() *FakeCredentialsRepo {
	return &FakeCredentialsRepo{
		records: make(map[string]credentials.TokenRecord),
	}
}

func (r *FakeCredentialsRepo) Upsert(_ context.Context, record *credentials.TokenRecord) error {
	if record == nil || record.UserID == "" {
		return fmt.Errorf("userID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modifications
	r.records[record.UserID] = *record
	r.upserts++
	return nil
}

func (r *FakeCredentialsRepo) Get(_ context.Context, userID string) (*credentials.TokenRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[userID]
	if !ok {
		return nil, fmt.Errorf("token record: %w", apperrors.ErrNotFound)
	}
	return &record, nil
}

// Upserts returns how many writes the repo has seen
func (r *FakeCredentialsRepo) Upserts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.upserts
}
