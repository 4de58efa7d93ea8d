package formconfigsrepofake

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
)

var _ formconfigs.Repo = (*FakeFormConfigsRepo)(nil)

type key struct {
	userID, baseID, tableID string
}

// FakeFormConfigsRepo is a thread-safe in-memory formconfigs.Repo.
type FakeFormConfigsRepo struct {
	mu      sync.RWMutex
	configs map[key]formconfigs.FormConfig
}

func NewFakeFormConfigsRepo() *FakeFormConfigsRepo {
	return &FakeFormConfigsRepo{
		configs: make(map[key]formconfigs.FormConfig),
	}
}

func (r *FakeFormConfigsRepo) Upsert(_ context.Context, config *formconfigs.FormConfig) error {
	if config == nil {
		return fmt.Errorf("config is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *config
	stored.Fields = cloneFields(config.Fields)
	r.configs[key{config.UserID, config.BaseID, config.TableID}] = stored
	return nil
}

func (r *FakeFormConfigsRepo) Get(_ context.Context, userID, baseID, tableID string) (*formconfigs.FormConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.configs[key{userID, baseID, tableID}]
	if !ok {
		return nil, fmt.Errorf("form config: %w", apperrors.ErrNotFound)
	}
	config.Fields = cloneFields(config.Fields)
	return &config, nil
}

// cloneFields copies fields, keeping an empty list empty rather than nil
func cloneFields(fields []formconfigs.FieldSpec) []formconfigs.FieldSpec {
	if fields == nil {
		return nil
	}
	out := make([]formconfigs.FieldSpec, len(fields))
	copy(out, fields)
	return out
}

// ListByUser returns the user's summaries, most recently updated first
func (r *FakeFormConfigsRepo) ListByUser(_ context.Context, userID string) ([]formconfigs.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []formconfigs.FormConfig
	for k, config := range r.configs {
		if k.userID == userID {
			owned = append(owned, config)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})

	summaries := make([]formconfigs.Summary, 0, len(owned))
	for i := range owned {
		summaries = append(summaries, owned[i].Summary())
	}
	return summaries, nil
}
