package formconfigs

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
)

// Store saves and looks up form configs.
type Store struct {
	repo    Repo
	nowTime func() time.Time
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func NewStore(repo Repo, options ...StoreOption) *Store {
	s := &Store{repo: repo, nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Save replaces the config stored under the same (user, base, table) key.
// Fields are not merged with a previous version.
func (s *Store) Save(ctx context.Context, config *FormConfig) error {
	if config == nil || config.UserID == "" || config.BaseID == "" || config.TableID == "" {
		return fmt.Errorf("[FormConfigStore Save] userId, baseId and tableId are required: %w", apperrors.ErrValidation)
	}

	doc := *config
	if doc.Fields == nil {
		doc.Fields = []FieldSpec{}
	}
	doc.UpdatedAt = s.nowTime().UTC()

	if err := s.repo.Upsert(ctx, &doc); err != nil {
		return apperrors.Wrapf(err, "[FormConfigStore Save] %s/%s/%s", doc.UserID, doc.BaseID, doc.TableID)
	}
	config.UpdatedAt = doc.UpdatedAt
	return nil
}

// Load returns the config or an error wrapping errors.ErrNotFound
func (s *Store) Load(ctx context.Context, userID, baseID, tableID string) (*FormConfig, error) {
	config, err := s.repo.Get(ctx, userID, baseID, tableID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[FormConfigStore Load] %s/%s/%s", userID, baseID, tableID)
	}
	return config, nil
}

// ListByUser returns the summaries of every config the user saved
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	summaries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[FormConfigStore ListByUser] %s", userID)
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	return summaries, nil
}
