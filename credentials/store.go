package credentials

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/jrsteele09/go-airtable-forms/internal/secrets"
)

// Store saves and loads user tokens, stamping expiry times and sealing the
// secrets on the way into the repository.
type Store struct {
	repo    Repo
	sealer  secrets.Sealer
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

// WithSealer encrypts access and refresh tokens at rest
func WithSealer(sealer secrets.Sealer) StoreOption {
	return func(s *Store) {
		s.sealer = sealer
	}
}

func NewStore(repo Repo, options ...StoreOption) *Store {
	s := &Store{
		repo:    repo,
		sealer:  secrets.Noop{},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Save replaces the user's record with one built from data.
// ExpiresAt is computed here, at save time, as IssuedAt + ExpiresIn.
func (s *Store) Save(ctx context.Context, userID string, data TokenData) (*TokenRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("[Store Save] userID is required: %w", apperrors.ErrValidation)
	}

	issuedAt := s.nowTime().UTC()
	record := &TokenRecord{
		UserID:       userID,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		TokenType:    data.TokenType,
		Scope:        data.Scope,
		ExpiresIn:    data.ExpiresIn,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(time.Duration(data.ExpiresIn) * time.Second),
	}

	sealed := *record
	var err error
	if sealed.AccessToken, err = s.sealer.Seal(record.AccessToken); err != nil {
		return nil, apperrors.Wrapf(err, "[Store Save] seal access token")
	}
	if sealed.RefreshToken, err = s.sealer.Seal(record.RefreshToken); err != nil {
		return nil, apperrors.Wrapf(err, "[Store Save] seal refresh token")
	}

	if err := s.repo.Upsert(ctx, &sealed); err != nil {
		return nil, apperrors.Wrapf(err, "[Store Save] user %s", userID)
	}
	return record, nil
}

// Load returns the user's record, or an error wrapping errors.ErrNotFound.
func (s *Store) Load(ctx context.Context, userID string) (*TokenRecord, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Store Load] user %s", userID)
	}

	opened := *record
	if opened.AccessToken, err = s.sealer.Open(record.AccessToken); err != nil {
		return nil, apperrors.Wrapf(err, "[Store Load] open access token")
	}
	if opened.RefreshToken, err = s.sealer.Open(record.RefreshToken); err != nil {
		return nil, apperrors.Wrapf(err, "[Store Load] open refresh token")
	}
	return &opened, nil
}
