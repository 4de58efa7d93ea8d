package credentialspgrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-airtable-forms/credentials"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/uptrace/bun"
)

type tokenRow struct {
	bun.BaseModel `bun:"table:airtable_tokens,alias:at"`

	UserID       string    `bun:"user_id,pk"`
	AccessToken  string    `bun:"access_token,notnull"`
	RefreshToken string    `bun:"refresh_token,notnull"`
	TokenType    string    `bun:"token_type,notnull"`
	Scope        string    `bun:"scope,notnull"`
	ExpiresIn    int64     `bun:"expires_in,notnull"`
	IssuedAt     time.Time `bun:"issued_at,notnull"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
}

var _ credentials.Repo = (*Repo)(nil)

// Repo stores token records in postgres, one row per user keyed by user_id.
type Repo struct {
	db bun.IDB
}

func New(db bun.IDB) *Repo {
	return &Repo{db: db}
}

// CreateSchema creates the airtable_tokens table. The user_id primary key is
// the per-user index.
func (r *Repo) CreateSchema(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().Model((*tokenRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("[credentials CreateSchema] %w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

// Upsert replaces every column of the user's row.
func (r *Repo) Upsert(ctx context.Context, record *credentials.TokenRecord) error {
	row := &tokenRow{
		UserID:       record.UserID,
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		TokenType:    record.TokenType,
		Scope:        record.Scope,
		ExpiresIn:    record.ExpiresIn,
		IssuedAt:     record.IssuedAt,
		ExpiresAt:    record.ExpiresAt,
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("token_type = EXCLUDED.token_type").
		Set("scope = EXCLUDED.scope").
		Set("expires_in = EXCLUDED.expires_in").
		Set("issued_at = EXCLUDED.issued_at").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("[credentials Upsert] %w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, userID string) (*credentials.TokenRecord, error) {
	row := new(tokenRow)
	err := r.db.NewSelect().Model(row).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("token record: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("[credentials Get] %w: %w", apperrors.ErrPersistence, err)
	}

	return &credentials.TokenRecord{
		UserID:       row.UserID,
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    row.TokenType,
		Scope:        row.Scope,
		ExpiresIn:    row.ExpiresIn,
		IssuedAt:     row.IssuedAt,
		ExpiresAt:    row.ExpiresAt,
	}, nil
}
