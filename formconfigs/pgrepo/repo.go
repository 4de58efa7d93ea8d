package formconfigspgrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/uptrace/bun"
)

type formConfigRow struct {
	bun.BaseModel `bun:"table:form_configs,alias:fc"`

	UserID    string                  `bun:"user_id,pk"`
	BaseID    string                  `bun:"base_id,pk"`
	TableID   string                  `bun:"table_id,pk"`
	TableName string                  `bun:"table_name,notnull"`
	Fields    []formconfigs.FieldSpec `bun:"fields,type:jsonb,notnull"`
	UpdatedAt time.Time               `bun:"updated_at,notnull"`
}

var _ formconfigs.Repo = (*Repo)(nil)

// Repo stores one row per (user_id, base_id, table_id) with the field list
// kept as jsonb.
type Repo struct {
	db bun.IDB
}

func New(db bun.IDB) *Repo {
	return &Repo{db: db}
}

// CreateSchema creates the form_configs table and its user_id index
func (r *Repo) CreateSchema(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().Model((*formConfigRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("[formconfigs CreateSchema] %w: %w", apperrors.ErrPersistence, err)
	}
	_, err := r.db.NewCreateIndex().
		Model((*formConfigRow)(nil)).
		Index("form_configs_user_id_idx").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("[formconfigs CreateSchema] index: %w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

func (r *Repo) Upsert(ctx context.Context, config *formconfigs.FormConfig) error {
	row := &formConfigRow{
		UserID:    config.UserID,
		BaseID:    config.BaseID,
		TableID:   config.TableID,
		TableName: config.TableName,
		Fields:    config.Fields,
		UpdatedAt: config.UpdatedAt,
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, base_id, table_id) DO UPDATE").
		Set("table_name = EXCLUDED.table_name").
		Set("fields = EXCLUDED.fields").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("[formconfigs Upsert] %w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, userID, baseID, tableID string) (*formconfigs.FormConfig, error) {
	row := new(formConfigRow)
	err := r.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Where("base_id = ?", baseID).
		Where("table_id = ?", tableID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("form config: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("[formconfigs Get] %w: %w", apperrors.ErrPersistence, err)
	}

	return &formconfigs.FormConfig{
		UserID:    row.UserID,
		BaseID:    row.BaseID,
		TableID:   row.TableID,
		TableName: row.TableName,
		Fields:    row.Fields,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// ListByUser selects only the summary columns, never the field list
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]formconfigs.Summary, error) {
	var summaries []formconfigs.Summary
	err := r.db.NewSelect().
		Model((*formConfigRow)(nil)).
		Column("table_name", "base_id", "table_id").
		Where("user_id = ?", userID).
		OrderExpr("updated_at DESC").
		Scan(ctx, &summaries)
	if err != nil {
		return nil, fmt.Errorf("[formconfigs ListByUser] %w: %w", apperrors.ErrPersistence, err)
	}
	return summaries, nil
}
