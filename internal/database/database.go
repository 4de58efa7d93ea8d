package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/go-airtable-forms/internal/config"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// SchemaCreator is implemented by every postgres repo
type SchemaCreator interface {
	CreateSchema(ctx context.Context) error
}

// Open connects to the postgres DSN from DATABASE_URL and checks the
// connection. DB_DEBUG logs every query.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	dsn := cfg.GetDatabaseURL()
	if dsn == "" {
		return nil, fmt.Errorf("[database Open] DATABASE_URL is empty: %w", apperrors.ErrValidation)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.GetDatabaseDebug() {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[database Open] %w: %w", apperrors.ErrPersistence, err)
	}
	return db, nil
}

// Migrate creates the tables and indexes of each repo, in order
func Migrate(ctx context.Context, repos ...SchemaCreator) error {
	for _, repo := range repos {
		if err := repo.CreateSchema(ctx); err != nil {
			return fmt.Errorf("[database Migrate] %w", err)
		}
	}
	return nil
}
