package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-airtable-forms/internal/config"
	"github.com/jrsteele09/go-airtable-forms/internal/database"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/stretchr/testify/require"
)

type schemaFunc func(ctx context.Context) error

func (f schemaFunc) CreateSchema(ctx context.Context) error { return f(ctx) }

func TestOpen_RequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := database.Open(context.Background(), config.Database{})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMigrate_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	err := database.Migrate(context.Background(),
		schemaFunc(func(context.Context) error { calls = append(calls, "tokens"); return nil }),
		schemaFunc(func(context.Context) error { calls = append(calls, "forms"); return boom }),
		schemaFunc(func(context.Context) error { calls = append(calls, "never"); return nil }),
	)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"tokens", "forms"}, calls)
}
