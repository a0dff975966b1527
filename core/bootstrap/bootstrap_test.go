package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/promptbinder/core/config"
	coredatabase "github.com/m3rciful/promptbinder/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunFileBackendSkipsDatabase(t *testing.T) {
	cfg := &coreconfig.Config{Drafts: coreconfig.DraftsConfig{Backend: coreconfig.DraftsBackendFile}}
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not be called")
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
}

func TestRunPostgresBackendConnectFailure(t *testing.T) {
	cfg := &coreconfig.Config{Drafts: coreconfig.DraftsConfig{Backend: coreconfig.DraftsBackendPostgres}}
	boom := errors.New("refused")
	migrated := false
	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, boom
		},
		Migrate: func(context.Context, coredatabase.Config, fs.FS, string) error {
			migrated = true
			return nil
		},
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, migrated)
}

func TestRunLoggerFailure(t *testing.T) {
	boom := errors.New("no dir")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	assert.ErrorIs(t, err, boom)

	_, err = Run(context.Background(), Options{})
	assert.Error(t, err)
}
