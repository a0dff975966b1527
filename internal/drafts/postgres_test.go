package drafts

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Runs against a disposable database named by PROMPTBINDER_TEST_DATABASE_URL.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("PROMPTBINDER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PROMPTBINDER_TEST_DATABASE_URL not set")
	}
	src, err := iofs.New(Migrations, MigrationsDir)
	require.NoError(t, err)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("migrate up: %v", err)
	}
	_, _ = m.Close()

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM drafts`)
	require.NoError(t, err)
	return db
}

func TestPostgresStoreUpsert(t *testing.T) {
	db := openTestDB(t)
	store := NewPostgresStore(db)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	d := sampleDraft(99)
	require.NoError(t, store.Save(ctx, d))
	d.Values = d.Values[:1]
	d.PromptKey = "tagline"
	require.NoError(t, store.Save(ctx, d))

	all, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[99]
	if diff := cmp.Diff(d.Values, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "tagline", got.PromptKey)
	assert.Equal(t, d.FlowID, got.FlowID)
	assert.True(t, d.UpdatedAt.Equal(got.UpdatedAt))
}
