package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/promptbinder/core/config"
)

func TestListMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000002_b.up.sql":   {Data: []byte("--")},
		"migrations/000001_a.up.sql":   {Data: []byte("--")},
		"migrations/000001_a.down.sql": {Data: []byte("--")},
		"migrations/README":            {Data: []byte("")},
	}
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql"}, listMigrationFiles(fsys, "migrations"))
	assert.Nil(t, listMigrationFiles(fsys, "missing"))
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	assert.Equal(t, []string{"000002_b.up.sql", "000003_c.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint64(0), parseVersion("notes.up.sql"))
}

func TestURLEscapesCredentials(t *testing.T) {
	cfg := coreconfig.DatabaseConfig{
		Host: "db", Port: "5432", User: "bot", Password: "p@ss word", Name: "prompts", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://bot:p%40ss%20word@db:5432/prompts?sslmode=disable", URL(cfg))
}
