package drafts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/promptbinder/core/telegram/state"
)

func sampleDraft(chatID int64) Draft {
	return Draft{
		ChatID:    chatID,
		FlowID:    uuid.MustParse("0b8f8e52-3c57-4d1c-9a43-6c1c2b1f7f10"),
		PromptKey: "idea",
		Values: Values{
			{Field: "тема", Text: "бот криптоньюс"},
			{Field: "для кого", Text: "новички"},
		},
		UpdatedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestValuesKeepFillOrderInJSON(t *testing.T) {
	v := Values{{Field: "z", Text: "1"}, {Field: "a", Text: "2"}, {Field: "m", Text: "\"3\""}}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":"2","m":"\"3\""}`, string(data))

	var back Values
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(v, back); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]string{"z": "1", "a": "2", "m": "\"3\""}, back.Map())

	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &back))
}

func TestFromSession(t *testing.T) {
	ctx := context.Background()
	s, err := state.Begin(ctx, "ad", []string{"продукт", "аудитория"})
	require.NoError(t, err)
	_, _, err = s.Capture(ctx, "бот новостей")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	d := FromSession(5, s, now)
	assert.Equal(t, int64(5), d.ChatID)
	assert.Equal(t, s.FlowID, d.FlowID)
	assert.Equal(t, Values{{Field: "продукт", Text: "бот новостей"}}, d.Values)

	d.Values[0].Text = "changed"
	assert.Equal(t, "бот новостей", s.Values[0].Text, "draft must not alias the session")
}

func TestFileStoreSaveAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drafts.json")

	store := NewFileStore(path)
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, sampleDraft(10)))
	second := sampleDraft(20)
	second.PromptKey = "news"
	require.NoError(t, store.Save(ctx, second))
	updated := sampleDraft(10)
	updated.Values = append(updated.Values, state.Value{Field: "цель", Text: "собрать аудиторию"})
	require.NoError(t, store.Save(ctx, updated))

	reopened := NewFileStore(path)
	all, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	if diff := cmp.Diff(updated, all[10]); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "news", all[20].PromptKey)
	assert.NoError(t, reopened.Close())
}

func TestFileStoreCorruptFileYieldsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewFileStore(path)
	got, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Empty(t, got)

	require.NoError(t, store.Save(context.Background(), sampleDraft(1)))
	got, err = NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFileStoreSaveFailureKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	path := filepath.Join(blocker, "drafts.json")
	store := NewFileStore(path)
	ctx := context.Background()
	assert.Error(t, store.Save(ctx, sampleDraft(1)))

	require.NoError(t, os.Remove(blocker))
	require.NoError(t, os.Mkdir(blocker, 0o755))
	require.NoError(t, store.Save(ctx, sampleDraft(2)))

	got, err := NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, int64(2))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := Migrations.ReadDir(MigrationsDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"000001_drafts.down.sql", "000001_drafts.up.sql"}, names)
}
