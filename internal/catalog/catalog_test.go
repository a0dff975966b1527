package catalog

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categories(n int) []Category {
	out := make([]Category, 0, n)
	for i := range n {
		out = append(out, Category{ID: "c" + strconv.Itoa(i), Title: "Категория " + strconv.Itoa(i)})
	}
	return out
}

func TestNewAlwaysHasMenuWidthCategories(t *testing.T) {
	for n := 0; n <= 9; n++ {
		c := New(categories(n), nil)
		cats := c.Categories()
		require.Len(t, cats, MenuWidth, "n=%d", n)
		for i, cat := range cats {
			if i < n {
				assert.False(t, cat.Placeholder)
				continue
			}
			assert.True(t, cat.Placeholder)
			assert.Equal(t, "more"+strconv.Itoa(i+1), cat.ID)
			assert.Equal(t, "➕ Другие", cat.Label)
			assert.Empty(t, cat.Items)
		}
	}
}

func TestNewCapsItemsAndSkipsDuplicatePrompts(t *testing.T) {
	cat := Category{ID: "x", Title: "X", Items: []string{"a", "b", "c", "d", "e", "f", "g"}}
	c := New([]Category{cat}, []Prompt{{Key: "a", Title: "First"}, {Key: "a", Title: "Second"}})
	got, _ := c.Category("x")
	assert.Len(t, got.Items, MaxItems)

	p, ok := c.Prompt("a")
	require.True(t, ok)
	assert.Equal(t, "First", p.Title)
	assert.Len(t, c.Items(got), 1, "unknown keys are not listed")
}

func TestParseKeepsPromptFileOrder(t *testing.T) {
	c, err := Parse([]byte(`{"categories":[],"prompts":{"zeta":{"title":"Z"},"alpha":{"title":"A"},"mid":{"title":"M"}}}`))
	require.NoError(t, err)
	var keys []string
	for _, p := range c.Prompts() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
}

func TestSampleCatalog(t *testing.T) {
	c := Sample()
	cats := c.Categories()
	require.Len(t, cats, MenuWidth)
	assert.Equal(t, "✨ Креатив — идеи, слоганы", cats[0].Label)
	assert.Equal(t, "📑 Работа — письма, структура", cats[5].Label)
	assert.Len(t, c.Prompts(), 10)

	p, ok := c.Prompt("script")
	require.True(t, ok)
	assert.Equal(t, "Сценарий  🎞️", p.Label)
	assert.Equal(t, "20 сек", p.Example("длительность"))
}

func TestMatching(t *testing.T) {
	c := Sample()

	cat, ok := c.MatchCategory("🎬 Видео — сценарии, ролики")
	require.True(t, ok)
	assert.Equal(t, "video", cat.ID)
	cat, ok = c.MatchCategory("Видео")
	require.True(t, ok)
	assert.Equal(t, "video", cat.ID)
	_, ok = c.MatchCategory("видео")
	assert.False(t, ok, "category match is exact")

	for _, text := range []string{"Идея  💡", "Идея", "ИДЕЯ", "идея"} {
		p, ok := c.MatchPrompt(text)
		require.True(t, ok, text)
		assert.Equal(t, "idea", p.Key, text)
	}
	_, ok = c.MatchPrompt("")
	assert.False(t, ok)

	cat, ok = c.MatchIndex("3")
	require.True(t, ok)
	assert.Equal(t, "video", cat.ID)
	for _, text := range []string{"0", "7", "-1", "2.5", "", "３"} {
		_, ok := c.MatchIndex(text)
		assert.False(t, ok, text)
	}
}

func TestLoadWritesSampleWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "prompts.json")
	c, report := Load(path)
	assert.Equal(t, SourceSample, report.Source)
	assert.NoError(t, report.WriteErr)
	assert.Len(t, c.Prompts(), 10)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, data)

	_, report = Load(path)
	assert.Equal(t, SourceFile, report.Source)
}

func TestLoadReplacesMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories": [`), 0o644))

	c, report := Load(path)
	assert.Equal(t, SourceSample, report.Source)
	assert.Error(t, report.Err)
	assert.Len(t, c.Prompts(), 10)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, data)
}

func TestLoadReportsSampleWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	c, report := Load(filepath.Join(blocker, "prompts.json"))
	assert.Equal(t, SourceSample, report.Source)
	assert.Error(t, report.WriteErr)
	assert.Len(t, c.Categories(), MenuWidth)
}
