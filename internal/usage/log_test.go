package usage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRecordWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	log := New(path, Options{Now: fixedNow})
	assert.False(t, log.Exists())

	require.NoError(t, log.Record(42, EventRecv, "/start", ""))
	require.NoError(t, log.Record(42, EventField, "тема=боты, \"квоты\"", "idea"))
	assert.True(t, log.Exists())

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"2025-03-14 09:26:53", "42", "recv", "/start", ""}, rows[1])
	assert.Equal(t, "тема=боты, \"квоты\"", rows[2][3])
	assert.Equal(t, "idea", rows[2][4])
}

func TestLinesCountsRecordsNotNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	log := New(path, Options{Now: fixedNow})

	n, err := log.Lines()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, log.EnsureHeader())
	n, err = log.Lines()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, log.Record(1, EventField, "строка\nвторая", "news"))
	require.NoError(t, log.Record(1, EventPromptGenerated, "", "news"))
	n, err = log.Lines()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	log := New(filepath.Join(dir, "stats.csv"), Options{Now: fixedNow})
	require.NoError(t, log.Record(7, EventStart, "", ""))

	path := filepath.Join(dir, "summary.json")
	s, err := WriteSummary(path, log, 100)
	require.NoError(t, err)
	assert.Equal(t, Summary{SnapshotAt: "2025-03-14 09:26:53", StatsLines: 1, Requests: 100}, s)

	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	SnapshotFunc(path, log)(context.Background(), 3)
	got, err = ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Requests)
}

func TestWriteSummaryKeepsSnapshotWhenLogIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	statsPath := filepath.Join(dir, "stats.csv")
	log := New(statsPath, Options{Now: fixedNow})
	require.NoError(t, log.Record(7, EventStart, "", ""))

	path := filepath.Join(dir, "summary.json")
	_, err := WriteSummary(path, log, 5)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(statsPath, []byte("ts,chat\nbro\"ken,1\n"), 0o644))
	_, err = WriteSummary(path, log, 9)
	require.Error(t, err)

	SnapshotFunc(path, log)(context.Background(), 9)
	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, Summary{SnapshotAt: "2025-03-14 09:26:53", StatsLines: 1, Requests: 5}, got)
}
