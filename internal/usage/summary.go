package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/m3rciful/promptbinder/core/logger"
	"github.com/m3rciful/promptbinder/internal/fileutil"
)

// Summary is the periodic snapshot written next to the usage log.
type Summary struct {
	SnapshotAt string `json:"snapshot_at"`
	StatsLines int    `json:"stats_lines"`
	Requests   int    `json:"requests"`
}

// WriteSummary snapshots the row count of log and the number of polls since
// the previous snapshot into path. The file is replaced atomically. An
// unreadable log leaves the previous snapshot in place.
func WriteSummary(path string, log *Log, requests int) (Summary, error) {
	lines, err := log.Lines()
	if err != nil {
		return Summary{}, fmt.Errorf("usage: count rows: %w", err)
	}
	s := Summary{
		SnapshotAt: log.now().Format(TimeLayout),
		StatsLines: lines,
		Requests:   requests,
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return s, err
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return s, fmt.Errorf("usage: write summary: %w", err)
	}
	return s, nil
}

// ReadSummary loads a snapshot written by WriteSummary.
func ReadSummary(path string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("usage: parse summary: %w", err)
	}
	return s, nil
}

// SnapshotFunc adapts WriteSummary to the update loop snapshot hook.
func SnapshotFunc(path string, log *Log) func(ctx context.Context, polls int) {
	return func(ctx context.Context, polls int) {
		s, err := WriteSummary(path, log, polls)
		if err != nil {
			logger.LogEvent(ctx, logger.Usage, slog.LevelWarn, "summary",
				slog.String("status", "fail"),
				slog.String("path", path),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return
		}
		logger.LogEvent(ctx, logger.Usage, slog.LevelInfo, "summary",
			slog.String("status", "ok"),
			slog.Int("count", s.StatsLines),
			slog.Int("polls", s.Requests),
		)
	}
}
