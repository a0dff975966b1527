// Package usage keeps the append-only usage log (stats.csv) and the
// periodic summary snapshot derived from it.
package usage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// TimeLayout is the timestamp format of log rows and summaries.
const TimeLayout = "2006-01-02 15:04:05"

// Header is the first row of every usage log.
var Header = []string{"timestamp", "chat_id", "event", "detail", "prompt"}

// Event names written by the bot.
const (
	EventRecv            = "recv"
	EventStart           = "start"
	EventHelp            = "help"
	EventOpenCategory    = "open_category"
	EventStartPrompt     = "start_prompt"
	EventField           = "field"
	EventPromptGenerated = "prompt_generated"
	EventCopy            = "copy"
	EventCancel          = "cancel"
	EventExport          = "export"
	EventRateLimited     = "rate_limited"
)

// Options tunes a Log.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// Log appends CSV rows to a file, writing the header when the file is new.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New returns a Log writing to path. The file is created lazily.
func New(path string, opts Options) *Log {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Log{path: path, now: now}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Exists reports whether the log file is present.
func (l *Log) Exists() bool {
	info, err := os.Stat(l.path)
	return err == nil && info.Mode().IsRegular()
}

// EnsureHeader creates the file with its header row if it does not exist.
func (l *Log) EnsureHeader() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := l.open()
	if err != nil {
		return err
	}
	return f.Close()
}

// Record appends one row.
func (l *Log) Record(chatID int64, event, detail, prompt string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{
		l.now().Format(TimeLayout),
		strconv.FormatInt(chatID, 10),
		event,
		detail,
		prompt,
	})
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("usage: append: %w", err)
	}
	return f.Close()
}

// Lines counts data rows, excluding the header. A missing file has zero.
func (l *Log) Lines() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	rows := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("usage: read: %w", err)
		}
		rows++
	}
	if rows == 0 {
		return 0, nil
	}
	return rows - 1, nil
}

// open returns the log opened for appending, writing the header first when
// the file is empty. Callers hold l.mu.
func (l *Log) open() (*os.File, error) {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("usage: mkdir: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("usage: open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("usage: stat: %w", err)
	}
	if info.Size() > 0 {
		return f, nil
	}
	w := csv.NewWriter(f)
	_ = w.Write(Header)
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("usage: header: %w", err)
	}
	return f, nil
}
