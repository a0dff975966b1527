package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/m3rciful/promptbinder/internal/fileutil"
)

// FileStore keeps all drafts in one JSON object keyed by chat id.
type FileStore struct {
	mu     sync.Mutex
	path   string
	drafts map[int64]Draft
}

// NewFileStore returns a store backed by path. Call Load to read existing drafts.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, drafts: make(map[int64]Draft)}
}

// Load reads the file into memory. A missing file yields an empty map; a
// corrupt one yields an empty map and an error wrapping ErrCorrupt.
func (s *FileStore) Load(context.Context) (map[int64]Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drafts = make(map[int64]Draft)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[int64]Draft{}, nil
		}
		return map[int64]Draft{}, fmt.Errorf("drafts: read %s: %w", s.path, err)
	}

	var raw map[string]Draft
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[int64]Draft{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	for key, d := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		d.ChatID = id
		s.drafts[id] = d
	}
	return s.snapshot(), nil
}

// Save overwrites the chat's draft and rewrites the file atomically.
func (s *FileStore) Save(_ context.Context, d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.drafts[d.ChatID]
	s.drafts[d.ChatID] = d
	if err := s.flush(); err != nil {
		if had {
			s.drafts[d.ChatID] = prev
		} else {
			delete(s.drafts, d.ChatID)
		}
		return err
	}
	return nil
}

// Close is a no-op; every Save is already flushed.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) flush() error {
	raw := make(map[string]Draft, len(s.drafts))
	for id, d := range s.drafts {
		raw[strconv.FormatInt(id, 10)] = d
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("drafts: encode: %w", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("drafts: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) snapshot() map[int64]Draft {
	out := make(map[int64]Draft, len(s.drafts))
	for id, d := range s.drafts {
		out[id] = d
	}
	return out
}
