// Package drafts mirrors in-progress field answers to durable storage.
// Drafts are written after every captured field and are kept for recovery
// inspection only; nothing reads them back into live conversations.
package drafts

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/promptbinder/core/telegram/state"
)

// Migrations holds the Postgres schema for the drafts table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the SQL files.
const MigrationsDir = "migrations"

// ErrCorrupt reports a drafts file that could not be decoded.
var ErrCorrupt = errors.New("drafts: corrupt storage")

// Draft is the persisted snapshot of one chat's active flow.
type Draft struct {
	ChatID    int64     `json:"chat_id"`
	FlowID    uuid.UUID `json:"flow_id"`
	PromptKey string    `json:"prompt"`
	Values    Values    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromSession builds a draft of the session's current answers.
func FromSession(chatID int64, s *state.Session, now time.Time) Draft {
	return Draft{
		ChatID:    chatID,
		FlowID:    s.FlowID,
		PromptKey: s.PromptKey,
		Values:    append(Values(nil), s.Values...),
		UpdatedAt: now,
	}
}

// Store persists drafts keyed by chat.
type Store interface {
	// Save overwrites the chat's draft and flushes it before returning.
	Save(ctx context.Context, d Draft) error
	// Load returns every stored draft. Missing storage yields an empty map.
	Load(ctx context.Context) (map[int64]Draft, error)
	Close() error
}

// Values are field answers in fill order, encoded as a JSON object whose
// key order follows that order.
type Values []state.Value

func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, val := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(val.Field)
		if err != nil {
			return nil, err
		}
		t, err := json.Marshal(val.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(t)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v *Values) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("drafts: values must be an object")
	}
	out := Values{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		field, _ := tok.(string)
		var text string
		if err := dec.Decode(&text); err != nil {
			return err
		}
		out = append(out, state.Value{Field: field, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*v = out
	return nil
}

// Map returns the answers keyed by field.
func (v Values) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, val := range v {
		out[val.Field] = val.Text
	}
	return out
}
