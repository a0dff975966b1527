package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const upsertDraft = `
INSERT INTO drafts (chat_id, flow_id, prompt_key, data, updated_at)
VALUES (:chat_id, :flow_id, :prompt_key, CAST(:data AS json), :updated_at)
ON CONFLICT (chat_id) DO UPDATE SET
    flow_id    = EXCLUDED.flow_id,
    prompt_key = EXCLUDED.prompt_key,
    data       = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at`

const selectDrafts = `SELECT chat_id, flow_id, prompt_key, data, updated_at FROM drafts`

type draftRow struct {
	ChatID    int64     `db:"chat_id"`
	FlowID    uuid.UUID `db:"flow_id"`
	PromptKey string    `db:"prompt_key"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toRow(d Draft) (draftRow, error) {
	data, err := json.Marshal(d.Values)
	if err != nil {
		return draftRow{}, err
	}
	return draftRow{
		ChatID:    d.ChatID,
		FlowID:    d.FlowID,
		PromptKey: d.PromptKey,
		Data:      string(data),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func (r draftRow) draft() (Draft, error) {
	var values Values
	if err := json.Unmarshal([]byte(r.Data), &values); err != nil {
		return Draft{}, fmt.Errorf("%w: chat %d: %v", ErrCorrupt, r.ChatID, err)
	}
	return Draft{
		ChatID:    r.ChatID,
		FlowID:    r.FlowID,
		PromptKey: r.PromptKey,
		Values:    values,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// PostgresStore keeps drafts in the drafts table, one row per chat.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection. The schema comes from Migrations.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, d Draft) error {
	row, err := toRow(d)
	if err != nil {
		return fmt.Errorf("drafts: encode: %w", err)
	}
	if _, err := s.db.NamedExecContext(ctx, upsertDraft, row); err != nil {
		return fmt.Errorf("drafts: upsert chat %d: %w", d.ChatID, err)
	}
	return nil
}

// Load returns all drafts; rows that fail to decode are skipped and reported.
func (s *PostgresStore) Load(ctx context.Context) (map[int64]Draft, error) {
	var rows []draftRow
	if err := s.db.SelectContext(ctx, &rows, selectDrafts); err != nil {
		return map[int64]Draft{}, fmt.Errorf("drafts: load: %w", err)
	}
	out := make(map[int64]Draft, len(rows))
	var errs []error
	for _, r := range rows {
		d, err := r.draft()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[d.ChatID] = d
	}
	return out, errors.Join(errs...)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
