package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Slots is a JSON key/value store over the slots table.
type Slots struct {
	db *sql.DB
}

func NewSlots(db *sql.DB) *Slots {
	return &Slots{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Load decodes the slot into dst. A missing slot leaves dst untouched and
// reports found=false, so callers pre-fill dst with their default.
func (s *Slots) Load(ctx context.Context, key string, dst any) (bool, error) {
	return loadSlot(ctx, s.db, key, dst)
}

func (s *Slots) Save(ctx context.Context, key string, v any) error {
	return saveSlot(ctx, s.db, key, v)
}

// SaveMany writes several slots atomically.
func (s *Slots) SaveMany(ctx context.Context, values map[string]any) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for key, v := range values {
			if err := saveSlot(ctx, tx, key, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Raw returns the stored JSON of every present slot, for export.
func (s *Slots) Raw(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM slots ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("slot list: %w", err)
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("slot scan: %w", err)
		}
		out[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slot rows: %w", err)
	}
	return out, nil
}

// Restore replaces the given slots with raw JSON values in one transaction.
// Every value must decode into its slot's type; unknown slot names and
// mismatched shapes reject the whole restore before anything is written.
func (s *Slots) Restore(ctx context.Context, values map[string]json.RawMessage) error {
	for key, raw := range values {
		shape, ok := slotShape[key]
		if !ok {
			return fmt.Errorf("unknown slot %q", key)
		}
		if err := json.Unmarshal(raw, shape()); err != nil {
			return fmt.Errorf("slot %q: %w", key, err)
		}
	}
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for key, raw := range values {
			if err := writeSlot(ctx, tx, key, string(raw)); err != nil {
				return err
			}
		}
		return nil
	})
}

func loadSlot(ctx context.Context, q queryer, key string, dst any) (bool, error) {
	row := q.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("slot %s get: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("slot %s decode: %w", key, err)
	}
	return true, nil
}

func saveSlot(ctx context.Context, e execer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("slot %s encode: %w", key, err)
	}
	return writeSlot(ctx, e, key, string(data))
}

func writeSlot(ctx context.Context, e execer, key string, value string) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("slot %s save: %w", key, err)
	}
	return nil
}
