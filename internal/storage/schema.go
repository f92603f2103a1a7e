package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Slot names. Each store owns its own slots; there is no cross-store transaction.
const (
	SlotTasks     = "tasks"
	SlotMissions  = "missions"
	SlotVisions   = "visions"
	SlotValues    = "core_values"
	SlotContexts  = "contexts"
	SlotXP        = "xp"
	SlotLevel     = "level"
	SlotXPHistory = "xp_history"
)

// AllSlots lists every slot in export order.
var AllSlots = []string{
	SlotTasks, SlotMissions, SlotVisions, SlotValues, SlotContexts,
	SlotXP, SlotLevel, SlotXPHistory,
}

// slotShape returns a fresh destination of the Go type stored under key.
var slotShape = map[string]func() any{
	SlotTasks:     func() any { return &[]Task{} },
	SlotMissions:  func() any { return &[]Mission{} },
	SlotVisions:   func() any { return &[]Statement{} },
	SlotValues:    func() any { return &[]Statement{} },
	SlotContexts:  func() any { return &[]Context{} },
	SlotXP:        func() any { return new(int) },
	SlotLevel:     func() any { return new(int) },
	SlotXPHistory: func() any { return &[]XPEntry{} },
}

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS slots (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS schema_meta (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Databases created before updated_at existed.
	alterStmts := []string{
		`ALTER TABLE slots ADD COLUMN updated_at DATETIME;`,
	}
	for _, stmt := range alterStmts {
		_, err := db.ExecContext(ctx, stmt)
		if err != nil && !strings.Contains(err.Error(), "duplicate column") {
			return fmt.Errorf("migrate alter: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO schema_meta (name, value) VALUES ('version', '1')
		ON CONFLICT(name) DO NOTHING
	`); err != nil {
		return fmt.Errorf("migrate meta: %w", err)
	}

	return nil
}
