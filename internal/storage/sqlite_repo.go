package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var sqliteDialect = sqlDialect{
	name: "SQLite",
	createTable: `
		CREATE TABLE IF NOT EXISTS player_checkpoints (
			player_id  TEXT PRIMARY KEY,
			record     TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (unixepoch())
		)
	`,
	upsert: `
		INSERT INTO player_checkpoints (player_id, record)
		VALUES (?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			record = excluded.record,
			updated_at = unixepoch()
	`,
}

// NewSQLiteCheckpointRepo открывает файл SQLite (создаёт каталог при необходимости)
func NewSQLiteCheckpointRepo(ctx context.Context, path string) (*SQLCheckpointRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть SQLite: %w", err)
	}
	// Один писатель на файл
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA busy_timeout=5000`,
		`PRAGMA synchronous=NORMAL`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}

	return newSQLCheckpointRepo(ctx, db, sqliteDialect)
}
