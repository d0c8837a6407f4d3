package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

var mariaDialect = sqlDialect{
	name: "MariaDB",
	createTable: `
		CREATE TABLE IF NOT EXISTS player_checkpoints (
			player_id  VARCHAR(128) PRIMARY KEY,
			record     TEXT         NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP,
			INDEX idx_updated_at (updated_at)
		) ENGINE=InnoDB
	`,
	upsert: `
		INSERT INTO player_checkpoints (player_id, record)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE
			record = VALUES(record),
			updated_at = CURRENT_TIMESTAMP
	`,
}

// NewMariaCheckpointRepo подключается к MariaDB/MySQL и создает таблицу, если её нет.
//
// Параметры:
//
//	dsn - строка подключения (user:pass@tcp(host:port)/dbname)
func NewMariaCheckpointRepo(ctx context.Context, dsn string) (*SQLCheckpointRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}
	return newSQLCheckpointRepo(ctx, db, mariaDialect)
}
