package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqlDialect различия схемы и upsert между MariaDB и SQLite
type sqlDialect struct {
	name        string
	createTable string
	upsert      string
}

// SQLCheckpointRepo реализует CheckpointRepo поверх database/sql.
// Запись хранится JSON текстом в таблице player_checkpoints.
type SQLCheckpointRepo struct {
	db      *sql.DB
	dialect sqlDialect
}

func newSQLCheckpointRepo(ctx context.Context, db *sql.DB, dialect sqlDialect) (*SQLCheckpointRepo, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с %s: %w", dialect.name, err)
	}

	if _, err := db.ExecContext(ctx, dialect.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы player_checkpoints: %w", err)
	}

	return &SQLCheckpointRepo{db: db, dialect: dialect}, nil
}

// Save сохраняет запись игрока (upsert)
func (r *SQLCheckpointRepo) Save(ctx context.Context, playerID string, rec Record) error {
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, r.dialect.upsert, playerID, string(data)); err != nil {
		return fmt.Errorf("ошибка сохранения чекпоинта игрока %s: %w", playerID, err)
	}
	return nil
}

// Load загружает запись игрока
func (r *SQLCheckpointRepo) Load(ctx context.Context, playerID string) (Record, bool, error) {
	if err := ValidatePlayerID(playerID); err != nil {
		return Record{}, false, err
	}

	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT record FROM player_checkpoints WHERE player_id = ?`, playerID,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		// Первый вход игрока
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("ошибка загрузки чекпоинта игрока %s: %w", playerID, err)
	}

	rec, err := DecodeRecord([]byte(data))
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Delete удаляет запись игрока
func (r *SQLCheckpointRepo) Delete(ctx context.Context, playerID string) error {
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM player_checkpoints WHERE player_id = ?`, playerID); err != nil {
		return fmt.Errorf("ошибка удаления чекпоинта игрока %s: %w", playerID, err)
	}
	return nil
}

// putRaw записывает произвольный текст записи (повреждённые данные в тестах)
func (r *SQLCheckpointRepo) putRaw(ctx context.Context, playerID, data string) error {
	_, err := r.db.ExecContext(ctx, r.dialect.upsert, playerID, data)
	return err
}

// Close закрывает соединение с базой данных
func (r *SQLCheckpointRepo) Close() error {
	return r.db.Close()
}
