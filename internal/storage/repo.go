// Package storage хранит прогресс игроков по трассе: одна запись
// {checkpointPosition} на игрока в выбранном бэкенде.
package storage

import "context"

// CheckpointRepo определяет интерфейс хранилища чекпоинтов игроков.
// Ключ - постоянный идентификатор игрока, значение - Record.
type CheckpointRepo interface {
	// Save записывает или заменяет запись игрока.
	Save(ctx context.Context, playerID string, rec Record) error

	// Load читает запись игрока.
	// Возвращает:
	//   Record - сохранённая позиция
	//   bool - false если записи нет (первый вход)
	//   error - ошибка бэкенда или ErrCorruptRecord для неразборчивой записи
	Load(ctx context.Context, playerID string) (Record, bool, error)

	// Delete удаляет запись игрока (сброс прогресса).
	Delete(ctx context.Context, playerID string) error

	// Close освобождает ресурсы бэкенда.
	Close() error
}
