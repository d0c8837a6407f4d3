package storage

import (
	"context"
	"sync"
)

// MemoryCheckpointRepo реализует CheckpointRepo в памяти.
// Хранит закодированные байты, чтобы путь декодирования совпадал с остальными бэкендами.
type MemoryCheckpointRepo struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryCheckpointRepo создает новый репозиторий в памяти
func NewMemoryCheckpointRepo() *MemoryCheckpointRepo {
	return &MemoryCheckpointRepo{
		records: make(map[string][]byte),
	}
}

// Save сохраняет запись игрока
func (r *MemoryCheckpointRepo) Save(ctx context.Context, playerID string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}

	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.records[playerID] = data
	r.mu.Unlock()
	return nil
}

// Load загружает запись игрока
func (r *MemoryCheckpointRepo) Load(ctx context.Context, playerID string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	if err := ValidatePlayerID(playerID); err != nil {
		return Record{}, false, err
	}

	r.mu.RLock()
	data, ok := r.records[playerID]
	r.mu.RUnlock()

	if !ok {
		return Record{}, false, nil
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Delete удаляет запись игрока
func (r *MemoryCheckpointRepo) Delete(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.records, playerID)
	r.mu.Unlock()
	return nil
}

// PutRaw кладёт произвольные байты как запись игрока (повреждённые данные в тестах)
func (r *MemoryCheckpointRepo) PutRaw(playerID string, data []byte) {
	r.mu.Lock()
	r.records[playerID] = append([]byte(nil), data...)
	r.mu.Unlock()
}

// Count возвращает количество сохранённых записей
func (r *MemoryCheckpointRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Clear удаляет все записи
func (r *MemoryCheckpointRepo) Clear() {
	r.mu.Lock()
	r.records = make(map[string][]byte)
	r.mu.Unlock()
}

// Close ничего не делает
func (r *MemoryCheckpointRepo) Close() error {
	return nil
}
