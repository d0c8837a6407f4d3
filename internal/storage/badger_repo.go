package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

const badgerKeyPrefix = "checkpoint:"

// BadgerCheckpointRepo хранит записи чекпоинтов во встроенной BadgerDB
type BadgerCheckpointRepo struct {
	db      *badger.DB
	dir     string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerCheckpointRepo открывает (или создаёт) базу в каталоге dir
func NewBadgerCheckpointRepo(dir string) (*BadgerCheckpointRepo, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerCheckpointRepo{
		db:      db,
		dir:     dir,
		isReady: true,
	}, nil
}

func badgerKey(playerID string) []byte {
	return []byte(badgerKeyPrefix + playerID)
}

// Save сохраняет запись игрока
func (r *BadgerCheckpointRepo) Save(ctx context.Context, playerID string, rec Record) error {
	if err := r.ready(ctx, playerID); err != nil {
		return err
	}
	defer r.mutex.RUnlock()

	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(playerID), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load загружает запись игрока
func (r *BadgerCheckpointRepo) Load(ctx context.Context, playerID string) (Record, bool, error) {
	if err := r.ready(ctx, playerID); err != nil {
		return Record{}, false, err
	}
	defer r.mutex.RUnlock()

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(playerID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Delete удаляет запись игрока
func (r *BadgerCheckpointRepo) Delete(ctx context.Context, playerID string) error {
	if err := r.ready(ctx, playerID); err != nil {
		return err
	}
	defer r.mutex.RUnlock()

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(playerID))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// Count возвращает количество сохранённых записей
func (r *BadgerCheckpointRepo) Count() (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return 0, fmt.Errorf("хранилище не готово")
	}

	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close закрывает базу
func (r *BadgerCheckpointRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}
	r.isReady = false
	return r.db.Close()
}

// ready проверяет аргументы и берёт read-lock, который снимает вызывающий
func (r *BadgerCheckpointRepo) ready(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}

	r.mutex.RLock()
	if !r.isReady {
		r.mutex.RUnlock()
		return fmt.Errorf("хранилище не готово")
	}
	return nil
}
