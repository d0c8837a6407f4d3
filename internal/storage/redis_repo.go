package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCheckpointRepo хранит записи чекпоинтов в Redis как JSON строки
type RedisCheckpointRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей, 0 - без ограничения
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "parkour:checkpoint:",
		TTL:       30 * 24 * time.Hour,
	}
}

// NewRedisCheckpointRepo подключается к Redis и проверяет соединение
func NewRedisCheckpointRepo(ctx context.Context, config *RedisConfig) (*RedisCheckpointRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCheckpointRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

// Save сохраняет запись игрока
func (r *RedisCheckpointRepo) Save(ctx context.Context, playerID string, rec Record) error {
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.keyPrefix+playerID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load загружает запись игрока
func (r *RedisCheckpointRepo) Load(ctx context.Context, playerID string) (Record, bool, error) {
	if err := ValidatePlayerID(playerID); err != nil {
		return Record{}, false, err
	}

	data, err := r.client.Get(ctx, r.keyPrefix+playerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	} else if err != nil {
		return Record{}, false, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Delete удаляет запись игрока
func (r *RedisCheckpointRepo) Delete(ctx context.Context, playerID string) error {
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.keyPrefix+playerID).Err(); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisCheckpointRepo) Close() error {
	return r.client.Close()
}
