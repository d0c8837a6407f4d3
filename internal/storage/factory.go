package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/parkour-course/internal/config"
	"github.com/annel0/parkour-course/internal/logging"
)

// Open создаёт репозиторий по типу из конфигурации
func Open(ctx context.Context, cfg config.StorageConfig) (CheckpointRepo, error) {
	log := logging.GetStorageLogger()

	switch cfg.Type {
	case "memory":
		log.Warn("⚠️ Using in-memory checkpoint storage, progress is lost on restart")
		return NewMemoryCheckpointRepo(), nil

	case "sqlite":
		repo, err := NewSQLiteCheckpointRepo(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("🗄️ SQLite checkpoint storage at %s", cfg.SQLitePath)
		return repo, nil

	case "badger":
		repo, err := NewBadgerCheckpointRepo(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		log.Info("🗄️ BadgerDB checkpoint storage at %s", cfg.BadgerDir)
		return repo, nil

	case "redis":
		repo, err := NewRedisCheckpointRepo(ctx, &RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: DefaultRedisConfig().KeyPrefix,
			TTL:       time.Duration(cfg.RedisTTLHours) * time.Hour,
		})
		if err != nil {
			return nil, err
		}
		log.Info("🔴 Connected to Redis at %s", cfg.RedisAddr)
		return repo, nil

	case "mariadb":
		repo, err := NewMariaCheckpointRepo(ctx, cfg.MariaDSN)
		if err != nil {
			return nil, err
		}
		log.Info("🐬 Connected to MariaDB")
		return repo, nil

	case "mongo":
		repo, err := NewMongoCheckpointRepo(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, err
		}
		log.Info("🍃 Connected to MongoDB %s", cfg.MongoDatabase)
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
