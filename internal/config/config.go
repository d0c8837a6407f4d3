// Package config загружает конфигурацию сервера трассы: значения по умолчанию,
// затем YAML файл, затем переменные окружения PARKOUR_*.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "PARKOUR_"

// Config корневая структура конфигурации приложения
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Course    CourseConfig    `yaml:"course" envPrefix:"COURSE_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	EventBus  EventBusConfig  `yaml:"eventbus" envPrefix:"EVENTBUS_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"OTEL_"`
	Admin     AdminConfig     `yaml:"admin" envPrefix:"ADMIN_"`
}

type ServerConfig struct {
	AdminPort   int `yaml:"admin_port" env:"ADMIN_PORT"`
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
}

// CourseConfig карта, маркеры и параметры автомата
type CourseConfig struct {
	MapPath        string `yaml:"map_path" env:"MAP_PATH"`
	GeneratorSeed  int64  `yaml:"generator_seed" env:"GENERATOR_SEED"`
	GeneratorCount int    `yaml:"generator_checkpoints" env:"GENERATOR_CHECKPOINTS"`

	CheckpointIDs []int          `yaml:"checkpoint_ids" env:"CHECKPOINT_IDS" envSeparator:","`
	HazardIDs     []int          `yaml:"hazard_ids" env:"HAZARD_IDS" envSeparator:","`
	Conveyors     map[int]string `yaml:"conveyors"`

	FallThreshold    float64 `yaml:"fall_threshold" env:"FALL_THRESHOLD"`
	RestoreThreshold float64 `yaml:"restore_threshold" env:"RESTORE_THRESHOLD"`
	ConveyorPush     float64 `yaml:"conveyor_push" env:"CONVEYOR_PUSH"`
	ConveyorOppose   float64 `yaml:"conveyor_oppose_threshold" env:"CONVEYOR_OPPOSE_THRESHOLD"`
	ConveyorDamping  float64 `yaml:"conveyor_damping" env:"CONVEYOR_DAMPING"`
}

// StorageConfig тип хранилища и настройки бэкендов
type StorageConfig struct {
	Type string `yaml:"type" env:"TYPE"` // memory, sqlite, badger, redis, mariadb, mongo

	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	BadgerDir  string `yaml:"badger_dir" env:"BADGER_DIR"`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
	RedisTTLHours int    `yaml:"redis_ttl_hours" env:"REDIS_TTL_HOURS"`

	MariaDSN string `yaml:"maria_dsn" env:"MARIA_DSN"`

	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE"`

	WriteTimeout int `yaml:"write_timeout_ms" env:"WRITE_TIMEOUT_MS"` // таймаут записи пачки
}

type EventBusConfig struct {
	Type      string `yaml:"type" env:"TYPE"` // memory, nats
	URL       string `yaml:"url" env:"URL"`
	Stream    string `yaml:"stream" env:"STREAM"`
	Retention int    `yaml:"retention_hours" env:"RETENTION_HOURS"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	Dir   string `yaml:"dir" env:"DIR"`
	JSON  bool   `yaml:"json" env:"JSON"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
}

type AdminConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{AdminPort: 8088, MetricsPort: 2112},
		Course: CourseConfig{
			GeneratorSeed:    42,
			GeneratorCount:   10,
			CheckpointIDs:    []int{15},
			HazardIDs:        []int{16},
			Conveyors:        map[int]string{20: "+z", 21: "-z", 22: "+x", 23: "-x"},
			FallThreshold:    50,
			RestoreThreshold: 5,
			ConveyorPush:     0.3,
			ConveyorOppose:   0.1,
			ConveyorDamping:  0.5,
		},
		Storage: StorageConfig{
			Type:          "sqlite",
			SQLitePath:    "data/checkpoints.db",
			BadgerDir:     "data/checkpoints",
			RedisAddr:     "localhost:6379",
			RedisTTLHours: 24 * 30,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "parkour",
			WriteTimeout:  2000,
		},
		EventBus: EventBusConfig{
			Type:      "memory",
			URL:       "nats://127.0.0.1:4222",
			Stream:    "PARKOUR",
			Retention: 24,
		},
		Logging:   LoggingConfig{Level: "info", Dir: "logs"},
		Telemetry: TelemetryConfig{ServiceName: "parkour-course", Endpoint: "localhost:4318"},
		Admin:     AdminConfig{Enabled: true},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию и применяет окружение.
// Если path == "", используется PARKOUR_CONFIG; без файла остаются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var storageTypes = map[string]bool{
	"memory": true, "sqlite": true, "badger": true, "redis": true, "mariadb": true, "mongo": true,
}

// ErrInvalidConfig общая причина ошибок валидации
var ErrInvalidConfig = errors.New("invalid config")

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	var problems []string

	if c.Course.FallThreshold <= 0 {
		problems = append(problems, "course.fall_threshold must be positive")
	}
	if c.Course.RestoreThreshold < 0 {
		problems = append(problems, "course.restore_threshold must not be negative")
	}
	if c.Course.ConveyorPush < 0 || c.Course.ConveyorOppose < 0 || c.Course.ConveyorDamping < 0 {
		problems = append(problems, "course conveyor forces must not be negative")
	}
	if c.Course.MapPath == "" && c.Course.GeneratorCount < 1 {
		problems = append(problems, "course.generator_checkpoints must be at least 1 without map_path")
	}
	if !storageTypes[c.Storage.Type] {
		problems = append(problems, fmt.Sprintf("unknown storage.type %q", c.Storage.Type))
	}
	if c.EventBus.Type != "memory" && c.EventBus.Type != "nats" {
		problems = append(problems, fmt.Sprintf("unknown eventbus.type %q", c.EventBus.Type))
	}
	if c.Admin.Enabled && c.Admin.JWTSecret != "" && len(c.Admin.JWTSecret) < 16 {
		problems = append(problems, "admin.jwt_secret must be at least 16 characters")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
