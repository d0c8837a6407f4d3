package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig настройки подключения к MongoDB
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. parkour
	Collection string // e.g. checkpoints
}

// MongoCheckpointRepo хранит записи документами {_id: playerID, checkpointPosition: {x, y, z}}
type MongoCheckpointRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type mongoPosition struct {
	X *float64 `bson:"x"`
	Y *float64 `bson:"y"`
	Z *float64 `bson:"z"`
}

type mongoCheckpointDoc struct {
	PlayerID           string         `bson:"_id"`
	CheckpointPosition *mongoPosition `bson:"checkpointPosition"`
	UpdatedAt          time.Time      `bson:"updatedAt"`
}

// NewMongoCheckpointRepo подключается к MongoDB
func NewMongoCheckpointRepo(ctx context.Context, cfg MongoConfig) (*MongoCheckpointRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "parkour"
	}
	if cfg.Collection == "" {
		cfg.Collection = "checkpoints"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	repo := &MongoCheckpointRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (m *MongoCheckpointRepo) ensureIndexes(ctx context.Context) error {
	updatedIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "updatedAt", Value: 1}},
		Options: options.Index().SetName("updated_at"),
	}
	_, err := m.collection.Indexes().CreateOne(ctx, updatedIdx)
	return err
}

// Save сохраняет запись игрока (upsert по _id)
func (m *MongoCheckpointRepo) Save(ctx context.Context, playerID string, rec Record) error {
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}
	p := rec.CheckpointPosition
	if !p.IsFinite() {
		return fmt.Errorf("%w: non-finite position", ErrCorruptRecord)
	}

	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	doc := mongoCheckpointDoc{
		PlayerID:           playerID,
		CheckpointPosition: &mongoPosition{X: &p.X, Y: &p.Y, Z: &p.Z},
		UpdatedAt:          time.Now().UTC(),
	}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": playerID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save checkpoint: %w", err)
	}
	return nil
}

// Load загружает запись игрока
func (m *MongoCheckpointRepo) Load(ctx context.Context, playerID string) (Record, bool, error) {
	if err := ValidatePlayerID(playerID); err != nil {
		return Record{}, false, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res := m.collection.FindOne(ctx, bson.M{"_id": playerID})
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		return Record{}, false, nil
	}
	if res.Err() != nil {
		return Record{}, false, fmt.Errorf("mongo load checkpoint: %w", res.Err())
	}

	var doc mongoCheckpointDoc
	if err := res.Decode(&doc); err != nil {
		// Нечисловые координаты не декодируются в float64
		return Record{}, false, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	p := doc.CheckpointPosition
	if p == nil || p.X == nil || p.Y == nil || p.Z == nil {
		return Record{}, false, fmt.Errorf("%w: missing coordinate", ErrCorruptRecord)
	}
	rec, err := newRecord(*p.X, *p.Y, *p.Z)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Delete удаляет запись игрока
func (m *MongoCheckpointRepo) Delete(ctx context.Context, playerID string) error {
	if err := ValidatePlayerID(playerID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": playerID}); err != nil {
		return fmt.Errorf("mongo delete checkpoint: %w", err)
	}
	return nil
}

// Close отключается от MongoDB
func (m *MongoCheckpointRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
