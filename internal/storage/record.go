package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/parkour-course/internal/vec"
)

var (
	// ErrCorruptRecord сохранённая запись не разбирается или в ней нет координат
	ErrCorruptRecord = errors.New("corrupt checkpoint record")
	// ErrInvalidPlayerID пустой или слишком длинный идентификатор игрока
	ErrInvalidPlayerID = errors.New("invalid player id")
)

// MaxPlayerIDLength ограничение длины ключа во всех бэкендах
const MaxPlayerIDLength = 128

// Record сохранённый прогресс игрока: {"checkpointPosition": {"x", "y", "z"}}
type Record struct {
	CheckpointPosition vec.Vec3Float `json:"checkpointPosition"`
}

// rawRecord форма для декодирования, где отсутствующее поле отличимо от нуля
type rawRecord struct {
	CheckpointPosition *struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	} `json:"checkpointPosition"`
}

// EncodeRecord сериализует запись в JSON
func EncodeRecord(r Record) ([]byte, error) {
	if !r.CheckpointPosition.IsFinite() {
		return nil, fmt.Errorf("encode record: %w: non-finite position", ErrCorruptRecord)
	}
	return json.Marshal(r)
}

// DecodeRecord разбирает JSON запись. Отсутствующие или нечисловые координаты
// дают ErrCorruptRecord.
func DecodeRecord(data []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return raw.toRecord()
}

func (r rawRecord) toRecord() (Record, error) {
	p := r.CheckpointPosition
	if p == nil || p.X == nil || p.Y == nil || p.Z == nil {
		return Record{}, fmt.Errorf("%w: missing coordinate", ErrCorruptRecord)
	}
	return newRecord(*p.X, *p.Y, *p.Z)
}

func newRecord(x, y, z float64) (Record, error) {
	pos := vec.Vec3Float{X: x, Y: y, Z: z}
	if !pos.IsFinite() {
		return Record{}, fmt.Errorf("%w: non-finite coordinate", ErrCorruptRecord)
	}
	return Record{CheckpointPosition: pos}, nil
}

// ValidatePlayerID проверяет ключ игрока
func ValidatePlayerID(playerID string) error {
	if strings.TrimSpace(playerID) == "" || len(playerID) > MaxPlayerIDLength {
		return fmt.Errorf("%w: %q", ErrInvalidPlayerID, playerID)
	}
	return nil
}
