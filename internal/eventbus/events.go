package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/google/uuid"
)

// Типы событий от хоста (входящие сигналы)
const (
	TypePlayerJoined   = "player.joined"
	TypePlayerLeft     = "player.left"
	TypePlayerReset    = "player.reset"
	TypeBlockCollision = "entity.block_collision"
	TypePositionUpdate = "entity.position_update"
)

// Типы команд хосту (исходящие)
const (
	TypeTeleport      = "entity.teleport"
	TypeImpulse       = "entity.impulse"
	TypePlayerMessage = "player.message"
	TypePlayerUI      = "player.ui"
)

// PayloadVersion текущая версия схемы полезной нагрузки
const PayloadVersion = 1

// PriorityGameplay сигналы игрового цикла не отбрасываются при заполненном буфере
const PriorityGameplay = 7

// PlayerJoined игрок вошёл в мир
type PlayerJoined struct {
	PlayerID string `json:"player_id"`
}

// PlayerLeft игрок вышел
type PlayerLeft struct {
	PlayerID string `json:"player_id"`
}

// PlayerReset запрос возврата на чекпоинт (команда /reset или запрещённое действие)
type PlayerReset struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason,omitempty"`
}

// BlockCollision начало или конец контакта сущности игрока с блоком
type BlockCollision struct {
	PlayerID string        `json:"player_id"`
	BlockID  int           `json:"block_id"`
	Started  bool          `json:"started"`
	Position vec.Vec3Float `json:"position"`
}

// PositionUpdate позиция и скорость игрока на тике
type PositionUpdate struct {
	PlayerID string        `json:"player_id"`
	Position vec.Vec3Float `json:"position"`
	Velocity vec.Vec3Float `json:"velocity"`
}

// Teleport перенос игрока; скорость обнуляется, поворот задан кватернионом
type Teleport struct {
	PlayerID     string        `json:"player_id"`
	Position     vec.Vec3Float `json:"position"`
	Rotation     *vec.Quat     `json:"rotation,omitempty"`
	ZeroVelocity bool          `json:"zero_velocity"`
}

// Impulse мгновенный импульс
type Impulse struct {
	PlayerID string        `json:"player_id"`
	Impulse  vec.Vec3Float `json:"impulse"`
}

// PlayerMessage текстовое сообщение игроку
type PlayerMessage struct {
	PlayerID string `json:"player_id"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Color    string `json:"color,omitempty"`
}

// PlayerUI структурированный UI-пакет
type PlayerUI struct {
	PlayerID string      `json:"player_id"`
	Data     interface{} `json:"data"`
}

// NewEnvelope упаковывает полезную нагрузку в конверт с новым UUID
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   PayloadVersion,
		Priority:  PriorityGameplay,
		Payload:   data,
	}, nil
}

// Decode разбирает полезную нагрузку конверта
func Decode[T any](ev *Envelope) (T, error) {
	var out T
	if err := json.Unmarshal(ev.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", ev.EventType, err)
	}
	return out, nil
}
