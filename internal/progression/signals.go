package progression

import (
	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world/block"
)

// Signal входной сигнал от хоста симуляции
type Signal interface {
	signal()
}

// BlockContact касание блока сущностью игрока.
// Position: позиция игрока в момент касания, по ней ищется чекпоинт.
type BlockContact struct {
	Block    block.BlockID
	Started  bool
	Position vec.Vec3Float
}

// PositionUpdate тик обновления позиции (и скорости из физики)
type PositionUpdate struct {
	Position vec.Vec3Float
	Velocity vec.Vec3Float
}

// ResetRequest явный запрос возврата на чекпоинт (команда игрока
// или запрещённое действие, замеченное хостом)
type ResetRequest struct {
	Reason string
}

func (BlockContact) signal()   {}
func (PositionUpdate) signal() {}
func (ResetRequest) signal()   {}
