package block

import (
	"fmt"
	"sort"

	"github.com/annel0/parkour-course/internal/vec"
)

// Markers описывает, какие типы блоков несут смысл для трассы.
// После построения индекса карты набор только читается.
type Markers struct {
	Checkpoints map[BlockID]struct{}
	Hazards     map[BlockID]struct{}
	Conveyors   map[BlockID]vec.Vec3Float // ID -> единичное направление толчка
}

// DefaultMarkers возвращает набор маркеров карты по умолчанию
func DefaultMarkers() Markers {
	return Markers{
		Checkpoints: map[BlockID]struct{}{CheckpointBlockID: {}},
		Hazards:     map[BlockID]struct{}{LavaBlockID: {}},
		Conveyors: map[BlockID]vec.Vec3Float{
			ConveyorForwardBlockID:  {Z: 1},
			ConveyorBackwardBlockID: {Z: -1},
			ConveyorRightBlockID:    {X: 1},
			ConveyorLeftBlockID:     {X: -1},
		},
	}
}

// NewMarkers собирает набор маркеров из конфигурации.
// conveyors: ID блока -> направление ("+x", "-x", "+z", "-z").
func NewMarkers(checkpoints, hazards []int, conveyors map[int]string) (Markers, error) {
	m := Markers{
		Checkpoints: make(map[BlockID]struct{}, len(checkpoints)),
		Hazards:     make(map[BlockID]struct{}, len(hazards)),
		Conveyors:   make(map[BlockID]vec.Vec3Float, len(conveyors)),
	}
	for _, id := range checkpoints {
		m.Checkpoints[BlockID(id)] = struct{}{}
	}
	for _, id := range hazards {
		m.Hazards[BlockID(id)] = struct{}{}
	}
	for id, dir := range conveyors {
		d, err := ParseDirection(dir)
		if err != nil {
			return Markers{}, fmt.Errorf("конвейер %d: %w", id, err)
		}
		m.Conveyors[BlockID(id)] = d
	}

	for id := range m.Checkpoints {
		if _, clash := m.Hazards[id]; clash {
			return Markers{}, fmt.Errorf("блок %d одновременно чекпоинт и опасность", id)
		}
		if _, clash := m.Conveyors[id]; clash {
			return Markers{}, fmt.Errorf("блок %d одновременно чекпоинт и конвейер", id)
		}
	}
	for id := range m.Hazards {
		if _, clash := m.Conveyors[id]; clash {
			return Markers{}, fmt.Errorf("блок %d одновременно опасность и конвейер", id)
		}
	}
	return m, nil
}

// IsCheckpoint сообщает, является ли блок маркером чекпоинта
func (m Markers) IsCheckpoint(id BlockID) bool {
	_, ok := m.Checkpoints[id]
	return ok
}

// IsHazard сообщает, является ли блок опасным (лава и т.п.)
func (m Markers) IsHazard(id BlockID) bool {
	_, ok := m.Hazards[id]
	return ok
}

// ConveyorDirection возвращает направление толчка конвейера
func (m Markers) ConveyorDirection(id BlockID) (vec.Vec3Float, bool) {
	d, ok := m.Conveyors[id]
	return d, ok
}

// CheckpointIDs возвращает отсортированный список ID чекпоинтов
func (m Markers) CheckpointIDs() []BlockID {
	return sortedIDs(m.Checkpoints)
}

// HazardIDs возвращает отсортированный список ID опасных блоков
func (m Markers) HazardIDs() []BlockID {
	return sortedIDs(m.Hazards)
}

func sortedIDs(set map[BlockID]struct{}) []BlockID {
	ids := make([]BlockID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseDirection разбирает направление конвейера
func ParseDirection(s string) (vec.Vec3Float, error) {
	switch s {
	case "+x", "x":
		return vec.Vec3Float{X: 1}, nil
	case "-x":
		return vec.Vec3Float{X: -1}, nil
	case "+z", "z":
		return vec.Vec3Float{Z: 1}, nil
	case "-z":
		return vec.Vec3Float{Z: -1}, nil
	default:
		return vec.Vec3Float{}, fmt.Errorf("неизвестное направление %q", s)
	}
}
