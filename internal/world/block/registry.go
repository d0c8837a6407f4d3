package block

import "sync"

// BlockID представляет идентификатор типа блока в файле карты
type BlockID uint16

// Константы ID блоков (совпадают с blockTypes карты по умолчанию)
const (
	// Базовые типы блоков
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	SandBlockID                 // 4
	DirtBlockID                 // 5

	// Маркерные блоки трассы
	CheckpointBlockID BlockID = 15 // Чекпоинт
	LavaBlockID       BlockID = 16 // Лава (опасность)

	// Конвейеры: направление толчка зашито в ID
	ConveyorForwardBlockID  BlockID = 20 // +Z
	ConveyorBackwardBlockID BlockID = 21 // -Z
	ConveyorRightBlockID    BlockID = 22 // +X
	ConveyorLeftBlockID     BlockID = 23 // -X
)

var (
	registryMu sync.RWMutex
	registry   = map[BlockID]string{
		AirBlockID:              "air",
		StoneBlockID:            "stone",
		GrassBlockID:            "grass",
		WaterBlockID:            "water",
		SandBlockID:             "sand",
		DirtBlockID:             "dirt",
		CheckpointBlockID:       "checkpoint",
		LavaBlockID:             "lava",
		ConveyorForwardBlockID:  "conveyor-forward",
		ConveyorBackwardBlockID: "conveyor-backward",
		ConveyorRightBlockID:    "conveyor-right",
		ConveyorLeftBlockID:     "conveyor-left",
	}
)

// Register добавляет имя типа блока в регистр (из blockTypes файла карты)
func Register(id BlockID, name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = name
}

// Name возвращает имя типа блока
func Name(id BlockID) (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	name, exists := registry[id]
	return name, exists
}

// IsValidBlockID проверяет, является ли ID известным типом блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Name(id)
	return exists
}
