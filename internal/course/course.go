// Package course строит неизменяемый индекс трассы из карты блоков:
// упорядоченную последовательность чекпоинтов и набор конвейеров.
// После Build индекс только читается и может разделяться всеми игроками
// без синхронизации.
package course

import (
	"errors"
	"sort"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world"
	"github.com/annel0/parkour-course/internal/world/block"
)

// TieTolerance допуск по глубине (Z), внутри которого чекпоинты считаются одним рядом
const TieTolerance = 0.5

// ErrEmptyCourse на карте нет ни одного чекпоинта
var ErrEmptyCourse = errors.New("course has no checkpoints")

// FallbackSpawn точка появления, когда на карте нет чекпоинтов
var FallbackSpawn = vec.Vec3Float{X: 0, Y: 10, Z: 0}

// spawnOffset игрок появляется на блок выше маркера, стоя на нём
var spawnOffset = vec.Vec3Float{Y: 1}

// Checkpoint упорядоченная точка трассы
type Checkpoint struct {
	Index int           `json:"index"`
	Block vec.Vec3      `json:"block"`
	Spawn vec.Vec3Float `json:"spawn"`
}

// Conveyor блок конвейера с направлением толчка
type Conveyor struct {
	Block     vec.Vec3      `json:"block"`
	Direction vec.Vec3Float `json:"direction"`
}

// Course индекс трассы
type Course struct {
	checkpoints []Checkpoint
	byBlock     map[vec.Vec3]int
	conveyors   []Conveyor
	conveyorAt  map[vec.Vec3]int
}

// Build сканирует карту один раз и строит индекс трассы.
// Порядок задаётся явной сортировкой, а не порядком обхода map.
func Build(blocks world.MapData, markers block.Markers) *Course {
	c := &Course{
		byBlock:    make(map[vec.Vec3]int),
		conveyorAt: make(map[vec.Vec3]int),
	}

	for pos, id := range blocks {
		if markers.IsCheckpoint(id) {
			c.checkpoints = append(c.checkpoints, Checkpoint{
				Block: pos,
				Spawn: pos.ToFloat().Add(spawnOffset),
			})
			continue
		}
		if dir, ok := markers.ConveyorDirection(id); ok {
			c.conveyors = append(c.conveyors, Conveyor{Block: pos, Direction: dir})
		}
	}

	SortCheckpoints(c.checkpoints)
	for _, cp := range c.checkpoints {
		c.byBlock[cp.Block] = cp.Index
	}

	sort.Slice(c.conveyors, func(i, j int) bool {
		return blockLess(c.conveyors[i].Block, c.conveyors[j].Block)
	})
	for i, conv := range c.conveyors {
		c.conveyorAt[conv.Block] = i
	}

	return c
}

// Len возвращает количество чекпоинтов
func (c *Course) Len() int {
	return len(c.checkpoints)
}

// Empty сообщает, что чекпоинтов нет
func (c *Course) Empty() bool {
	return len(c.checkpoints) == 0
}

// Checkpoint возвращает чекпоинт по индексу
func (c *Course) Checkpoint(index int) (Checkpoint, bool) {
	if index < 0 || index >= len(c.checkpoints) {
		return Checkpoint{}, false
	}
	return c.checkpoints[index], true
}

// Checkpoints возвращает копию последовательности
func (c *Course) Checkpoints() []Checkpoint {
	return append([]Checkpoint(nil), c.checkpoints...)
}

// IndexOf точный поиск чекпоинта по координате блока маркера, O(1)
func (c *Course) IndexOf(pos vec.Vec3) (int, bool) {
	i, ok := c.byBlock[pos]
	return i, ok
}

// Conveyors возвращает копию набора конвейеров
func (c *Course) Conveyors() []Conveyor {
	return append([]Conveyor(nil), c.conveyors...)
}

// SpawnFor возвращает точку появления для индекса,
// FallbackSpawn для пустой трассы или индекса вне диапазона
func (c *Course) SpawnFor(index int) vec.Vec3Float {
	if cp, ok := c.Checkpoint(index); ok {
		return cp.Spawn
	}
	return FallbackSpawn
}

// Percentage прогресс по трассе в процентах [0, 100].
// Один чекпоинт даёт 100, пустая трасса 0.
func (c *Course) Percentage(index int) float64 {
	n := len(c.checkpoints)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return 100
	}

	p := float64(index) / float64(n-1) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
