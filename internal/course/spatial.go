package course

import (
	"math"

	"github.com/annel0/parkour-course/internal/vec"
)

// Геометрия зоны касания чекпоинта: блок центрирован на своей целой координате,
// игрок должен стоять на нём, а не просто рядом.
const (
	touchHalfExtent = 0.5 // |Δx|, |Δz| < 0.5 от центра блока
	blockHalfHeight = 0.5 // верх блока = y + 0.5
	touchBandHeight = 2.0 // blockTop <= y < blockTop + 2
)

// DefaultRestoreThreshold максимальное расстояние сохранённой позиции от ближайшего чекпоинта
const DefaultRestoreThreshold = 5.0

// AtPosition возвращает индекс чекпоинта, на котором стоит игрок в точке p.
// Поиск идёт по индексу координат; из двух маркеров друг над другом
// выигрывает верхний.
func (c *Course) AtPosition(p vec.Vec3Float) (int, bool) {
	if len(c.checkpoints) == 0 || !p.IsFinite() {
		return 0, false
	}

	bx := int(math.Round(p.X))
	bz := int(math.Round(p.Z))
	if math.Abs(p.X-float64(bx)) >= touchHalfExtent || math.Abs(p.Z-float64(bz)) >= touchHalfExtent {
		return 0, false
	}

	for by := int(math.Floor(p.Y - blockHalfHeight)); standsOn(p.Y, by); by-- {
		if i, ok := c.byBlock[vec.Vec3{X: bx, Y: by, Z: bz}]; ok {
			return i, true
		}
	}
	return 0, false
}

// standsOn проверяет вертикальную полосу над блоком с высотой by
func standsOn(y float64, by int) bool {
	top := float64(by) + blockHalfHeight
	return top <= y && y < top+touchBandHeight
}

// NearestIndex индекс чекпоинта, точка появления которого ближе всего к p
// в горизонтальной плоскости. Эвристика для сопоставления произвольных позиций.
func (c *Course) NearestIndex(p vec.Vec3Float) (int, error) {
	if len(c.checkpoints) == 0 {
		return 0, ErrEmptyCourse
	}

	best := 0
	bestDist := math.Inf(1)
	for _, cp := range c.checkpoints {
		if d := cp.Spawn.HorizontalDistanceTo(p); d < bestDist {
			best, bestDist = cp.Index, d
		}
	}
	return best, nil
}

// ResolveSaved сопоставляет сохранённую позицию с последовательностью.
// Точное попадание в зону чекпоинта даёт его индекс; иначе ближайший чекпоинт,
// если до его точки появления меньше threshold; иначе ok == false
// (вызывающий откатывается на первый чекпоинт).
func (c *Course) ResolveSaved(p vec.Vec3Float, threshold float64) (int, bool) {
	if len(c.checkpoints) == 0 || !p.IsFinite() {
		return 0, false
	}
	if i, ok := c.AtPosition(p); ok {
		return i, true
	}

	i, err := c.NearestIndex(p)
	if err != nil {
		return 0, false
	}
	if c.checkpoints[i].Spawn.DistanceTo(p) >= threshold {
		return 0, false
	}
	return i, true
}
