package course

import (
	"math"
	"sort"

	"github.com/annel0/parkour-course/internal/vec"
)

// Compare задаёт порядок прохождения трассы:
// глубина (Z) по возрастанию, при |ΔZ| <= TieTolerance по боковой оси (X),
// затем высота (Y), чтобы равными были только совпадающие точки.
func Compare(a, b vec.Vec3Float) int {
	if math.Abs(a.Z-b.Z) > TieTolerance {
		return sign(a.Z - b.Z)
	}
	if a.X != b.X {
		return sign(a.X - b.X)
	}
	return sign(a.Y - b.Y)
}

// SortCheckpoints сортирует чекпоинты и проставляет Index по позиции в списке
func SortCheckpoints(cps []Checkpoint) {
	sort.SliceStable(cps, func(i, j int) bool {
		return Compare(cps[i].Block.ToFloat(), cps[j].Block.ToFloat()) < 0
	})
	for i := range cps {
		cps[i].Index = i
	}
}

// blockLess порядок для вспомогательных наборов (конвейеры)
func blockLess(a, b vec.Vec3) bool {
	return Compare(a.ToFloat(), b.ToFloat()) < 0
}

func sign(v float64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
