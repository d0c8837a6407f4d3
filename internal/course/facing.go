package course

import (
	"math"

	"github.com/annel0/parkour-course/internal/vec"
)

// FacingYaw угол поворота (градусы) вокруг вертикали, чтобы из from смотреть на to
func FacingYaw(from, to vec.Vec3Float) float64 {
	dx := to.X - from.X
	dz := to.Z - from.Z
	return math.Atan2(-dx, -dz) * 180 / math.Pi
}

// FacingTarget цель взгляда при появлении на чекпоинте index:
// следующий чекпоинт, иначе предыдущий, иначе без поворота
func (c *Course) FacingTarget(index int) (vec.Vec3Float, bool) {
	if next, ok := c.Checkpoint(index + 1); ok {
		return next.Spawn, true
	}
	if prev, ok := c.Checkpoint(index - 1); ok {
		return prev.Spawn, true
	}
	return vec.Vec3Float{}, false
}

// SpawnYaw поворот для появления в точке position на чекпоинте index
func (c *Course) SpawnYaw(index int, position vec.Vec3Float) (float64, bool) {
	target, ok := c.FacingTarget(index)
	if !ok {
		return 0, false
	}
	return FacingYaw(position, target), true
}
