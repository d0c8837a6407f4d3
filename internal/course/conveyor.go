package course

import (
	"math"

	"github.com/annel0/parkour-course/internal/vec"
)

// Зона действия конвейера относительно координаты блока
const (
	conveyorHalfExtent = 0.6
	conveyorMinRise    = 0.5
	conveyorMaxRise    = 2.5
)

// ConveyorParams силы конвейера
type ConveyorParams struct {
	PushImpulse     float64 // Импульс вдоль направления за тик
	OpposeThreshold float64 // Скорость против направления, после которой включается гашение
	Damping         float64 // Коэффициент встречного импульса к встречной скорости
}

// DefaultConveyorParams значения по умолчанию
func DefaultConveyorParams() ConveyorParams {
	return ConveyorParams{
		PushImpulse:     0.3,
		OpposeThreshold: 0.1,
		Damping:         0.5,
	}
}

// ConveyorAt возвращает конвейер, в зоне которого находится точка p.
// При перекрытии зон выбирается первый в порядке верхний ряд, затем X, затем Z.
func (c *Course) ConveyorAt(p vec.Vec3Float) (Conveyor, bool) {
	if len(c.conveyors) == 0 || !p.IsFinite() {
		return Conveyor{}, false
	}

	cx := int(math.Round(p.X))
	cz := int(math.Round(p.Z))
	for by := int(math.Floor(p.Y - conveyorMinRise)); p.Y-float64(by) < conveyorMaxRise; by-- {
		for bx := cx - 1; bx <= cx+1; bx++ {
			if math.Abs(p.X-float64(bx)) >= conveyorHalfExtent {
				continue
			}
			for bz := cz - 1; bz <= cz+1; bz++ {
				if math.Abs(p.Z-float64(bz)) >= conveyorHalfExtent {
					continue
				}
				if i, ok := c.conveyorAt[vec.Vec3{X: bx, Y: by, Z: bz}]; ok {
					return c.conveyors[i], true
				}
			}
		}
	}
	return Conveyor{}, false
}

// Impulse импульс, который конвейер передаёт игроку за один тик.
// Состояния между тиками нет: всё, что копится, хранит скорость в физике.
func (cv Conveyor) Impulse(velocity vec.Vec3Float, params ConveyorParams) vec.Vec3Float {
	impulse := cv.Direction.Mul(params.PushImpulse)

	opposing := -velocity.Dot(cv.Direction)
	if opposing > params.OpposeThreshold {
		impulse = impulse.Add(cv.Direction.Mul(opposing * params.Damping))
	}
	return impulse
}
