package course

import (
	"testing"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world"
	"github.com/annel0/parkour-course/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conveyorCourse() *Course {
	return Build(world.MapData{
		{X: 0, Y: 0, Z: 0}: block.CheckpointBlockID,
		{X: 0, Y: 0, Z: 3}: block.ConveyorForwardBlockID,
		{X: 4, Y: 0, Z: 3}: block.ConveyorRightBlockID,
	}, block.DefaultMarkers())
}

func TestConveyorAt(t *testing.T) {
	c := conveyorCourse()

	conv, ok := c.ConveyorAt(vec.Vec3Float{X: 0.55, Y: 1, Z: 3.55})
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 3}, conv.Block)

	conv, ok = c.ConveyorAt(vec.Vec3Float{X: 4, Y: 2.4, Z: 3})
	require.True(t, ok)
	assert.Equal(t, vec.Vec3Float{X: 1}, conv.Direction)

	misses := []vec.Vec3Float{
		{X: 0.6, Y: 1, Z: 3},  // край по X
		{X: 0, Y: 1, Z: 2.4},  // край по Z
		{X: 0, Y: 0.4, Z: 3},  // ниже полосы
		{X: 0, Y: 2.5, Z: 3},  // выше полосы
		{X: 2, Y: 1, Z: 3},    // между конвейерами
	}
	for _, p := range misses {
		_, ok := c.ConveyorAt(p)
		assert.False(t, ok, "позиция %+v вне зоны", p)
	}
}

func TestConveyorImpulse(t *testing.T) {
	params := DefaultConveyorParams()
	conv := Conveyor{Direction: vec.Vec3Float{Z: 1}}

	still := conv.Impulse(vec.Vec3Float{}, params)
	assert.Equal(t, vec.Vec3Float{Z: params.PushImpulse}, still)

	// Медленное встречное движение ниже порога: только толчок
	slow := conv.Impulse(vec.Vec3Float{Z: -0.05}, params)
	assert.Equal(t, still, slow)

	// Встречная скорость гасится пропорционально
	against := conv.Impulse(vec.Vec3Float{X: 3, Z: -2}, params)
	assert.InDelta(t, params.PushImpulse+2*params.Damping, against.Z, 1e-9)
	assert.Zero(t, against.X, "боковая скорость не гасится")

	// Движение по направлению не гасится
	along := conv.Impulse(vec.Vec3Float{Z: 5}, params)
	assert.Equal(t, still, along)
}
