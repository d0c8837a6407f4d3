package course

import (
	"math/rand"
	"testing"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world"
	"github.com/annel0/parkour-course/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCourse строит трассу из координат маркеров чекпоинтов
func buildCourse(t *testing.T, positions ...vec.Vec3) *Course {
	t.Helper()
	blocks := make(world.MapData, len(positions))
	for _, p := range positions {
		blocks[p] = block.CheckpointBlockID
	}
	return Build(blocks, block.DefaultMarkers())
}

func TestBuild_OrderScenario(t *testing.T) {
	c := buildCourse(t,
		vec.Vec3{X: 3, Y: 0, Z: 5},
		vec.Vec3{X: 0, Y: 0, Z: 0},
		vec.Vec3{X: 0, Y: 0, Z: 5},
	)

	require.Equal(t, 3, c.Len())
	want := []vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 5}, {X: 3, Y: 0, Z: 5}}
	for i, pos := range want {
		cp, ok := c.Checkpoint(i)
		require.True(t, ok)
		assert.Equal(t, pos, cp.Block, "чекпоинт %d", i)
		assert.Equal(t, i, cp.Index)
		assert.Equal(t, pos.ToFloat().Add(vec.Vec3Float{Y: 1}), cp.Spawn, "точка появления на блок выше маркера")

		idx, ok := c.IndexOf(pos)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
}

func TestBuild_IgnoresNonMarkers(t *testing.T) {
	blocks := world.MapData{
		{X: 0, Y: 0, Z: 0}: block.CheckpointBlockID,
		{X: 0, Y: 0, Z: 1}: block.StoneBlockID,
		{X: 0, Y: 0, Z: 2}: block.LavaBlockID,
		{X: 0, Y: 0, Z: 3}: block.ConveyorForwardBlockID,
	}
	c := Build(blocks, block.DefaultMarkers())

	assert.Equal(t, 1, c.Len())
	require.Len(t, c.Conveyors(), 1)
	assert.Equal(t, vec.Vec3Float{Z: 1}, c.Conveyors()[0].Direction)
}

func TestBuild_TotalOrderProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for round := 0; round < 50; round++ {
		blocks := make(world.MapData)
		for i := 0; i < 40; i++ {
			pos := vec.Vec3{X: rng.Intn(10) - 5, Y: rng.Intn(4), Z: rng.Intn(10)}
			blocks[pos] = block.CheckpointBlockID
		}

		c := Build(blocks, block.DefaultMarkers())
		cps := c.Checkpoints()
		require.Equal(t, len(blocks), len(cps))

		seen := make(map[int]bool)
		for i, cp := range cps {
			assert.Equal(t, i, cp.Index, "индекс равен позиции в списке")
			assert.False(t, seen[cp.Index], "индексы уникальны")
			seen[cp.Index] = true

			if i > 0 {
				assert.Negative(t, Compare(cps[i-1].Block.ToFloat(), cp.Block.ToFloat()),
					"строгий порядок между соседями")
			}
		}

		// Повторная сортировка отсортированной последовательности ничего не меняет
		resorted := c.Checkpoints()
		SortCheckpoints(resorted)
		assert.Equal(t, cps, resorted)

		// Повторная сборка из той же карты даёт тот же результат
		assert.Equal(t, cps, Build(blocks, block.DefaultMarkers()).Checkpoints())
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(vec.Vec3Float{Z: 0}, vec.Vec3Float{Z: 1}))
	assert.Equal(t, 1, Compare(vec.Vec3Float{X: -9, Z: 2}, vec.Vec3Float{X: 9, Z: 1}))
	// Внутри допуска решает боковая ось
	assert.Equal(t, -1, Compare(vec.Vec3Float{X: 1, Z: 5.4}, vec.Vec3Float{X: 2, Z: 5}))
	assert.Equal(t, 1, Compare(vec.Vec3Float{X: 3, Z: 5}, vec.Vec3Float{X: 0, Z: 5.3}))
	assert.Equal(t, 0, Compare(vec.Vec3Float{X: 1, Y: 2, Z: 3}, vec.Vec3Float{X: 1, Y: 2, Z: 3}))
}

func TestEmptyCourse(t *testing.T) {
	c := Build(world.MapData{{X: 1, Y: 1, Z: 1}: block.StoneBlockID}, block.DefaultMarkers())

	assert.True(t, c.Empty())
	_, err := c.NearestIndex(vec.Vec3Float{})
	assert.ErrorIs(t, err, ErrEmptyCourse)
	assert.Equal(t, FallbackSpawn, c.SpawnFor(0))
	assert.Equal(t, 0.0, c.Percentage(0))

	_, ok := c.AtPosition(FallbackSpawn)
	assert.False(t, ok)
	_, ok = c.ResolveSaved(FallbackSpawn, DefaultRestoreThreshold)
	assert.False(t, ok)
}

func TestPercentage(t *testing.T) {
	single := buildCourse(t, vec.Vec3{})
	assert.Equal(t, 100.0, single.Percentage(0))

	four := buildCourse(t, vec.Vec3{Z: 0}, vec.Vec3{Z: 4}, vec.Vec3{Z: 8}, vec.Vec3{Z: 12})
	assert.InDelta(t, 66.67, four.Percentage(2), 0.01)
	assert.Equal(t, 0.0, four.Percentage(0))
	assert.Equal(t, 100.0, four.Percentage(3))
	assert.Equal(t, 100.0, four.Percentage(10), "значение ограничено сверху")
	assert.Equal(t, 0.0, four.Percentage(-1), "значение ограничено снизу")
}

func TestNearestIndex(t *testing.T) {
	c := buildCourse(t, vec.Vec3{Z: 0}, vec.Vec3{Z: 10}, vec.Vec3{X: 5, Z: 20})

	i, err := c.NearestIndex(vec.Vec3Float{X: 0.2, Y: 500, Z: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, i, "высота не учитывается")

	i, err = c.NearestIndex(vec.Vec3Float{X: 4, Y: 0, Z: 30})
	require.NoError(t, err)
	assert.Equal(t, 2, i)
}
