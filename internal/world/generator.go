package world

import (
	"math"
	"math/rand"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world/block"
	"github.com/aquilax/go-perlin"
)

// SegmentKind тип участка между соседними чекпоинтами
type SegmentKind int

const (
	SegmentPlain    SegmentKind = iota // Сплошная дорожка
	SegmentLavaGap                     // Ряд лавы поперёк дорожки
	SegmentConveyor                    // Конвейер вперёд
	SegmentSteps                       // Ступени с разрывами
)

// Константы генерации
const (
	defaultSpacing    = 8    // Блоков между чекпоинтами по Z
	defaultHalfWidth  = 1    // Полуширина дорожки (3 блока)
	defaultNoiseScale = 0.15 // Сглаженность рельефа
	defaultMaxRise    = 4    // Максимальный перепад высоты
	startPlatformHalf = 2    // Стартовая площадка 5x5
)

// CourseGenerator генерирует демонстрационную трассу: дорожку вдоль +Z
// с чекпоинтами через равные промежутки, лавой и конвейерами между ними.
type CourseGenerator struct {
	Seed        int64   // Сид шума и случайных участков
	Checkpoints int     // Количество чекпоинтов
	Spacing     int     // Шаг между чекпоинтами по Z
	HalfWidth   int     // Полуширина дорожки по X
	NoiseScale  float64 // Масштаб шума высоты
	MaxRise     int     // Амплитуда высоты

	noise *perlin.Perlin
}

// NewCourseGenerator создаёт генератор трассы
func NewCourseGenerator(seed int64, checkpoints int) *CourseGenerator {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав

	return &CourseGenerator{
		Seed:        seed,
		Checkpoints: checkpoints,
		Spacing:     defaultSpacing,
		HalfWidth:   defaultHalfWidth,
		NoiseScale:  defaultNoiseScale,
		MaxRise:     defaultMaxRise,
		noise:       perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Generate строит карту трассы. Результат детерминирован для (Seed, Checkpoints).
func (g *CourseGenerator) Generate() *Map {
	blocks := make(MapData)
	rng := rand.New(rand.NewSource(g.Seed))

	// Стартовая площадка вокруг первого чекпоинта
	for x := -startPlatformHalf; x <= startPlatformHalf; x++ {
		for z := -startPlatformHalf; z <= startPlatformHalf; z++ {
			blocks[vec.Vec3{X: x, Y: 0, Z: z}] = block.GrassBlockID
		}
	}
	blocks[vec.Vec3{X: 0, Y: 0, Z: 0}] = block.CheckpointBlockID

	prevHeight := 0
	for i := 1; i < g.Checkpoints; i++ {
		startZ := (i-1)*g.Spacing + 1
		endZ := i * g.Spacing
		height := g.heightAt(endZ)

		kind := SegmentKind(rng.Intn(4))
		for z := startZ; z < endZ; z++ {
			// Плавный переход высоты от предыдущего чекпоинта к следующему
			t := float64(z-startZ) / float64(endZ-startZ)
			y := prevHeight + int(math.Round(t*float64(height-prevHeight)))
			g.placeRow(blocks, kind, z, y, z-startZ, rng)
		}

		for x := -g.HalfWidth; x <= g.HalfWidth; x++ {
			blocks[vec.Vec3{X: x, Y: height, Z: endZ}] = block.StoneBlockID
		}
		blocks[vec.Vec3{X: 0, Y: height, Z: endZ}] = block.CheckpointBlockID
		prevHeight = height
	}

	return &Map{BlockTypes: DefaultBlockTypes(), Blocks: blocks}
}

// placeRow заполняет один ряд дорожки поперёк оси Z
func (g *CourseGenerator) placeRow(blocks MapData, kind SegmentKind, z, y, step int, rng *rand.Rand) {
	for x := -g.HalfWidth; x <= g.HalfWidth; x++ {
		pos := vec.Vec3{X: x, Y: y, Z: z}

		switch kind {
		case SegmentLavaGap:
			if step == 3 || step == 4 {
				blocks[pos] = block.LavaBlockID
				continue
			}
		case SegmentConveyor:
			if step >= 1 && step <= 5 {
				blocks[pos] = block.ConveyorForwardBlockID
				continue
			}
		case SegmentSteps:
			if step%2 == 1 {
				// Разрыв: пропускаем ряд, иногда оставляя боковую опору
				if x == g.HalfWidth && rng.Intn(2) == 0 {
					blocks[pos] = block.StoneBlockID
				}
				continue
			}
		}
		blocks[pos] = block.StoneBlockID
	}
}

// heightAt возвращает высоту дорожки на координате z по шуму Перлина
func (g *CourseGenerator) heightAt(z int) int {
	n := g.noise.Noise1D(float64(z) * g.NoiseScale) // -1..1
	return int(math.Round(n * float64(g.MaxRise)))
}
