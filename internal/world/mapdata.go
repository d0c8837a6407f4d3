package world

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/annel0/parkour-course/internal/vec"
	"github.com/annel0/parkour-course/internal/world/block"
)

// ErrInvalidBlockKey возвращается для ключей карты не в формате "x,y,z"
var ErrInvalidBlockKey = errors.New("invalid block key")

// MapData отображение координаты блока в тип блока.
// Ключ структурный; строковый вид "x,y,z" существует только в файле карты.
type MapData map[vec.Vec3]block.BlockID

// ParseBlockKey разбирает ключ блока вида "x,y,z".
// Допускается только каноническая запись целых: без пробелов, ведущих нулей и "-0".
func ParseBlockKey(key string) (vec.Vec3, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidBlockKey, key)
	}

	var coords [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || strconv.Itoa(n) != p {
			return vec.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidBlockKey, key)
		}
		coords[i] = n
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// Positions возвращает координаты всех блоков в детерминированном порядке (x, y, z)
func (m MapData) Positions() []vec.Vec3 {
	positions := make([]vec.Vec3, 0, len(m))
	for pos := range m {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return positions
}

// Count возвращает количество блоков указанного типа
func (m MapData) Count(id block.BlockID) int {
	n := 0
	for _, b := range m {
		if b == id {
			n++
		}
	}
	return n
}
