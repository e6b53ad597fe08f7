package sim

import (
	"math"
	"math/rand"
)

// clearanceStep is the ray march increment for clearance queries, in
// arena units. Small enough that a robot can not step through an
// obstacle cell in one cycle.
const clearanceStep = 0.05

// Arena is the static battlefield: its bounds and obstacle layout.
// It is immutable once created, so queries against it are safe from
// any point in the cycle.
type Arena struct {
	width, height float64
	obstacles     map[[2]int]bool // occupied 1x1 unit cells
}

// NewArena creates an arena with an obstacle layout derived from the
// match seed. Cells too close to any spawn point stay clear.
func NewArena(cfg Config, seed int64, spawns [][2]float64) *Arena {
	a := &Arena{
		width:     cfg.ArenaWidth,
		height:    cfg.ArenaHeight,
		obstacles: make(map[[2]int]bool),
	}

	rng := rand.New(rand.NewSource(seed))
	cols := int(cfg.ArenaWidth)
	rows := int(cfg.ArenaHeight)
	want := int(float64(cols*rows) * cfg.ObstacleDensity)

	// One attempt per wanted obstacle; collisions and spawn-adjacent
	// cells are simply skipped so the loop stays finite.
	for i := 0; i < want; i++ {
		cx := rng.Intn(cols)
		cy := rng.Intn(rows)
		cell := [2]int{cx, cy}

		if a.obstacles[cell] || nearSpawn(cx, cy, spawns) {
			continue
		}

		a.obstacles[cell] = true
	}

	return a
}

// nearSpawn reports whether the cell centre lies within 1.5 units of
// a spawn point.
func nearSpawn(cx, cy int, spawns [][2]float64) bool {
	x := float64(cx) + 0.5
	y := float64(cy) + 0.5
	for _, s := range spawns {
		if math.Hypot(s[0]-x, s[1]-y) < 1.5 {
			return true
		}
	}
	return false
}

// Width returns the arena width in units.
func (a *Arena) Width() float64 { return a.width }

// Height returns the arena height in units.
func (a *Arena) Height() float64 { return a.height }

// Blocked reports whether the given point lies outside the arena or
// inside an obstacle cell.
func (a *Arena) Blocked(x, y float64) bool {
	if x < 0 || x > a.width || y < 0 || y > a.height {
		return true
	}
	return a.obstacles[[2]int{int(x), int(y)}]
}

// Clearance returns the distance from (x, y) to the first wall or
// obstacle along the given heading, in arena units. The ray is
// marched in clearanceStep increments.
func (a *Arena) Clearance(x, y, heading float64) float64 {
	rad := heading * math.Pi / 180
	dx := math.Cos(rad) * clearanceStep
	dy := math.Sin(rad) * clearanceStep
	limit := math.Hypot(a.width, a.height)

	var dist float64
	for dist < limit {
		x += dx
		y += dy
		dist += clearanceStep
		if a.Blocked(x, y) {
			return dist
		}
	}

	return limit
}
