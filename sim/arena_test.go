package sim

import (
	"math"
	"reflect"
	"testing"
)

func emptyArena() *Arena {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	return NewArena(cfg, 1, nil)
}

func TestClearanceToWalls(t *testing.T) {
	a := emptyArena()

	for _, v := range []struct {
		heading float64
		want    float64
	}{
		{0, 10},   // east wall
		{90, 10},  // north wall
		{180, 10}, // west wall
		{270, 10}, // south wall
	} {
		have := a.Clearance(10, 10, v.heading)
		if math.Abs(have-v.want) > 2*clearanceStep {
			t.Fatalf("clearance at %v degrees: want ~%v, have %v", v.heading, v.want, have)
		}
	}
}

func TestClearanceObstacle(t *testing.T) {
	a := emptyArena()
	a.obstacles[[2]int{15, 10}] = true

	have := a.Clearance(10, 10.5, 0)
	if math.Abs(have-5) > 2*clearanceStep {
		t.Fatalf("want clearance ~5 before the obstacle, have %v", have)
	}
}

func TestBlocked(t *testing.T) {
	a := emptyArena()

	if a.Blocked(10, 10) {
		t.Fatal("open ground must not be blocked")
	}
	for _, p := range [][2]float64{{-1, 10}, {21, 10}, {10, -1}, {10, 21}} {
		if !a.Blocked(p[0], p[1]) {
			t.Fatalf("point %v outside the arena must be blocked", p)
		}
	}

	a.obstacles[[2]int{3, 4}] = true
	if !a.Blocked(3.5, 4.5) {
		t.Fatal("obstacle cell must be blocked")
	}
}

func TestObstacleLayoutDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0.1
	spawns := spawnRing(cfg, 2)

	a := NewArena(cfg, 42, spawns)
	b := NewArena(cfg, 42, spawns)

	if !reflect.DeepEqual(a.obstacles, b.obstacles) {
		t.Fatal("identical seeds must produce identical layouts")
	}

	c := NewArena(cfg, 43, spawns)
	if reflect.DeepEqual(a.obstacles, c.obstacles) {
		t.Fatal("different seeds should produce different layouts")
	}
}

func TestObstaclesAvoidSpawns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0.5
	spawns := spawnRing(cfg, 4)

	a := NewArena(cfg, 7, spawns)
	for cell := range a.obstacles {
		if nearSpawn(cell[0], cell[1], spawns) {
			t.Fatalf("obstacle cell %v lies on a spawn point", cell)
		}
	}
}
