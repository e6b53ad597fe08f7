package sim

import (
	"math"

	"github.com/hexaflex/skirmish/vm"
)

// Status tracks a robot's lifecycle through a match.
type Status int

const (
	// Idle means the program is loaded but has not run yet.
	Idle Status = iota
	// Active means the robot is executing and interacting.
	Active
	// Destroyed means health reached zero; the wreck stays in the
	// arena but executes nothing.
	Destroyed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Robot is one combatant: its physical state plus the VM driving it.
// Position and health belong to the arena; everything behavioural
// lives in the VM.
type Robot struct {
	ID     int
	Name   string
	X, Y   float64
	Health float64
	Status Status
	VM     *vm.VM
}

// Alive reports whether the robot still takes part in the match.
func (r *Robot) Alive() bool {
	return r.Status != Destroyed
}

// damage applies damage and flips the robot to Destroyed at zero
// health, resetting its component machines.
func (r *Robot) damage(amount, heading float64) {
	if r.Status == Destroyed {
		return
	}
	r.Health -= amount
	if r.Health <= 0 {
		r.Health = 0
		r.Status = Destroyed
		r.VM.Reset(heading)
	}
}

// headingTo returns the absolute angle from this robot to the given
// point, in degrees [0, 360).
func (r *Robot) headingTo(x, y float64) float64 {
	deg := math.Atan2(y-r.Y, x-r.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
