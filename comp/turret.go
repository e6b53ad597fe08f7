package comp

// Turret is component id 2. It hosts the scanner and the ranged
// weapon, which share the turret direction.
type Turret struct {
	Direction float64 // absolute angle, degrees [0, 360)

	pending   float64
	rateCycle float64

	Weapon  Weapon
	Scanner Scanner
}

// Weapon is the ranged weapon mounted on the turret.
type Weapon struct {
	Cooldown int // cycles until the weapon may fire again

	cooldownCycles int
	powerCost      float64 // power drained per unit of fire power
}

// Scanner holds the result of the most recent completed scan.
// A target distance of zero means the last scan found nothing.
type Scanner struct {
	FOV   float64 // full cone width, degrees
	Range float64 // maximum detection distance, arena units

	TargetDistance  float64
	TargetDirection float64 // absolute angle, degrees
}

// NewTurret creates a turret facing the given heading.
func NewTurret(heading, rotationPerTurn float64, cyclesPerTurn int, cooldownCycles int, powerCost, fov, scanRange float64) *Turret {
	return &Turret{
		Direction: Normalize(heading),
		rateCycle: rotationPerTurn / float64(cyclesPerTurn),
		Weapon: Weapon{
			cooldownCycles: cooldownCycles,
			powerCost:      powerCost,
		},
		Scanner: Scanner{
			FOV:   fov,
			Range: scanRange,
		},
	}
}

// Rotate requests a relative rotation of the turret.
func (t *Turret) Rotate(delta float64) {
	t.pending += delta
}

// Step advances the turret by one cycle.
func (t *Turret) Step() {
	step := clamp(t.pending, -t.rateCycle, t.rateCycle)
	t.Direction = Normalize(t.Direction + step)
	t.pending -= step

	if t.Weapon.Cooldown > 0 {
		t.Weapon.Cooldown--
	}
}

// Reset returns the turret to the given heading and clears weapon and
// scanner state.
func (t *Turret) Reset(heading float64) {
	t.Direction = Normalize(heading)
	t.pending = 0
	t.Weapon.Cooldown = 0
	t.Scanner.TargetDistance = 0
	t.Scanner.TargetDirection = 0
}

// Fire attempts to fire with the given power level against the
// available robot power. Power is clamped to [0, 1]. On success it
// returns the power drained and arms the cooldown. A request for zero
// power, an armed cooldown or insufficient power all refuse the shot
// without draining anything.
func (w *Weapon) Fire(power, available float64) (drain float64, ok bool) {
	power = clamp(power, 0, 1)
	if power == 0 || w.Cooldown > 0 {
		return 0, false
	}

	drain = w.powerCost * power
	if drain > available {
		return 0, false
	}

	w.Cooldown = w.cooldownCycles
	return drain, true
}

// Record stores a scan result. Without a target both fields go to zero.
func (s *Scanner) Record(dist, direction float64, found bool) {
	if !found {
		s.TargetDistance = 0
		s.TargetDirection = 0
		return
	}
	s.TargetDistance = dist
	s.TargetDirection = Normalize(direction)
}
