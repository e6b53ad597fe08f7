package vm

// Config carries the tunables a single VM and its component machines
// need. The arena configuration produces one per robot; programs can
// not alter any of these.
type Config struct {
	CyclesPerTurn int
	MemorySize    int
	StackSize     int
	MaxCallDepth  int

	MaxPower      float64
	PowerRegen    float64 // power restored per cycle
	FirePowerCost float64 // power drained per unit of fire power
	FireCooldown  int     // cycles between shots

	RotationPerTurn float64 // component rotation rate, degrees per turn
	MaxVelocity     float64 // drive velocity cap, units per turn

	ScannerFOV   float64 // full cone width, degrees
	ScannerRange float64 // arena units
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		CyclesPerTurn:   100,
		MemorySize:      1024,
		StackSize:       256,
		MaxCallDepth:    10,
		MaxPower:        1.0,
		PowerRegen:      0.01,
		FirePowerCost:   1.0,
		FireCooldown:    20,
		RotationPerTurn: 90,
		MaxVelocity:     5,
		ScannerFOV:      22.5,
		ScannerRange:    28.3,
	}
}
