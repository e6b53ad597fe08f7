// Package sim implements the arena and the deterministic tick driver
// that schedules every robot VM.
package sim

import (
	"math"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/hexaflex/skirmish/vm"
)

// Config holds every arena tunable. Values are set by configuration,
// never by robot programs.
type Config struct {
	ArenaWidth      float64 `toml:"arena_width"`
	ArenaHeight     float64 `toml:"arena_height"`
	ObstacleDensity float64 `toml:"obstacle_density"`

	MaxTurns      int `toml:"max_turns"`
	CyclesPerTurn int `toml:"cycles_per_turn"`

	StartingHealth float64 `toml:"starting_health"`
	MaxPower       float64 `toml:"max_power"`
	PowerRegen     float64 `toml:"power_regen_per_cycle"`

	MaxVelocity     float64 `toml:"max_velocity"`
	RotationPerTurn float64 `toml:"drive_rotation_per_turn"`

	ScannerFOV float64 `toml:"scanner_fov_degrees"`

	ProjectileSpeed  float64 `toml:"projectile_speed"`
	ProjectileDamage float64 `toml:"projectile_damage"`
	FirePowerCost    float64 `toml:"fire_power_cost"`
	FireCooldown     int     `toml:"fire_cooldown_cycles"`

	MeleeDamage float64 `toml:"melee_damage"`
	MeleeRange  float64 `toml:"melee_range"`
}

// DefaultConfig returns the standard arena setup.
func DefaultConfig() Config {
	return Config{
		ArenaWidth:       20,
		ArenaHeight:      20,
		ObstacleDensity:  0.01,
		MaxTurns:         1000,
		CyclesPerTurn:    100,
		StartingHealth:   100,
		MaxPower:         1.0,
		PowerRegen:       0.01,
		MaxVelocity:      5,
		RotationPerTurn:  90,
		ScannerFOV:       22.5,
		ProjectileSpeed:  0.2,
		ProjectileDamage: 10,
		FirePowerCost:    1.0,
		FireCooldown:     20,
		MeleeDamage:      25,
		MeleeRange:       1.0,
	}
}

// LoadConfig reads a TOML arena configuration. Missing keys keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(err, "load arena config")
	}
	return cfg, nil
}

// Diagonal returns the arena diagonal, which doubles as the scanner range.
func (c Config) Diagonal() float64 {
	return math.Hypot(c.ArenaWidth, c.ArenaHeight)
}

// Constants returns the predefined assembler constants the arena exposes.
func (c Config) Constants() map[string]float64 {
	return map[string]float64{
		"ARENA_WIDTH":  c.ArenaWidth,
		"ARENA_HEIGHT": c.ArenaHeight,
	}
}

// VM derives the per robot VM tunables.
func (c Config) VM() vm.Config {
	out := vm.DefaultConfig()
	out.CyclesPerTurn = c.CyclesPerTurn
	out.MaxPower = c.MaxPower
	out.PowerRegen = c.PowerRegen
	out.FirePowerCost = c.FirePowerCost
	out.FireCooldown = c.FireCooldown
	out.RotationPerTurn = c.RotationPerTurn
	out.MaxVelocity = c.MaxVelocity
	out.ScannerFOV = c.ScannerFOV
	out.ScannerRange = c.Diagonal()
	return out
}
