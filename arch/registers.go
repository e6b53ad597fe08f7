package arch

import (
	"strconv"
	"strings"
)

// Register identifies a slot in the robot register file.
type Register int

// The full register set. General data registers are writable by a
// program; everything from FaultReg onward is written by the scheduler or
// the component subsystem and is read-only from program code.
const (
	D0 Register = iota
	D1
	D2
	D3
	D4
	D5
	D6
	D7
	D8
	D9
	D10
	D11
	D12
	D13
	D14
	D15
	D16
	D17
	D18
	C
	Index
	Result

	FaultReg
	Turn
	Cycle
	Rand

	Health
	Power
	PosX
	PosY
	Component

	DriveDirection
	DriveVelocity
	TurretDirection
	ForwardDistance
	BackwardDistance
	WeaponPower
	WeaponCooldown
	TargetDistance
	TargetDirection

	NumRegisters
)

// GeneralRegisters is the number of general purpose data registers (d0..d18).
const GeneralRegisters = 19

// FindRegister returns the register for the given name, without the
// leading '@'. Names are case-insensitive. Returns false if the name
// is not recognized.
func FindRegister(name string) (Register, bool) {
	switch strings.ToLower(name) {
	case "d0":
		return D0, true
	case "d1":
		return D1, true
	case "d2":
		return D2, true
	case "d3":
		return D3, true
	case "d4":
		return D4, true
	case "d5":
		return D5, true
	case "d6":
		return D6, true
	case "d7":
		return D7, true
	case "d8":
		return D8, true
	case "d9":
		return D9, true
	case "d10":
		return D10, true
	case "d11":
		return D11, true
	case "d12":
		return D12, true
	case "d13":
		return D13, true
	case "d14":
		return D14, true
	case "d15":
		return D15, true
	case "d16":
		return D16, true
	case "d17":
		return D17, true
	case "d18":
		return D18, true
	case "c":
		return C, true
	case "index":
		return Index, true
	case "result":
		return Result, true
	case "fault":
		return FaultReg, true
	case "turn":
		return Turn, true
	case "cycle":
		return Cycle, true
	case "rand":
		return Rand, true
	case "health":
		return Health, true
	case "power":
		return Power, true
	case "posx", "pos_x":
		return PosX, true
	case "posy", "pos_y":
		return PosY, true
	case "component":
		return Component, true
	case "drivedirection", "drive_direction":
		return DriveDirection, true
	case "drivevelocity", "drive_velocity":
		return DriveVelocity, true
	case "turretdirection", "turret_direction":
		return TurretDirection, true
	case "forwarddistance", "forward_distance":
		return ForwardDistance, true
	case "backwarddistance", "backward_distance":
		return BackwardDistance, true
	case "weaponpower", "weapon_power":
		return WeaponPower, true
	case "weaponcooldown", "weapon_cooldown":
		return WeaponCooldown, true
	case "targetdistance", "target_distance":
		return TargetDistance, true
	case "targetdirection", "target_direction":
		return TargetDirection, true
	}
	return 0, false
}

// Name returns the canonical name for the given register,
// without the leading '@'. Returns "" if the register is not recognized.
func (r Register) Name() string {
	if r >= D0 && r <= D18 {
		return "d" + strconv.Itoa(int(r))
	}
	switch r {
	case C:
		return "c"
	case Index:
		return "index"
	case Result:
		return "result"
	case FaultReg:
		return "fault"
	case Turn:
		return "turn"
	case Cycle:
		return "cycle"
	case Rand:
		return "rand"
	case Health:
		return "health"
	case Power:
		return "power"
	case PosX:
		return "pos_x"
	case PosY:
		return "pos_y"
	case Component:
		return "component"
	case DriveDirection:
		return "drive_direction"
	case DriveVelocity:
		return "drive_velocity"
	case TurretDirection:
		return "turret_direction"
	case ForwardDistance:
		return "forward_distance"
	case BackwardDistance:
		return "backward_distance"
	case WeaponPower:
		return "weapon_power"
	case WeaponCooldown:
		return "weapon_cooldown"
	case TargetDistance:
		return "target_distance"
	case TargetDirection:
		return "target_direction"
	}
	return ""
}

// Writable returns true if a program may write to the register.
// Write protection is enforced by the assembler's operand validator;
// the VM itself performs no runtime checks.
func (r Register) Writable() bool {
	return (r >= D0 && r <= D18) || r == C || r == Index || r == Result
}
