// Package vm implements the deterministic, cycle accurate virtual
// machine driving one robot. A VM performs exactly one cycle of work
// per Tick call: it refreshes the status registers, counts down the
// in-flight instruction's cycle budget and commits the instruction's
// state effects atomically once the budget is spent. A committed
// component instruction yields at most one intent for the arena.
package vm

import (
	"math"
	"math/rand"

	"fortio.org/safecast"

	"github.com/hexaflex/skirmish/arch"
	"github.com/hexaflex/skirmish/comp"
)

// VM executes one robot program.
type VM struct {
	id    int
	prog  *arch.Program
	cfg   Config
	query Query
	trace TraceFunc
	rng   *rand.Rand

	regs  File
	mem   []float64
	data  *stack
	calls []int

	ip       int
	pending  int  // cycles left on the in-flight instruction
	inflight bool
	halted   bool
	fault    arch.Fault

	drive  *comp.Drive
	turret *comp.Turret
	power  float64

	// Robot state owned by the scheduler, pushed in before each cycle.
	health, posX, posY float64
}

// New creates a VM for the given program. The PRNG feeding @rand is
// seeded from the match seed combined with the robot id, so matches
// replay bit-identically. Heading is the initial direction of both the
// drive and the turret. The trace handler may be nil.
func New(id int, seed int64, heading float64, prog *arch.Program, cfg Config, q Query, trace TraceFunc) *VM {
	if trace == nil {
		trace = func(Record) { /* nop */ }
	}

	return &VM{
		id:     id,
		prog:   prog,
		cfg:    cfg,
		query:  q,
		trace:  trace,
		rng:    rand.New(rand.NewSource(seed + (int64(id)+1)*0x9e3779b9)),
		mem:    make([]float64, cfg.MemorySize),
		data:   newStack(cfg.StackSize),
		calls:  make([]int, 0, cfg.MaxCallDepth),
		drive:  comp.NewDrive(heading, cfg.RotationPerTurn, cfg.MaxVelocity, cfg.CyclesPerTurn),
		turret: comp.NewTurret(heading, cfg.RotationPerTurn, cfg.CyclesPerTurn, cfg.FireCooldown, cfg.FirePowerCost, cfg.ScannerFOV, cfg.ScannerRange),
		power:  cfg.MaxPower,
	}
}

// SetStatus pushes the scheduler owned robot state into the VM. It is
// called before each cycle with the robot's current health and position.
func (m *VM) SetStatus(health, x, y float64) {
	m.health = health
	m.posX = x
	m.posY = y
}

// Tick performs exactly one cycle of work. It returns a non-nil
// intent when a component instruction commits this cycle. A halted or
// faulted VM does nothing.
func (m *VM) Tick(turn, cycle int) *Intent {
	if m.halted {
		return nil
	}

	m.refresh(turn, cycle)

	if !m.inflight {
		if m.ip < 0 || m.ip >= len(m.prog.Instructions) {
			m.halted = true
			return nil
		}
		m.pending = m.cost(m.prog.Instructions[m.ip])
		m.inflight = true
	}

	m.pending--
	if m.pending > 0 {
		return nil
	}

	in := m.prog.Instructions[m.ip]
	m.inflight = false

	intent, next, fault := m.commit(in)
	if fault != arch.FaultNone {
		m.setFault(fault)
		return nil
	}

	m.trace(Record{IP: m.ip, Op: in.Op})
	m.ip = next
	return intent
}

// StepComponents advances the component machines and power
// regeneration by one cycle. The tick driver calls this every cycle,
// even for faulted robots: rotation and deceleration are physics, not
// program execution.
func (m *VM) StepComponents() {
	m.power = math.Min(m.cfg.MaxPower, m.power+m.cfg.PowerRegen)
	m.drive.Step()
	m.turret.Step()
}

// Halted returns true if the VM stopped for the rest of the match.
func (m *VM) Halted() bool {
	return m.halted
}

// Fault returns the fault that halted the VM, if any.
func (m *VM) Fault() arch.Fault {
	return m.fault
}

// IP returns the current instruction pointer.
func (m *VM) IP() int {
	return m.ip
}

// Drive returns the drive component.
func (m *VM) Drive() *comp.Drive {
	return m.drive
}

// Turret returns the turret component.
func (m *VM) Turret() *comp.Turret {
	return m.turret
}

// Power returns the current robot power level.
func (m *VM) Power() float64 {
	return m.power
}

// Registers exposes the register file for inspection.
func (m *VM) Registers() *File {
	return &m.regs
}

// Memory exposes the memory vector for inspection.
func (m *VM) Memory() []float64 {
	return m.mem
}

// StackDepth returns the number of values on the data stack.
func (m *VM) StackDepth() int {
	return m.data.depth()
}

// Reset returns the component machines to a standstill at the given
// heading. The scheduler calls this when the robot is destroyed.
func (m *VM) Reset(heading float64) {
	m.drive.Reset(heading)
	m.turret.Reset(heading)
}

// refresh writes the scheduler and component owned registers. It runs
// at the start of every cycle, before the fetch.
func (m *VM) refresh(turn, cycle int) {
	m.regs.Set(arch.Turn, float64(turn))
	m.regs.Set(arch.Cycle, float64(cycle))
	m.regs.Set(arch.Rand, m.rng.Float64())

	m.regs.Set(arch.Health, m.health)
	m.regs.Set(arch.Power, m.power)
	m.regs.Set(arch.PosX, m.posX)
	m.regs.Set(arch.PosY, m.posY)

	if m.query != nil {
		fwd := m.query.Clearance(m.posX, m.posY, m.drive.Direction)
		back := m.query.Clearance(m.posX, m.posY, comp.Normalize(m.drive.Direction+180))
		m.regs.Set(arch.ForwardDistance, fwd)
		m.regs.Set(arch.BackwardDistance, back)
	}

	m.regs.Set(arch.DriveDirection, m.drive.Direction)
	m.regs.Set(arch.DriveVelocity, m.drive.Velocity)
	m.regs.Set(arch.TurretDirection, m.turret.Direction)
	m.regs.Set(arch.WeaponPower, m.power)
	m.regs.Set(arch.WeaponCooldown, float64(m.turret.Weapon.Cooldown))
	m.regs.Set(arch.TargetDistance, m.turret.Scanner.TargetDistance)
	m.regs.Set(arch.TargetDirection, m.turret.Scanner.TargetDirection)
}

// cost resolves the cycle cost of an instruction at fetch time.
// Only sleep has a dynamic cost: its operand value, at least one.
func (m *VM) cost(in arch.Instruction) int {
	if in.Op != arch.SLEEP {
		return in.Op.Cost()
	}

	n, err := safecast.Convert[int](math.Trunc(m.value(in.A)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// value reads an operand. Operand kinds were validated at assembly
// time, so anything unexpected resolves to zero.
func (m *VM) value(op arch.Operand) float64 {
	switch op.Kind {
	case arch.OperandImmediate:
		return op.Value
	case arch.OperandRegister:
		return m.regs.Get(op.Reg)
	}
	return 0
}

// setFault records the fault and halts the VM for the rest of the match.
func (m *VM) setFault(f arch.Fault) {
	m.fault = f
	m.regs.Set(arch.FaultReg, float64(f))
	m.halted = true
}

// selected returns the currently selected component id.
func (m *VM) selected() int {
	return int(m.regs.Get(arch.Component))
}

// commit applies an instruction's state effects atomically. It
// returns the intent to hand to the arena (if any), the next
// instruction pointer and a fault code.
func (m *VM) commit(in arch.Instruction) (*Intent, int, arch.Fault) {
	next := m.ip + 1

	switch in.Op {
	case arch.NOP, arch.SLEEP:
		// No state effects.

	case arch.PUSH:
		if f := m.data.push(m.value(in.A)); f != arch.FaultNone {
			return nil, 0, f
		}

	case arch.POP:
		v, f := m.data.pop()
		if f != arch.FaultNone {
			return nil, 0, f
		}
		if in.A.Kind == arch.OperandRegister {
			m.regs.Set(in.A.Reg, v)
		}

	case arch.DUP:
		if f := m.data.dup(); f != arch.FaultNone {
			return nil, 0, f
		}

	case arch.SWAP:
		if f := m.data.swap(); f != arch.FaultNone {
			return nil, 0, f
		}

	case arch.MOV:
		m.regs.Set(in.A.Reg, m.value(in.B))

	case arch.CMP:
		m.regs.Set(arch.Result, m.value(in.A)-m.value(in.B))

	case arch.LOD:
		i, f := m.memIndex()
		if f != arch.FaultNone {
			return nil, 0, f
		}
		m.regs.Set(in.A.Reg, m.mem[i])
		m.regs.Set(arch.Index, float64(i+1))

	case arch.STO:
		i, f := m.memIndex()
		if f != arch.FaultNone {
			return nil, 0, f
		}
		m.mem[i] = m.value(in.A)
		m.regs.Set(arch.Index, float64(i+1))

	case arch.ADD:
		return nil, next, m.binary(in, func(a, b float64) (float64, arch.Fault) {
			return a + b, arch.FaultNone
		})
	case arch.SUB:
		return nil, next, m.binary(in, func(a, b float64) (float64, arch.Fault) {
			return a - b, arch.FaultNone
		})
	case arch.MUL:
		return nil, next, m.binary(in, func(a, b float64) (float64, arch.Fault) {
			return a * b, arch.FaultNone
		})
	case arch.DIV:
		return nil, next, m.binary(in, func(a, b float64) (float64, arch.Fault) {
			if b == 0 {
				return 0, arch.FaultDivisionByZero
			}
			return a / b, arch.FaultNone
		})
	case arch.MOD:
		return nil, next, m.binary(in, func(a, b float64) (float64, arch.Fault) {
			if b == 0 {
				return 0, arch.FaultDivisionByZero
			}
			return math.Mod(a, b), arch.FaultNone
		})
	case arch.POW:
		return nil, next, m.binary(in, func(a, b float64) (float64, arch.Fault) {
			return math.Pow(a, b), arch.FaultNone
		})
	case arch.ATAN2:
		return nil, next, m.binary(in, func(y, x float64) (float64, arch.Fault) {
			return degrees(math.Atan2(y, x)), arch.FaultNone
		})

	case arch.DIVMOD:
		b, f := m.data.pop()
		if f != arch.FaultNone {
			return nil, 0, f
		}
		a, f := m.data.pop()
		if f != arch.FaultNone {
			return nil, 0, f
		}
		if b == 0 {
			return nil, 0, arch.FaultDivisionByZero
		}
		if f := m.data.push(math.Trunc(a / b)); f != arch.FaultNone {
			return nil, 0, f
		}
		if f := m.data.push(math.Mod(a, b)); f != arch.FaultNone {
			return nil, 0, f
		}

	case arch.ABS:
		return nil, next, m.unary(in, math.Abs)
	case arch.SQRT:
		return nil, next, m.unary(in, math.Sqrt)
	case arch.LOG:
		return nil, next, m.unary(in, math.Log)
	case arch.SIN:
		return nil, next, m.unary(in, func(v float64) float64 { return math.Sin(radians(v)) })
	case arch.COS:
		return nil, next, m.unary(in, func(v float64) float64 { return math.Cos(radians(v)) })
	case arch.TAN:
		return nil, next, m.unary(in, func(v float64) float64 { return math.Tan(radians(v)) })
	case arch.ASIN:
		return nil, next, m.unary(in, func(v float64) float64 { return degrees(math.Asin(v)) })
	case arch.ACOS:
		return nil, next, m.unary(in, func(v float64) float64 { return degrees(math.Acos(v)) })
	case arch.ATAN:
		return nil, next, m.unary(in, func(v float64) float64 { return degrees(math.Atan(v)) })

	case arch.AND:
		return nil, next, m.binary(in, bitwise(func(a, b uint32) uint32 { return a & b }))
	case arch.OR:
		return nil, next, m.binary(in, bitwise(func(a, b uint32) uint32 { return a | b }))
	case arch.XOR:
		return nil, next, m.binary(in, bitwise(func(a, b uint32) uint32 { return a ^ b }))
	case arch.SHL:
		return nil, next, m.binary(in, bitwise(func(a, b uint32) uint32 { return a << shiftCount(b) }))
	case arch.SHR:
		return nil, next, m.binary(in, bitwise(func(a, b uint32) uint32 { return a >> shiftCount(b) }))
	case arch.NOT:
		return nil, next, m.unary(in, func(v float64) float64 { return float64(^u32(v)) })

	case arch.JMP:
		return m.jump(in, true)
	case arch.JZ:
		return m.condJump(in, func(r float64) bool { return r == 0 })
	case arch.JNZ:
		return m.condJump(in, func(r float64) bool { return r != 0 })
	case arch.JL:
		return m.condJump(in, func(r float64) bool { return r < 0 })
	case arch.JLE:
		return m.condJump(in, func(r float64) bool { return r <= 0 })
	case arch.JG:
		return m.condJump(in, func(r float64) bool { return r > 0 })
	case arch.JGE:
		return m.condJump(in, func(r float64) bool { return r >= 0 })

	case arch.CALL:
		if len(m.calls) >= m.cfg.MaxCallDepth {
			return nil, 0, arch.FaultCallStackOverflow
		}
		if !m.validTarget(in.A.Index) {
			return nil, 0, arch.FaultBadJumpTarget
		}
		m.calls = append(m.calls, m.ip+1)
		next = in.A.Index

	case arch.RET:
		if len(m.calls) == 0 {
			return nil, 0, arch.FaultCallStackUnderflow
		}
		next = m.calls[len(m.calls)-1]
		m.calls = m.calls[:len(m.calls)-1]

	case arch.LOOP:
		c := m.regs.Get(arch.C) - 1
		m.regs.Set(arch.C, c)
		if c != 0 {
			if !m.validTarget(in.A.Index) {
				return nil, 0, arch.FaultBadJumpTarget
			}
			next = in.A.Index
		}

	case arch.SELECT:
		id, err := safecast.Convert[int](math.Trunc(m.value(in.A)))
		if err != nil || id < arch.ComponentNone || id > arch.ComponentTurret {
			return nil, 0, arch.FaultBadOperand
		}
		m.regs.Set(arch.Component, float64(id))

	case arch.DESELECT:
		m.regs.Set(arch.Component, arch.ComponentNone)

	case arch.ROTATE:
		delta := m.value(in.A)
		switch m.selected() {
		case arch.ComponentDrive:
			m.drive.Rotate(delta)
			return m.intent(IntentRotate, arch.ComponentDrive, delta), next, arch.FaultNone
		case arch.ComponentTurret:
			m.turret.Rotate(delta)
			return m.intent(IntentRotate, arch.ComponentTurret, delta), next, arch.FaultNone
		}
		// No or wrong component: the cycles are spent regardless.

	case arch.DRIVE:
		if m.selected() == arch.ComponentDrive {
			target := m.value(in.A)
			m.drive.SetVelocity(target)
			return m.intent(IntentDrive, arch.ComponentDrive, target), next, arch.FaultNone
		}

	case arch.FIRE:
		if m.selected() == arch.ComponentTurret {
			power := m.value(in.A)
			drain, ok := m.turret.Weapon.Fire(power, m.power)
			if ok {
				m.power -= drain
				return m.intent(IntentFire, arch.ComponentTurret, math.Min(math.Max(power, 0), 1)), next, arch.FaultNone
			}
		}

	case arch.SCAN:
		if m.selected() == arch.ComponentTurret {
			s := &m.turret.Scanner
			if m.query != nil {
				dist, dir, ok := m.query.NearestTarget(m.id, m.posX, m.posY, m.turret.Direction, s.FOV, s.Range)
				s.Record(dist, dir, ok)
			} else {
				s.Record(0, 0, false)
			}
			return m.intent(IntentScan, arch.ComponentTurret, 0), next, arch.FaultNone
		}

	case arch.ATTACK:
		if m.selected() == arch.ComponentTurret {
			return m.intent(IntentMelee, arch.ComponentTurret, 0), next, arch.FaultNone
		}

	case arch.DBG:
		m.trace(Record{IP: m.ip, Op: in.Op, Value: m.value(in.A), Debug: true})

	default:
		return nil, 0, arch.FaultBadOperand
	}

	return nil, next, arch.FaultNone
}

// intent builds an intent record for the arena.
func (m *VM) intent(kind IntentKind, component int, value float64) *Intent {
	return &Intent{
		Robot:     m.id,
		Component: component,
		Kind:      kind,
		Value:     value,
	}
}

// jump validates the target and transfers to it when taken is true;
// otherwise execution continues at the next instruction.
func (m *VM) jump(in arch.Instruction, taken bool) (*Intent, int, arch.Fault) {
	if !m.validTarget(in.A.Index) {
		return nil, 0, arch.FaultBadJumpTarget
	}
	if !taken {
		return nil, m.ip + 1, arch.FaultNone
	}
	return nil, in.A.Index, arch.FaultNone
}

// condJump inspects @result and jumps when the predicate holds.
// A NaN comparison value is a fault.
func (m *VM) condJump(in arch.Instruction, pred func(float64) bool) (*Intent, int, arch.Fault) {
	r := m.regs.Get(arch.Result)
	if math.IsNaN(r) {
		return nil, 0, arch.FaultNaNComparison
	}
	return m.jump(in, pred(r))
}

func (m *VM) validTarget(index int) bool {
	return index >= 0 && index < len(m.prog.Instructions)
}

// memIndex reads @index and validates it against the memory size.
func (m *VM) memIndex() (int, arch.Fault) {
	i, err := safecast.Convert[int](math.Trunc(m.regs.Get(arch.Index)))
	if err != nil || i < 0 || i >= len(m.mem) {
		return 0, arch.FaultMemoryOutOfRange
	}
	return i, arch.FaultNone
}

// binary applies a two operand computation in either form: the stack
// form pops both operands and pushes the result; the operand form
// reads the instruction operands and stores into @result.
func (m *VM) binary(in arch.Instruction, fn func(a, b float64) (float64, arch.Fault)) arch.Fault {
	if in.A.Kind == arch.OperandNone {
		b, f := m.data.pop()
		if f != arch.FaultNone {
			return f
		}
		a, f := m.data.pop()
		if f != arch.FaultNone {
			return f
		}
		v, f := fn(a, b)
		if f != arch.FaultNone {
			return f
		}
		return m.data.push(v)
	}

	v, f := fn(m.value(in.A), m.value(in.B))
	if f != arch.FaultNone {
		return f
	}
	m.regs.Set(arch.Result, v)
	return arch.FaultNone
}

// unary is the one operand counterpart of binary.
func (m *VM) unary(in arch.Instruction, fn func(float64) float64) arch.Fault {
	if in.A.Kind == arch.OperandNone {
		v, f := m.data.pop()
		if f != arch.FaultNone {
			return f
		}
		return m.data.push(fn(v))
	}

	m.regs.Set(arch.Result, fn(m.value(in.A)))
	return arch.FaultNone
}

// bitwise adapts a uint32 operation to f64 operands. Values are
// truncated toward zero and reduced modulo 2^32 before the operation.
func bitwise(fn func(a, b uint32) uint32) func(a, b float64) (float64, arch.Fault) {
	return func(a, b float64) (float64, arch.Fault) {
		return float64(fn(u32(a), u32(b))), arch.FaultNone
	}
}

// u32 converts a float to its 32 bit unsigned representation,
// truncating toward zero and wrapping modulo 2^32.
func u32(v float64) uint32 {
	t := math.Trunc(v)
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	w := math.Mod(t, 1<<32)
	if w < 0 {
		w += 1 << 32
	}
	return uint32(w)
}

// shiftCount clamps a shift amount to [0, 31].
func shiftCount(v uint32) uint32 {
	if v > 31 {
		return 31
	}
	return v
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
