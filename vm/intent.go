package vm

import "github.com/hexaflex/skirmish/arch"

// IntentKind identifies what a committed component instruction asks
// the arena to do.
type IntentKind int

const (
	IntentRotate IntentKind = iota
	IntentDrive
	IntentFire
	IntentScan
	IntentMelee
)

func (k IntentKind) String() string {
	switch k {
	case IntentRotate:
		return "rotate"
	case IntentDrive:
		return "drive"
	case IntentFire:
		return "fire"
	case IntentScan:
		return "scan"
	case IntentMelee:
		return "melee"
	}
	return "unknown"
}

// Intent is emitted when a component instruction commits. At most one
// intent leaves a VM per cycle. Rotate, drive and scan intents have
// already been applied to the VM's own component machines; fire and
// melee intents require the arena to act.
type Intent struct {
	Robot     int
	Component int
	Kind      IntentKind
	Value     float64 // rotate delta, drive target or fire power
}

// Record is passed to the trace sink whenever an instruction commits.
// Debug marks records produced by the dbg instruction; for those,
// Value carries the operand value.
type Record struct {
	IP    int
	Op    arch.Opcode
	Value float64
	Debug bool
}

// TraceFunc represents a callback handler for debug trace output.
type TraceFunc func(Record)
