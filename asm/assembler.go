// Package asm implements the two pass assembler for the robot ISA.
// Pass one records constant definitions and label addresses; pass two
// parses instructions, validates operand shapes and resolves label
// references to instruction indices.
package asm

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hexaflex/skirmish/arch"
	"github.com/hexaflex/skirmish/asm/eval"
)

// assembler holds assembler context. It turns the source text for a
// single robot program into an immutable arch.Program.
type assembler struct {
	consts map[string]float64 // resolved constant definitions
	predef map[string]bool    // names supplied by the arena configuration
	labels map[string]int     // label name to instruction index
	lines  []srcLine          // instruction lines retained for pass two
}

// srcLine is one source line carrying an instruction.
type srcLine struct {
	num    int
	fields []string
}

// Assemble compiles robot assembly source text into a Program.
// Predefined constants (ARENA_WIDTH, ARENA_HEIGHT) are supplied by the
// arena configuration and can not be redefined by the program.
func Assemble(source string, predefined map[string]float64) (*arch.Program, error) {
	a := &assembler{
		consts: make(map[string]float64),
		predef: make(map[string]bool),
		labels: make(map[string]int),
	}

	for name, value := range predefined {
		a.consts[name] = value
		a.predef[name] = true
	}

	if err := a.scan(source); err != nil {
		return nil, err
	}

	return a.emit()
}

// AssembleFile reads and assembles the given source file.
func AssembleFile(path string, predefined map[string]float64) (*arch.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read program")
	}

	prog, err := Assemble(string(data), predefined)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filepath.Base(path))
	}

	return prog, nil
}

// scan performs pass one: it evaluates .const definitions, records
// label addresses and retains instruction lines for pass two.
func (a *assembler) scan(source string) error {
	num := 0
	index := 0

	for _, raw := range strings.Split(source, "\n") {
		num++

		text := stripComment(raw)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, ".const") {
			if err := a.defineConstant(text, num); err != nil {
				return err
			}
			continue
		}

		if name, rest, ok := splitLabel(text); ok {
			if name == "" {
				return newError(num, "label name can not be empty")
			}
			if !isIdent(name) {
				return newError(num, "invalid label name %q", name)
			}
			if _, ok := a.labels[name]; ok {
				return newError(num, "duplicate label %q", name)
			}
			a.labels[name] = index
			text = rest
			if text == "" {
				continue
			}
		}

		fields := splitFields(text)
		a.lines = append(a.lines, srcLine{num: num, fields: fields})
		index++
	}

	return nil
}

// defineConstant evaluates one .const directive.
func (a *assembler) defineConstant(text string, num int) error {
	rest := strings.TrimSpace(strings.TrimPrefix(text, ".const"))
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return newError(num, "invalid .const; expected: .const NAME EXPRESSION")
	}

	name := fields[0]
	expr := strings.Join(fields[1:], " ")

	if !isConstName(name) {
		return newError(num, "constant name %q must be ALL_CAPS", name)
	}

	if a.predef[name] {
		return newError(num, "can not redefine built-in constant %q", name)
	}

	if _, ok := a.consts[name]; ok {
		return newError(num, "duplicate constant %q", name)
	}

	value, err := eval.Evaluate(expr, func(ref string) (float64, bool) {
		v, ok := a.consts[ref]
		return v, ok
	})

	if err != nil {
		return newError(num, "constant %s: %v", name, err)
	}

	a.consts[name] = value
	return nil
}

// emit performs pass two: it parses the retained instruction lines
// and resolves label references.
func (a *assembler) emit() (*arch.Program, error) {
	out := make([]arch.Instruction, 0, len(a.lines))

	for _, ln := range a.lines {
		instr, err := a.parseInstruction(ln)
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
	}

	return &arch.Program{
		Instructions: out,
		Labels:       a.labels,
		Constants:    a.consts,
	}, nil
}

// parseInstruction parses a single instruction line, enforcing the
// operand shapes each mnemonic permits.
func (a *assembler) parseInstruction(ln srcLine) (arch.Instruction, error) {
	var instr arch.Instruction

	op, ok := arch.FindOpcode(ln.fields[0])
	if !ok {
		return instr, newError(ln.num, "unknown instruction %q", ln.fields[0])
	}

	instr.Op = op
	argv := ln.fields[1:]

	switch op {
	case arch.NOP, arch.DUP, arch.SWAP, arch.DIVMOD, arch.RET,
		arch.DESELECT, arch.SCAN, arch.ATTACK:
		if len(argv) != 0 {
			return instr, newError(ln.num, "%s takes no operands", op.Name())
		}

	case arch.PUSH, arch.STO, arch.DBG, arch.SLEEP, arch.SELECT,
		arch.ROTATE, arch.DRIVE, arch.FIRE:
		if len(argv) != 1 {
			return instr, newError(ln.num, "%s requires one operand", op.Name())
		}
		v, err := a.parseValue(argv[0], ln.num)
		if err != nil {
			return instr, err
		}
		instr.A = v

	case arch.POP:
		switch len(argv) {
		case 0:
			// Bare pop discards the top of stack.
		case 1:
			r, err := a.parseWritable(argv[0], ln.num)
			if err != nil {
				return instr, err
			}
			instr.A = r
		default:
			return instr, newError(ln.num, "pop takes at most one register")
		}

	case arch.LOD:
		if len(argv) != 1 {
			return instr, newError(ln.num, "lod requires a destination register")
		}
		r, err := a.parseWritable(argv[0], ln.num)
		if err != nil {
			return instr, err
		}
		instr.A = r

	case arch.MOV:
		if len(argv) != 2 {
			return instr, newError(ln.num, "mov requires a register and a value")
		}
		r, err := a.parseWritable(argv[0], ln.num)
		if err != nil {
			return instr, err
		}
		v, err := a.parseValue(argv[1], ln.num)
		if err != nil {
			return instr, err
		}
		instr.A, instr.B = r, v

	case arch.CMP:
		if len(argv) != 2 {
			return instr, newError(ln.num, "cmp requires two operands")
		}
		if err := a.parseValues(&instr, argv, ln.num); err != nil {
			return instr, err
		}

	case arch.ADD, arch.SUB, arch.MUL, arch.DIV, arch.MOD, arch.POW,
		arch.ATAN2, arch.AND, arch.OR, arch.XOR, arch.SHL, arch.SHR:
		switch len(argv) {
		case 0:
			// Stack form.
		case 2:
			if err := a.parseValues(&instr, argv, ln.num); err != nil {
				return instr, err
			}
		default:
			return instr, newError(ln.num, "%s takes zero or two operands", op.Name())
		}

	case arch.SQRT, arch.LOG, arch.SIN, arch.COS, arch.TAN,
		arch.ASIN, arch.ACOS, arch.ATAN, arch.ABS, arch.NOT:
		switch len(argv) {
		case 0:
			// Stack form.
		case 1:
			v, err := a.parseValue(argv[0], ln.num)
			if err != nil {
				return instr, err
			}
			instr.A = v
		default:
			return instr, newError(ln.num, "%s takes zero or one operand", op.Name())
		}

	case arch.JMP, arch.JZ, arch.JNZ, arch.JL, arch.JLE, arch.JG,
		arch.JGE, arch.CALL, arch.LOOP:
		if len(argv) != 1 {
			return instr, newError(ln.num, "%s requires a label", op.Name())
		}
		target, ok := a.labels[argv[0]]
		if !ok {
			return instr, newError(ln.num, "unknown label %q", argv[0])
		}
		instr.A = arch.LabelRef(target)
	}

	return instr, nil
}

// parseValues parses two value operands into A and B.
func (a *assembler) parseValues(instr *arch.Instruction, argv []string, num int) error {
	va, err := a.parseValue(argv[0], num)
	if err != nil {
		return err
	}
	vb, err := a.parseValue(argv[1], num)
	if err != nil {
		return err
	}
	instr.A, instr.B = va, vb
	return nil
}

// parseValue parses an operand that may be an immediate number, a
// register reference or a constant name.
func (a *assembler) parseValue(s string, num int) (arch.Operand, error) {
	if strings.HasPrefix(s, "@") {
		r, ok := arch.FindRegister(s[1:])
		if !ok {
			return arch.Operand{}, newError(num, "unknown register %q", s)
		}
		return arch.Reg(r), nil
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return arch.Imm(v), nil
	}

	if v, ok := a.consts[s]; ok {
		return arch.Imm(v), nil
	}

	return arch.Operand{}, newError(num, "invalid operand %q; not a number, register or known constant", s)
}

// parseWritable parses an operand that must name a program writable register.
func (a *assembler) parseWritable(s string, num int) (arch.Operand, error) {
	if !strings.HasPrefix(s, "@") {
		return arch.Operand{}, newError(num, "expected a register, have %q", s)
	}

	r, ok := arch.FindRegister(s[1:])
	if !ok {
		return arch.Operand{}, newError(num, "unknown register %q", s)
	}

	if !r.Writable() {
		return arch.Operand{}, newError(num, "register @%s is read-only", r.Name())
	}

	return arch.Reg(r), nil
}

// stripComment removes a trailing comment and surrounding whitespace.
// Comments start at the first ';', '#' or "//" on the line.
func stripComment(s string) string {
	for _, marker := range []string{";", "#", "//"} {
		if i := strings.Index(s, marker); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// splitLabel splits a "name: rest" line into its label and remainder.
func splitLabel(s string) (name, rest string, ok bool) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", s, false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}

// splitFields splits an instruction into mnemonic and arguments.
// Commas between arguments carry no meaning.
func splitFields(s string) []string {
	return strings.Fields(strings.ReplaceAll(s, ",", " "))
}

// isConstName reports whether the name is a valid ALL_CAPS constant name.
func isConstName(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return s != ""
}

// isIdent reports whether the name is a valid label identifier.
func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return s != ""
}
