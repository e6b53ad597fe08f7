package asm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hexaflex/skirmish/arch"
)

// Format renders a program back into canonical assembly source.
// Re-assembling the result yields the same instruction vector and
// label table. Constants have already been folded into immediates by
// the assembler and do not reappear.
func Format(p *arch.Program) string {
	names := labelsByIndex(p)

	var sb strings.Builder
	for i, instr := range p.Instructions {
		for _, name := range names[i] {
			fmt.Fprintf(&sb, "%s:\n", name)
		}
		fmt.Fprintf(&sb, "\t%s\n", formatInstruction(instr, names))
	}

	// Labels addressing one past the last instruction.
	for _, name := range names[len(p.Instructions)] {
		fmt.Fprintf(&sb, "%s:\n", name)
	}

	return sb.String()
}

// labelsByIndex groups label names by instruction index, sorted for
// deterministic output.
func labelsByIndex(p *arch.Program) map[int][]string {
	names := make(map[int][]string, len(p.Labels))
	for name, index := range p.Labels {
		names[index] = append(names[index], name)
	}
	for _, set := range names {
		sort.Strings(set)
	}
	return names
}

// formatInstruction renders one instruction with its operands.
func formatInstruction(instr arch.Instruction, names map[int][]string) string {
	parts := []string{instr.Op.Name()}

	for _, op := range []arch.Operand{instr.A, instr.B} {
		switch op.Kind {
		case arch.OperandImmediate:
			parts = append(parts, strconv.FormatFloat(op.Value, 'g', -1, 64))
		case arch.OperandRegister:
			parts = append(parts, "@"+op.Reg.Name())
		case arch.OperandLabel:
			parts = append(parts, names[op.Index][0])
		}
	}

	return strings.Join(parts, " ")
}
