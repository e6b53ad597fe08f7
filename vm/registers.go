package vm

import "github.com/hexaflex/skirmish/arch"

// File holds every register in a single flat array indexed by
// arch.Register. Write protection for read-only registers is enforced
// by the assembler, so the file itself carries no permission checks.
type File [arch.NumRegisters]float64

// Get returns the value of the given register.
func (f *File) Get(r arch.Register) float64 {
	return f[r]
}

// Set stores a value in the given register.
func (f *File) Set(r arch.Register, v float64) {
	f[r] = v
}
