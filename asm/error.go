package asm

import "fmt"

// Error defines an assembly error with source line context.
type Error struct {
	Line int
	Msg  string
}

// newError creates a new, formatted error message for the given source line.
func newError(line int, f string, argv ...interface{}) *Error {
	return &Error{
		Line: line,
		Msg:  fmt.Sprintf(f, argv...),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
