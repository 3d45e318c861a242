package machine

import (
	"errors"
	"fmt"
)

// Caller errors. These are raised by misuse of the machine API and not by
// the program being executed.
var (
	ErrNilProgram      = errors.New("program buffer is nil")
	ErrProgramTooLarge = errors.New("program does not fit into memory")
	ErrInvalidKey      = errors.New("no such key")
)

// Fatal runtime conditions caused by the executed program.
var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrProgramCounter     = errors.New("program counter out of range")
)

// InstructionError describes a fatal condition hit while executing the
// instruction at Address.
type InstructionError struct {
	Err     error
	Address uint16
	Opcode  uint16 // not set for ErrProgramCounter, nothing was fetched

	// Instruction is only set if the opcode could be decoded.
	Instruction *Instruction
}

func (e *InstructionError) Error() string {
	if errors.Is(e.Err, ErrProgramCounter) {
		return fmt.Sprintf("%s: $%03X", e.Err, e.Address)
	}
	if e.Instruction != nil {
		return fmt.Sprintf("%s: %s (opcode $%04X at $%03X)", e.Err, e.Instruction, e.Opcode, e.Address)
	}
	return fmt.Sprintf("%s: opcode $%04X at $%03X", e.Err, e.Opcode, e.Address)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// IsProgrammingError returns whether the error was caused by misuse of the
// machine API rather than by the executed program.
func IsProgrammingError(err error) bool {
	return errors.Is(err, ErrNilProgram) ||
		errors.Is(err, ErrProgramTooLarge) ||
		errors.Is(err, ErrInvalidKey)
}
