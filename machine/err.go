package machine

import (
	"errors"

	"smis/translate"
)

var f = translate.From

var (
	// Engine errors
	ErrMaxSteps    = errors.New(f("step limit exceeded"))
	ErrProgramSize = errors.New(f("program image exceeds memory"))
	ErrNotRunning  = errors.New(f("machine not running"))
)

// FaultKind classifies a terminal CPU fault.
type FaultKind int

const (
	FAULT_PC_OUT_OF_BOUNDS FaultKind = iota
	FAULT_INVALID_OPCODE
	FAULT_MEMORY_OUT_OF_BOUNDS
	FAULT_DIVIDE_BY_ZERO
)

func (fk FaultKind) String() string {
	switch fk {
	case FAULT_PC_OUT_OF_BOUNDS:
		return "pc out of bounds"
	case FAULT_INVALID_OPCODE:
		return "invalid opcode"
	case FAULT_MEMORY_OUT_OF_BOUNDS:
		return "memory out of bounds"
	case FAULT_DIVIDE_BY_ZERO:
		return "divide by zero"
	}

	return f("fault(%d)", int(fk))
}

// FaultError is a terminal CPU fault. The machine does not run past it;
// the PC is the address of the faulting instruction.
type FaultError struct {
	Kind FaultKind
	PC   uint32
}

func (err *FaultError) Error() string {
	return f("fault '%v' at pc 0x%08x", err.Kind, err.PC)
}

func (err *FaultError) Is(other error) (ok bool) {
	_, ok = other.(*FaultError)
	return
}
