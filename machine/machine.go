// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"math"

	"smis/isa"
)

// MEM_SIZE is the default memory capacity in bytes.
const MEM_SIZE = 65536

var _machine_defines = map[string]string{
	"MEM_SIZE":  fmt.Sprintf("#0x%x", MEM_SIZE),
	"WORD_SIZE": fmt.Sprintf("#%d", isa.WORD_SIZE),
	"NUM_REGS":  fmt.Sprintf("#%d", isa.NUM_REGS),
}

// State is the run state of the machine.
type State int

const (
	STATE_RUNNING State = iota
	STATE_HALTED
	STATE_FAULTED
)

func (st State) String() string {
	return [...]string{"running", "halted", "faulted"}[st]
}

// Flags are the condition bits written by ALU instructions and read by
// conditional branches.
type Flags struct {
	Zero     bool // result was zero
	Negative bool // result sign bit set
	Carry    bool // unsigned carry out (add) or borrow (subtract)
	Overflow bool // signed overflow
}

// Machine is one CPU with its flat byte-addressable memory. The PC is a
// byte address and must stay word-aligned; instructions are stored
// big-endian. A fault is terminal: once State is STATE_FAULTED the
// machine stays faulted until Reset.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Reg   [isa.NUM_REGS]uint32 // Register bank.
	Flags Flags                // Condition flags.
	PC    uint32               // Current program counter, byte address.
	Mem   []byte               // Flat memory.

	Output io.Writer // Sink for PRINT.

	State State       // Current run state.
	Fault *FaultError // Terminal fault, set when State is STATE_FAULTED.
	Steps uint64      // Executed instruction counter.
}

// NewMachine creates a machine with the given memory capacity in bytes.
func NewMachine(size uint) (m *Machine) {
	m = &Machine{
		Mem:    make([]byte, size),
		Output: io.Discard,
	}

	return
}

// Defines for the machine
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Reset zeroes the registers, flags, PC, counters, and memory, and puts
// the machine back into STATE_RUNNING.
func (m *Machine) Reset() {
	clear(m.Reg[:])
	clear(m.Mem)
	m.Flags = Flags{}
	m.PC = 0
	m.State = STATE_RUNNING
	m.Fault = nil
	m.Steps = 0
}

// Load resets the machine and copies the program image into memory at
// the given base byte address, where execution then starts.
func (m *Machine) Load(prog *isa.Program, base uint32) (err error) {
	data := prog.Bytes()
	if int(base)+len(data) > len(m.Mem) {
		err = ErrProgramSize
		return
	}

	m.Reset()
	copy(m.Mem[base:], data)
	m.PC = base

	return
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text = fmt.Sprintf("pc:%08x %v", m.PC, m.State)
	text += fmt.Sprintf(" z:%v n:%v c:%v o:%v",
		m.Flags.Zero, m.Flags.Negative, m.Flags.Carry, m.Flags.Overflow)
	for n, val := range m.Reg {
		text += fmt.Sprintf(" r%d:%08x", n, val)
	}

	return
}

// fault stops the machine, recording the kind and the PC of the
// faulting instruction.
func (m *Machine) fault(kind FaultKind) error {
	m.State = STATE_FAULTED
	m.Fault = &FaultError{Kind: kind, PC: m.PC}

	if m.Verbose {
		log.Printf("%v\n", m.Fault)
	}

	return m.Fault
}

// read fetches the 32-bit word at a byte address. Unaligned access is
// permitted; the whole word must lie inside memory.
func (m *Machine) read(addr uint32) (value uint32, err error) {
	if int64(addr)+isa.WORD_SIZE > int64(len(m.Mem)) {
		err = m.fault(FAULT_MEMORY_OUT_OF_BOUNDS)
		return
	}

	value = binary.BigEndian.Uint32(m.Mem[addr:])

	return
}

// write stores a 32-bit word at a byte address.
func (m *Machine) write(addr uint32, value uint32) (err error) {
	if int64(addr)+isa.WORD_SIZE > int64(len(m.Mem)) {
		err = m.fault(FAULT_MEMORY_OUT_OF_BOUNDS)
		return
	}

	binary.BigEndian.PutUint32(m.Mem[addr:], value)

	return
}

// aluBase maps an immediate-form ALU opcode to its register twin, which
// carries the arithmetic.
var aluBase = map[isa.Opcode]isa.Opcode{
	isa.OP_ADD_IMM:         isa.OP_ADD,
	isa.OP_SUBTRACT_IMM:    isa.OP_SUBTRACT,
	isa.OP_MULTIPLY_IMM:    isa.OP_MULTIPLY,
	isa.OP_DIVIDE_IMM:      isa.OP_DIVIDE,
	isa.OP_MODULO_IMM:      isa.OP_MODULO,
	isa.OP_COMPARE_IMM:     isa.OP_COMPARE,
	isa.OP_SHIFT_LEFT_IMM:  isa.OP_SHIFT_LEFT,
	isa.OP_SHIFT_RIGHT_IMM: isa.OP_SHIFT_RIGHT,
	isa.OP_AND_IMM:         isa.OP_AND,
	isa.OP_OR_IMM:          isa.OP_OR,
	isa.OP_XOR_IMM:         isa.OP_XOR,
	isa.OP_NAND_IMM:        isa.OP_NAND,
	isa.OP_NOR_IMM:         isa.OP_NOR,
}

// alu performs one ALU operation with 32-bit wraparound, updating the
// flags. COMPARE updates flags without a register writeback.
func (m *Machine) alu(op isa.Opcode, dest isa.Reg, a uint32, b uint32) (err error) {
	var result uint32
	writeback := true

	switch op {
	case isa.OP_ADD:
		result = a + b
		m.Flags.Carry = result < a
		m.Flags.Overflow = (a^result)&(b^result)&0x80000000 != 0
	case isa.OP_SUBTRACT, isa.OP_COMPARE:
		result = a - b
		m.Flags.Carry = a < b
		m.Flags.Overflow = (a^b)&(a^result)&0x80000000 != 0
		writeback = op != isa.OP_COMPARE
	case isa.OP_MULTIPLY:
		product := int64(int32(a)) * int64(int32(b))
		result = uint32(product)
		fits := product == int64(int32(product))
		m.Flags.Carry = !fits
		m.Flags.Overflow = !fits
	case isa.OP_DIVIDE, isa.OP_MODULO:
		if b == 0 {
			err = m.fault(FAULT_DIVIDE_BY_ZERO)
			return
		}
		m.Flags.Carry = false
		m.Flags.Overflow = int32(a) == math.MinInt32 && int32(b) == -1
		if op == isa.OP_DIVIDE {
			result = uint32(int32(a) / int32(b))
		} else {
			result = uint32(int32(a) % int32(b))
		}
	case isa.OP_SHIFT_LEFT:
		result = a << (b & 0x1f)
		m.Flags.Carry = false
		m.Flags.Overflow = false
	case isa.OP_SHIFT_RIGHT:
		result = a >> (b & 0x1f)
		m.Flags.Carry = false
		m.Flags.Overflow = false
	case isa.OP_AND, isa.OP_OR, isa.OP_XOR, isa.OP_NAND, isa.OP_NOR, isa.OP_NOT:
		switch op {
		case isa.OP_AND:
			result = a & b
		case isa.OP_OR:
			result = a | b
		case isa.OP_XOR:
			result = a ^ b
		case isa.OP_NAND:
			result = ^(a & b)
		case isa.OP_NOR:
			result = ^(a | b)
		case isa.OP_NOT:
			result = ^a
		}
		m.Flags.Carry = false
		m.Flags.Overflow = false
	}

	m.Flags.Zero = result == 0
	m.Flags.Negative = int32(result) < 0

	if writeback {
		m.Reg[dest] = result
	}

	return
}

// execute runs one decoded instruction and advances the PC.
func (m *Machine) execute(inst isa.Inst) (err error) {
	next := m.PC + isa.WORD_SIZE

	// Branch targets are word offsets relative to the branch itself.
	branch := func(taken bool) {
		if taken {
			next = m.PC + uint32(inst.Target)*isa.WORD_SIZE
		}
	}

	switch inst.Op {
	case isa.OP_SET:
		m.Reg[inst.Dest] = uint32(int32(inst.Imm))
	case isa.OP_COPY:
		m.Reg[inst.Dest] = m.Reg[inst.Src1]
	case isa.OP_ADD, isa.OP_SUBTRACT, isa.OP_MULTIPLY, isa.OP_DIVIDE,
		isa.OP_MODULO, isa.OP_COMPARE, isa.OP_SHIFT_LEFT, isa.OP_SHIFT_RIGHT,
		isa.OP_AND, isa.OP_OR, isa.OP_XOR, isa.OP_NAND, isa.OP_NOR:
		err = m.alu(inst.Op, inst.Dest, m.Reg[inst.Src1], m.Reg[inst.Src2])
	case isa.OP_NOT:
		err = m.alu(inst.Op, inst.Dest, m.Reg[inst.Src1], 0)
	case isa.OP_ADD_IMM, isa.OP_SUBTRACT_IMM, isa.OP_MULTIPLY_IMM,
		isa.OP_DIVIDE_IMM, isa.OP_MODULO_IMM, isa.OP_COMPARE_IMM,
		isa.OP_SHIFT_LEFT_IMM, isa.OP_SHIFT_RIGHT_IMM, isa.OP_AND_IMM,
		isa.OP_OR_IMM, isa.OP_XOR_IMM, isa.OP_NAND_IMM, isa.OP_NOR_IMM:
		err = m.alu(aluBase[inst.Op], inst.Dest, m.Reg[inst.Src1], uint32(int32(inst.Imm)))
	case isa.OP_LOAD:
		addr := m.Reg[inst.Src1] + uint32(int32(inst.Imm))
		var value uint32
		value, err = m.read(addr)
		if err == nil {
			m.Reg[inst.Dest] = value
		}
	case isa.OP_STORE:
		addr := m.Reg[inst.Src1] + uint32(int32(inst.Imm))
		err = m.write(addr, m.Reg[inst.Dest])
	case isa.OP_JUMP:
		branch(true)
	case isa.OP_JUMP_IF_ZERO:
		branch(m.Flags.Zero)
	case isa.OP_JUMP_IF_NOTZERO:
		branch(!m.Flags.Zero)
	case isa.OP_JUMP_IF_NEGATIVE:
		branch(m.Flags.Negative)
	case isa.OP_JUMP_IF_CARRY:
		branch(m.Flags.Carry)
	case isa.OP_JUMP_LINK:
		m.Reg[isa.REG_LINK] = next
		branch(true)
	case isa.OP_JUMP_REGISTER:
		// The new PC is validated at the next fetch.
		next = m.Reg[inst.Dest]
	case isa.OP_PRINT:
		_, err = m.Output.Write([]byte{byte(m.Reg[inst.Dest])})
	case isa.OP_HALT:
		m.State = STATE_HALTED
	case isa.OP_NOP:
	default:
		err = m.fault(FAULT_INVALID_OPCODE)
	}

	if err == nil && m.State == STATE_RUNNING {
		m.PC = next
	}

	return
}

// Step fetches, decodes, and executes exactly one instruction.
func (m *Machine) Step() (err error) {
	switch m.State {
	case STATE_FAULTED:
		err = m.Fault
		return
	case STATE_HALTED:
		err = ErrNotRunning
		return
	}

	if m.PC%isa.WORD_SIZE != 0 || int64(m.PC)+isa.WORD_SIZE > int64(len(m.Mem)) {
		err = m.fault(FAULT_PC_OUT_OF_BOUNDS)
		return
	}

	word := binary.BigEndian.Uint32(m.Mem[m.PC:])
	inst, derr := isa.Decode(word)
	if derr != nil {
		err = m.fault(FAULT_INVALID_OPCODE)
		return
	}

	if m.Verbose {
		log.Printf("pc 0x%08x: %v\n", m.PC, inst)
	}

	m.Steps++

	return m.execute(inst)
}

// Run steps the machine until it halts or faults. A maxSteps of zero
// means no cap; exceeding the cap returns ErrMaxSteps with the machine
// still in STATE_RUNNING.
func (m *Machine) Run(maxSteps uint64) (err error) {
	for m.State == STATE_RUNNING {
		if maxSteps > 0 && m.Steps >= maxSteps {
			err = ErrMaxSteps
			return
		}
		err = m.Step()
		if err != nil {
			return
		}
	}

	return
}
