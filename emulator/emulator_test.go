package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"smis/isa"
	"smis/machine"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Machine)
	assert.Equal(uint64(MAX_STEPS), emu.MaxSteps)
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) (output []byte) {
	assert := assert.New(t)

	asm := &isa.Assembler{}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}
	emu.Program = prog

	out := &bytes.Buffer{}

	err = emu.Reset()
	assert.NoError(err)
	emu.Machine.Output = out

	for {
		lineno := emu.LineNo()
		assert.Greater(lineno, 0)

		done, err := emu.Tick()
		assert.NoError(err)
		if err != nil || done {
			break
		}
	}

	output = out.Bytes()

	return
}

func TestEmulatorPrint(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	program := []string{
		"SET R1 #0x48 // 'H'",
		"PRINT R1",
		"SET R1 #0x69 // 'i'",
		"PRINT R1",
		"HALT",
	}

	output := doRunSingle(emu, program, t)
	assert.Equal("Hi", string(output))
	assert.Equal(machine.STATE_HALTED, emu.Machine.State)
}

func TestEmulatorLoop(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	// Sum 1..5 and print the result as a digit.
	program := []string{
		"SET R1 #5",
		"SET R2 #0",
		"loop:",
		"ADD R2 R2 R1",
		"SUBTRACT-IMM R1 R1 #1",
		"JUMP-IF-NOTZERO loop",
		"ADD-IMM R2 R2 #0x30",
		"PRINT R2",
		"HALT",
	}

	output := doRunSingle(emu, program, t)
	assert.Equal("?", string(output)) // 15 + '0' = 0x3f
	assert.Equal(uint32(0x3f), emu.Machine.Reg[2])
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	defines := map[string]string{}
	for equ, value := range emu.Defines() {
		defines[equ] = value
	}

	assert.Contains(defines, "LOAD_BASE")
	assert.Contains(defines, "MAX_STEPS")
	assert.Contains(defines, "MEM_SIZE")
	assert.Contains(defines, "WORD_SIZE")
	assert.Contains(defines, "NUM_REGS")

	// Defines are usable as assembler predefines.
	program := []string{
		"SET R1 WORD_SIZE",
		"HALT",
	}

	output := doRunSingle(emu, program, t)
	assert.Empty(output)
	assert.Equal(uint32(isa.WORD_SIZE), emu.Machine.Reg[1])
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	asm := &isa.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"SET R1 #3",
		"MULTIPLY-IMM R1 R1 #7",
		"HALT",
	}, "\n")))
	assert.NoError(err)
	emu.Program = prog

	err = emu.Run()
	assert.NoError(err)
	assert.Equal(uint32(21), emu.Machine.Reg[1])
	assert.Equal(machine.STATE_HALTED, emu.Machine.State)
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	asm := &isa.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"SET R1 #1",
		"// divide by the zeroed register faults",
		"DIVIDE R2 R1 R3",
		"HALT",
	}, "\n")))
	assert.NoError(err)
	emu.Program = prog

	err = emu.Run()
	assert.Error(err)

	var re *ErrRuntime
	if assert.True(errors.As(err, &re)) {
		assert.Equal(3, re.LineNo)
	}

	var fe *machine.FaultError
	if assert.True(errors.As(err, &fe)) {
		assert.Equal(machine.FAULT_DIVIDE_BY_ZERO, fe.Kind)
		assert.Equal(uint32(4), fe.PC)
	}
}

func TestEmulatorMaxSteps(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.MaxSteps = 16

	asm := &isa.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"spin:",
		"JUMP spin",
	}, "\n")))
	assert.NoError(err)
	emu.Program = prog

	err = emu.Run()
	assert.ErrorIs(err, machine.ErrMaxSteps)
	assert.Equal(machine.STATE_RUNNING, emu.Machine.State)
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	asm := &isa.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"ADD-IMM R1 R1 #1",
		"HALT",
	}, "\n")))
	assert.NoError(err)
	emu.Program = prog

	assert.NoError(emu.Run())
	assert.Equal(uint32(1), emu.Machine.Reg[1])

	// A reset run starts from zeroed state, not accumulated state.
	assert.NoError(emu.Run())
	assert.Equal(uint32(1), emu.Machine.Reg[1])
}
