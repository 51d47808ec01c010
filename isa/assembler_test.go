package isa

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Words))

	assert.Equal("0", asm.Equate["LINENO"])
}

func wordsEqual(t *testing.T, expected []Inst, words []uint32) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(words))
	if len(expected) == len(words) {
		for n := range len(expected) {
			assert.Equal(Encode(expected[n]), words[n], expected[n].String())
		}
	}
}

func TestAssemblerBasic(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"SET R1 #5        // first operand",
		"SET R2 #-3",
		"ADD R3 R1 R2",
		"COMPARE R3 RZR",
		"PRINT R3",
		"HALT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Inst{
		MakeInstI(OP_SET, Reg(1), REG_ZERO, 5),
		MakeInstI(OP_SET, Reg(2), REG_ZERO, -3),
		MakeInstR(OP_ADD, Reg(3), Reg(1), Reg(2)),
		MakeInstR(OP_COMPARE, REG_ZERO, Reg(3), REG_ZERO),
		MakeInstR(OP_PRINT, Reg(3), REG_ZERO, REG_ZERO),
		MakeInstS(OP_HALT),
	}

	wordsEqual(t, expected, prog.Words)

	// Source map covers every word.
	assert.Equal(len(program), len(prog.Lines))
	for n, ln := range prog.Lines {
		assert.Equal(n+1, ln.LineNo)
		assert.Equal(uint32(n), ln.Addr)
	}
}

func TestAssemblerRegisters(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"COPY R0 RZR",
		"COPY R1 RLR",
		"COPY R2 RBP",
		"COPY R3 RSP",
		"COPY r4 r15", // lowercase
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	expected := []Inst{
		MakeInstR(OP_COPY, Reg(0), REG_ZERO, REG_ZERO),
		MakeInstR(OP_COPY, Reg(1), REG_LINK, REG_ZERO),
		MakeInstR(OP_COPY, Reg(2), REG_BASE, REG_ZERO),
		MakeInstR(OP_COPY, Reg(3), REG_STACK, REG_ZERO),
		MakeInstR(OP_COPY, Reg(4), Reg(15), REG_ZERO),
	}

	wordsEqual(t, expected, prog.Words)
}

func TestAssemblerImmediates(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"SET R0 #0x10",
		"SET R1 #-32768",
		"SET R2 #65535", // wraps to -1 in the 16-bit field
		"SET R3 #0b101",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	expected := []Inst{
		MakeInstI(OP_SET, Reg(0), REG_ZERO, 0x10),
		MakeInstI(OP_SET, Reg(1), REG_ZERO, -32768),
		MakeInstI(OP_SET, Reg(2), REG_ZERO, -1),
		MakeInstI(OP_SET, Reg(3), REG_ZERO, 5),
	}

	wordsEqual(t, expected, prog.Words)
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"loop:",
		"SUBTRACT-IMM R1 R1 #1",
		"JUMP-IF-NOTZERO loop",
		"JUMP done",
		"NOP",
		"done:",
		"HALT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Inst{
		MakeInstI(OP_SUBTRACT_IMM, Reg(1), Reg(1), 1),
		MakeInstJ(OP_JUMP_IF_NOTZERO, -1), // back to loop at word 0
		MakeInstJ(OP_JUMP, 2),             // forward to done at word 4
		MakeInstS(OP_NOP),
		MakeInstS(OP_HALT),
	}

	wordsEqual(t, expected, prog.Words)

	assert.Equal(uint32(0), asm.Label["loop"])
	assert.Equal(uint32(4), asm.Label["done"])
}

func TestAssemblerRawTarget(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"JUMP #2",
		"NOP",
		"JUMP #-1",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	expected := []Inst{
		MakeInstJ(OP_JUMP, 2),
		MakeInstS(OP_NOP),
		MakeInstJ(OP_JUMP, -1),
	}

	wordsEqual(t, expected, prog.Words)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".equ CONST_10 #0x10",
		"SET R0 CONST_10",
		"SET R1 $(CONST_10 + CONST_10)",
		".equ CONST_30 $(2 * CONST_10 + CONST_10)",
		"SET R2 CONST_30",
		"SET R3 $(LINENO)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(errors.Unwrap(err))
	}

	expected := []Inst{
		MakeInstI(OP_SET, Reg(0), REG_ZERO, 0x10),
		MakeInstI(OP_SET, Reg(1), REG_ZERO, 0x20),
		MakeInstI(OP_SET, Reg(2), REG_ZERO, 0x30),
		MakeInstI(OP_SET, Reg(3), REG_ZERO, 6),
	}

	wordsEqual(t, expected, prog.Words)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("BUFFER", "#0x100")

	prog, err := asm.Parse(strings.NewReader("SET R1 BUFFER\n"))
	assert.NoError(err)

	expected := []Inst{
		MakeInstI(OP_SET, Reg(1), REG_ZERO, 0x100),
	}

	wordsEqual(t, expected, prog.Words)
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
	}){
		{"DUP:\nDUP:\n", 2},
		{"FROBNICATE R0\n", 1},
		{"SET\n", 1},
		{"SET R0\n", 1},
		{"SET R0 #1 #2\n", 1},
		{"SET R16 #1\n", 1},
		{"SET RXX #1\n", 1},
		{"SET R0 5\n", 1},
		{"SET R0 #bogus\n", 1},
		{"SET R0 #70000\n", 1},
		{"SET R0 #-32769\n", 1},
		{"SET R0 $(\"aaa\")\n", 1},
		{"SET R0 $(more(\"aaa\"))\n", 1},
		{"SET R0 $(0x10000000000000000)\n", 1},
		{"ADD R0 R1\n", 1},
		{"ADD R0 R1 R2 R3\n", 1},
		{"ADD R0 R1 #2\n", 1},
		{"COMPARE R0\n", 1},
		{"JUMP\n", 1},
		{"JUMP nowhere\n", 1},
		{"JUMP #600000\n", 1},
		{"JUMP #-600000\n", 1},
		{"HALT R0\n", 1},
		{"NOP bad\n", 1},
		{".equ\n", 1},
		{".equ A\n", 1},
		{".equ A 1\n.equ A 2\n", 2},
		{"NOP\nSET R0 nothing\n", 2},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
		}
	}
}

func TestAssemblerErrSentinels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	table := [](struct {
		prog string
		err  error
	}){
		{"DUP:\nDUP:\n", ErrLabelDuplicate},
		{"FROBNICATE\n", ErrMnemonicUnknown},
		{"SET R16 #1\n", ErrRegisterInvalid},
		{"SET R0 5\n", ErrImmediateSyntax},
		{"SET R0 #70000\n", ErrImmediateRange},
		{"JUMP #600000\n", ErrTargetRange},
		{"JUMP nowhere\n", ErrLabelMissing("nowhere")},
		{"SET R0\n", ErrOperandMissing},
		{"HALT R0\n", ErrOperandExtra},
		{".equ A\n", ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", ErrEquateDuplicate},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		assert.ErrorIs(err, entry.err, entry.prog)
	}
}
