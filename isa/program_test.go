package isa

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramBytes(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Words: []uint32{0x01100005, 0x24000000},
	}

	data := prog.Bytes()
	assert.Equal([]byte{
		0x01, 0x10, 0x00, 0x05,
		0x24, 0x00, 0x00, 0x00,
	}, data)
}

func TestProgramWriteRead(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Words: []uint32{0x01100005, 0x03123000, 0x24000000},
	}

	buf := &bytes.Buffer{}
	n, err := prog.WriteTo(buf)
	assert.NoError(err)
	assert.Equal(int64(len(prog.Words)*WORD_SIZE), n)

	back, err := ReadProgram(buf)
	assert.NoError(err)
	assert.Equal(prog.Words, back.Words)
}

func TestReadProgramLength(t *testing.T) {
	assert := assert.New(t)

	_, err := ReadProgram(bytes.NewReader([]byte{0x01, 0x10, 0x00}))
	assert.ErrorIs(err, ErrImageLength)

	prog, err := ReadProgram(bytes.NewReader(nil))
	assert.NoError(err)
	assert.Equal(0, len(prog.Words))
}

func TestProgramInsts(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Words: []uint32{
			Encode(MakeInstI(OP_SET, Reg(1), REG_ZERO, 5)),
			Encode(MakeInstS(OP_HALT)),
		},
	}

	addrs := []uint32{}
	insts := []Inst{}
	for addr, inst := range prog.Insts() {
		addrs = append(addrs, addr)
		insts = append(insts, inst)
	}

	assert.Equal([]uint32{0, 1}, addrs)
	assert.Equal([]Inst{
		MakeInstI(OP_SET, Reg(1), REG_ZERO, 5),
		MakeInstS(OP_HALT),
	}, insts)
}

func TestProgramInstsEarlyReturn(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Words: []uint32{
			Encode(MakeInstS(OP_NOP)),
			Encode(MakeInstS(OP_HALT)),
		},
	}

	count := 0
	for range prog.Insts() {
		count++
		if count == 1 {
			break
		}
	}

	assert.Equal(1, count)
}

func TestProgramInstsBadWord(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Words: []uint32{
			Encode(MakeInstS(OP_NOP)),
			0x00000000,
			Encode(MakeInstS(OP_HALT)),
		},
	}

	count := 0
	for range prog.Insts() {
		count++
	}

	// Iteration stops at the first undecodable word.
	assert.Equal(1, count)
}

func TestProgramLineAt(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"// leading comment",
		"SET R1 #5",
		"",
		"HALT",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	line, ok := prog.LineAt(0)
	assert.True(ok)
	assert.Equal(2, line.LineNo)
	assert.Equal("SET R1 #5", line.Text)

	line, ok = prog.LineAt(1)
	assert.True(ok)
	assert.Equal(4, line.LineNo)

	_, ok = prog.LineAt(2)
	assert.False(ok)
}
