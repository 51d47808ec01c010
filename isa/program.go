package isa

import (
	"encoding/binary"
	"io"
	"iter"
)

// WORD_SIZE is the width of one instruction in bytes.
const WORD_SIZE = 4

// Line maps one assembled instruction back to its source text.
type Line struct {
	LineNo int    // 1-based source line number
	Addr   uint32 // word index into the image
	Text   string // source text after trimming
}

// Program is the ordered sequence of 32-bit words exchanged between the
// assembler, the disassembler, and the emulator. Lines is a source map
// present only when the program came from assembly text.
type Program struct {
	Words []uint32
	Lines []Line
}

// LineAt returns the source line covering the given word address.
func (prog *Program) LineAt(addr uint32) (line Line, ok bool) {
	for _, ln := range prog.Lines {
		if ln.Addr == addr {
			return ln, true
		}
	}

	return
}

// Insts iterates the image as decoded instructions, word address first.
// Words that fail to decode stop the iteration; callers that care about
// malformed words decode explicitly instead.
func (prog *Program) Insts() iter.Seq2[uint32, Inst] {
	return func(yield func(addr uint32, inst Inst) bool) {
		for n, word := range prog.Words {
			inst, err := Decode(word)
			if err != nil {
				return
			}
			if !yield(uint32(n), inst) {
				return
			}
		}
	}
}

// Bytes renders the image in its external form: big-endian words, no
// header, no padding.
func (prog *Program) Bytes() (data []byte) {
	data = make([]byte, len(prog.Words)*WORD_SIZE)
	for n, word := range prog.Words {
		binary.BigEndian.PutUint32(data[n*WORD_SIZE:], word)
	}

	return
}

// WriteTo writes the image in its external form.
func (prog *Program) WriteTo(w io.Writer) (n int64, err error) {
	count, err := w.Write(prog.Bytes())
	n = int64(count)

	return
}

// ReadProgram reads a program image. A length that is not a multiple of
// the word size is a format error.
func ReadProgram(r io.Reader) (prog *Program, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(data)%WORD_SIZE != 0 {
		err = ErrImageLength
		return
	}

	prog = &Program{
		Words: make([]uint32, len(data)/WORD_SIZE),
	}
	for n := range prog.Words {
		prog.Words[n] = binary.BigEndian.Uint32(data[n*WORD_SIZE:])
	}

	return
}
