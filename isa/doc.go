// Package isa defines the SMIS instruction set: the opcode schema, the
// bidirectional codec between in-memory instructions and their 32-bit
// words, the program image exchanged between tools, and the text front
// ends (assembler and disassembler).
//
// Every instruction is exactly 32 bits with a flat 8-bit opcode. The
// opcode table in opcode.go is the single authoritative description of
// the set; encode, decode, the assembler's mnemonic lookup, the
// disassembler's rendering, and the execution engine all read it, so the
// three tools cannot drift apart.
package isa
