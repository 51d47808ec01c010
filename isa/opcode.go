package isa

import (
	"strings"
)

// Format is the operand layout class of an instruction word.
type Format int

const (
	FormatR Format = iota // register
	FormatI               // immediate
	FormatJ               // jump
	FormatS               // system
)

// String returns the conventional single-letter format name.
func (fm Format) String() string {
	return [...]string{"R", "I", "J", "S"}[fm]
}

// Opcode is the flat 8-bit tag selecting an operation. Unassigned values
// are invalid and are rejected by Decode.
type Opcode uint8

const (
	OP_SET              = Opcode(0x01)
	OP_COPY             = Opcode(0x02)
	OP_ADD              = Opcode(0x03)
	OP_SUBTRACT         = Opcode(0x04)
	OP_MULTIPLY         = Opcode(0x05)
	OP_DIVIDE           = Opcode(0x06)
	OP_MODULO           = Opcode(0x07)
	OP_COMPARE          = Opcode(0x08)
	OP_SHIFT_LEFT       = Opcode(0x09)
	OP_SHIFT_RIGHT      = Opcode(0x0a)
	OP_AND              = Opcode(0x0b)
	OP_OR               = Opcode(0x0c)
	OP_XOR              = Opcode(0x0d)
	OP_NAND             = Opcode(0x0e)
	OP_NOR              = Opcode(0x0f)
	OP_NOT              = Opcode(0x10)
	OP_ADD_IMM          = Opcode(0x11)
	OP_SUBTRACT_IMM     = Opcode(0x12)
	OP_MULTIPLY_IMM     = Opcode(0x13)
	OP_DIVIDE_IMM       = Opcode(0x14)
	OP_MODULO_IMM       = Opcode(0x15)
	OP_COMPARE_IMM      = Opcode(0x16)
	OP_SHIFT_LEFT_IMM   = Opcode(0x17)
	OP_SHIFT_RIGHT_IMM  = Opcode(0x18)
	OP_AND_IMM          = Opcode(0x19)
	OP_OR_IMM           = Opcode(0x1a)
	OP_XOR_IMM          = Opcode(0x1b)
	OP_NAND_IMM         = Opcode(0x1c)
	OP_NOR_IMM          = Opcode(0x1d)
	OP_LOAD             = Opcode(0x1e)
	OP_STORE            = Opcode(0x1f)
	OP_JUMP             = Opcode(0x20)
	OP_JUMP_IF_ZERO     = Opcode(0x21)
	OP_JUMP_IF_NOTZERO  = Opcode(0x22)
	OP_JUMP_LINK        = Opcode(0x23)
	OP_HALT             = Opcode(0x24)
	OP_PRINT            = Opcode(0x25)
	OP_NOP              = Opcode(0x26)
	OP_JUMP_REGISTER    = Opcode(0x27)
	OP_JUMP_IF_NEGATIVE = Opcode(0x28)
	OP_JUMP_IF_CARRY    = Opcode(0x29)
)

// OpSpec is one row of the schema: the mnemonic, the operand layout, and
// which operand fields the operation actually uses. The assembler, the
// disassembler, Encode, Decode, and the execution engine all consult this
// table; it is the single source of truth for the instruction set.
type OpSpec struct {
	Mnemonic  string
	Format    Format
	HasDest   bool // dest field is an operand
	HasSrc1   bool // src1 (or I-format base) field is an operand
	HasSrc2   bool // src2 field is an operand
	HasImm    bool // 16-bit immediate operand
	HasTarget bool // 20-bit branch target operand
}

var opTable = map[Opcode]OpSpec{
	OP_SET:              {Mnemonic: "SET", Format: FormatI, HasDest: true, HasImm: true},
	OP_COPY:             {Mnemonic: "COPY", Format: FormatR, HasDest: true, HasSrc1: true},
	OP_ADD:              {Mnemonic: "ADD", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_SUBTRACT:         {Mnemonic: "SUBTRACT", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_MULTIPLY:         {Mnemonic: "MULTIPLY", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_DIVIDE:           {Mnemonic: "DIVIDE", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_MODULO:           {Mnemonic: "MODULO", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_COMPARE:          {Mnemonic: "COMPARE", Format: FormatR, HasSrc1: true, HasSrc2: true},
	OP_SHIFT_LEFT:       {Mnemonic: "SHIFT-LEFT", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_SHIFT_RIGHT:      {Mnemonic: "SHIFT-RIGHT", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_AND:              {Mnemonic: "AND", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_OR:               {Mnemonic: "OR", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_XOR:              {Mnemonic: "XOR", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_NAND:             {Mnemonic: "NAND", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_NOR:              {Mnemonic: "NOR", Format: FormatR, HasDest: true, HasSrc1: true, HasSrc2: true},
	OP_NOT:              {Mnemonic: "NOT", Format: FormatR, HasDest: true, HasSrc1: true},
	OP_ADD_IMM:          {Mnemonic: "ADD-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_SUBTRACT_IMM:     {Mnemonic: "SUBTRACT-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_MULTIPLY_IMM:     {Mnemonic: "MULTIPLY-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_DIVIDE_IMM:       {Mnemonic: "DIVIDE-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_MODULO_IMM:       {Mnemonic: "MODULO-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_COMPARE_IMM:      {Mnemonic: "COMPARE-IMM", Format: FormatI, HasSrc1: true, HasImm: true},
	OP_SHIFT_LEFT_IMM:   {Mnemonic: "SHIFT-LEFT-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_SHIFT_RIGHT_IMM:  {Mnemonic: "SHIFT-RIGHT-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_AND_IMM:          {Mnemonic: "AND-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_OR_IMM:           {Mnemonic: "OR-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_XOR_IMM:          {Mnemonic: "XOR-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_NAND_IMM:         {Mnemonic: "NAND-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_NOR_IMM:          {Mnemonic: "NOR-IMM", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_LOAD:             {Mnemonic: "LOAD", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_STORE:            {Mnemonic: "STORE", Format: FormatI, HasDest: true, HasSrc1: true, HasImm: true},
	OP_JUMP:             {Mnemonic: "JUMP", Format: FormatJ, HasTarget: true},
	OP_JUMP_IF_ZERO:     {Mnemonic: "JUMP-IF-ZERO", Format: FormatJ, HasTarget: true},
	OP_JUMP_IF_NOTZERO:  {Mnemonic: "JUMP-IF-NOTZERO", Format: FormatJ, HasTarget: true},
	OP_JUMP_LINK:        {Mnemonic: "JUMP-LINK", Format: FormatJ, HasTarget: true},
	OP_HALT:             {Mnemonic: "HALT", Format: FormatS},
	OP_PRINT:            {Mnemonic: "PRINT", Format: FormatR, HasDest: true},
	OP_NOP:              {Mnemonic: "NOP", Format: FormatS},
	OP_JUMP_REGISTER:    {Mnemonic: "JUMP-REGISTER", Format: FormatR, HasDest: true},
	OP_JUMP_IF_NEGATIVE: {Mnemonic: "JUMP-IF-NEGATIVE", Format: FormatJ, HasTarget: true},
	OP_JUMP_IF_CARRY:    {Mnemonic: "JUMP-IF-CARRY", Format: FormatJ, HasTarget: true},
}

// mnemonicMap is the reverse of opTable, built once at init.
var mnemonicMap = map[string]Opcode{}

func init() {
	for op, spec := range opTable {
		mnemonicMap[spec.Mnemonic] = op
	}
}

// Valid reports whether the opcode is assigned in the schema.
func (op Opcode) Valid() bool {
	_, ok := opTable[op]
	return ok
}

// Spec returns the schema row for the opcode.
func (op Opcode) Spec() (spec OpSpec, ok bool) {
	spec, ok = opTable[op]
	return
}

// Format returns the operand layout for the opcode. Only meaningful for
// valid opcodes.
func (op Opcode) Format() Format {
	return opTable[op].Format
}

// IsBranch reports whether the opcode takes a PC-relative target.
func (op Opcode) IsBranch() bool {
	return opTable[op].HasTarget
}

// String returns the canonical mnemonic, or a hex rendering for
// unassigned opcodes.
func (op Opcode) String() string {
	spec, ok := opTable[op]
	if !ok {
		return f("op(0x%02x)", uint8(op))
	}
	return spec.Mnemonic
}

// MnemonicOpcode looks up an opcode by its mnemonic, case-insensitively.
func MnemonicOpcode(mnemonic string) (op Opcode, ok bool) {
	op, ok = mnemonicMap[strings.ToUpper(mnemonic)]
	return
}

// Reg is a register index (0-15).
type Reg uint8

const NUM_REGS = 16

// Dedicated register aliases.
const (
	REG_ZERO  = Reg(0)  // RZR
	REG_LINK  = Reg(13) // RLR, written by JUMP-LINK
	REG_BASE  = Reg(14) // RBP
	REG_STACK = Reg(15) // RSP
)

// regAlias maps the conventional register aliases to indexes.
var regAlias = map[string]Reg{
	"RZR": REG_ZERO,
	"RLR": REG_LINK,
	"RBP": REG_BASE,
	"RSP": REG_STACK,
}

// String returns the canonical register name.
func (r Reg) String() string {
	return f("R%d", uint8(r))
}
