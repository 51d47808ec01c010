package isa

import (
	"errors"

	"smis/translate"
)

var f = translate.From

var (
	// Codec errors
	ErrOpcodeUnknown = errors.New(f("opcode unknown"))
	ErrReservedBits  = errors.New(f("reserved bits set"))

	// Program image errors
	ErrImageLength = errors.New(f("image length not a multiple of word size"))

	// Assembler errors
	ErrMnemonicUnknown = errors.New(f("mnemonic unknown"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrImmediateSyntax = errors.New(f("immediate missing '#' prefix"))
	ErrImmediateRange  = errors.New(f("immediate out of range"))
	ErrTargetRange     = errors.New(f("branch target out of range"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrOperandExtra    = errors.New(f("excessive operands"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
)

// ErrWord tags an error with the offending instruction word.
type ErrWord uint32

func (ew ErrWord) Error() string {
	return f("bad instruction word 0x%08x", uint32(ew))
}

func (ew ErrWord) Is(err error) (ok bool) {
	_, ok = err.(ErrWord)
	return
}

// ErrAddr tags an error with a word address in the image.
type ErrAddr int

func (ea ErrAddr) Error() string {
	return f("at word %d", int(ea))
}

func (ea ErrAddr) Is(err error) (ok bool) {
	_, ok = err.(ErrAddr)
	return
}

// ErrLabelMissing names a jump label with no definition.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSyntax locates an assembler error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrParseNumber names a token that failed numeric parsing.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression names a $() expression that failed evaluation.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
