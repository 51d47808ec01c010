// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two-pass assembler for the SMIS instruction set. The
// first pass collects jump labels; the second assembles instructions,
// with labels resolved to PC-relative word offsets.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string // Predefines
	Label     map[string]uint32 // Map of jump labels to word addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word. A leading '#' marks an
// immediate and is skipped; a leading '~' inverts.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}
	word = strings.TrimPrefix(word, "#")
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or labels.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseRegister parses a register operand: R0-R15, or one of the
// aliases RZR, RLR, RBP, RSP.
func parseRegister(word string) (reg Reg, err error) {
	name := strings.ToUpper(word)

	reg, ok := regAlias[name]
	if ok {
		return
	}

	num, ok := strings.CutPrefix(name, "R")
	if !ok {
		err = ErrRegisterInvalid
		return
	}
	value, perr := strconv.ParseUint(num, 10, 8)
	if perr != nil || value >= NUM_REGS {
		err = ErrRegisterInvalid
		return
	}

	reg = Reg(value)

	return
}

// parseImmediate parses a '#'-prefixed immediate operand into its 16-bit
// field. Values from -32768 through 65535 are representable; the decoder
// sign-extends, so large unsigned values read back as their signed twins.
func (asm *Assembler) parseImmediate(word string) (imm int16, err error) {
	if !strings.HasPrefix(word, "#") {
		err = ErrImmediateSyntax
		return
	}
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value < -0x8000 || value > 0xffff {
		err = ErrImmediateRange
		return
	}

	imm = int16(uint16(value))

	return
}

// parseTarget parses a branch operand: either a label resolved against
// the label table, or a raw '#'-prefixed word offset.
func (asm *Assembler) parseTarget(word string, addr uint32) (target int32, err error) {
	var offset int64
	if strings.HasPrefix(word, "#") {
		offset, err = asm.valueOf(word)
		if err != nil {
			return
		}
	} else {
		dest, ok := asm.Label[word]
		if !ok {
			err = ErrLabelMissing(word)
			return
		}
		offset = int64(dest) - int64(addr)
	}

	if offset < TargetMin || offset > TargetMax {
		err = ErrTargetRange
		return
	}

	target = int32(offset)

	return
}

// isLabel reports whether a trimmed line is a label definition: a single
// word ending in ':'.
func isLabel(line string) bool {
	return len(strings.Fields(line)) == 1 && strings.HasSuffix(line, ":")
}

// stripComment removes a trailing // comment.
func stripComment(line string) string {
	text, _, _ := strings.Cut(line, "//")
	return strings.TrimSpace(text)
}

// parseLine expands $() evaluations and equates, returning the operand
// words of a single instruction line.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("#%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// parseWords assembles the words of one instruction line.
func (asm *Assembler) parseWords(words []string, addr uint32) (inst Inst, err error) {
	op, ok := MnemonicOpcode(words[0])
	if !ok {
		err = ErrMnemonicUnknown
		return
	}
	spec, _ := op.Spec()

	inst.Op = op
	operands := words[1:]

	next := func() (word string, err error) {
		if len(operands) == 0 {
			err = ErrOperandMissing
			return
		}
		word = operands[0]
		operands = operands[1:]
		return
	}

	var word string
	if spec.HasDest {
		word, err = next()
		if err != nil {
			return
		}
		inst.Dest, err = parseRegister(word)
		if err != nil {
			return
		}
	}
	if spec.HasSrc1 {
		word, err = next()
		if err != nil {
			return
		}
		inst.Src1, err = parseRegister(word)
		if err != nil {
			return
		}
	}
	if spec.HasSrc2 {
		word, err = next()
		if err != nil {
			return
		}
		inst.Src2, err = parseRegister(word)
		if err != nil {
			return
		}
	}
	if spec.HasImm {
		word, err = next()
		if err != nil {
			return
		}
		inst.Imm, err = asm.parseImmediate(word)
		if err != nil {
			return
		}
	}
	if spec.HasTarget {
		word, err = next()
		if err != nil {
			return
		}
		inst.Target, err = asm.parseTarget(word, addr)
		if err != nil {
			return
		}
	}

	if len(operands) != 0 {
		err = ErrOperandExtra
	}

	return
}

// Parse assembles an input stream into a Program. Labels anywhere in the
// input may be referenced from any line; equates apply from their
// definition onward.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.Label == nil {
		asm.Label = make(map[string]uint32, 16)
	}
	clear(asm.Label)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	// First pass: collect label addresses.
	var addr uint32
	for n, text := range lines {
		lineno = n + 1
		line = stripComment(text)

		if len(line) == 0 {
			continue
		}
		if isLabel(line) {
			label := strings.TrimSuffix(line, ":")
			_, ok := asm.Label[label]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = addr
			continue
		}
		if !strings.HasPrefix(line, ".") {
			addr++
		}
	}

	// Second pass: assemble.
	prog = &Program{}
	addr = 0
	for n, text := range lines {
		lineno = n + 1
		line = stripComment(text)

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		if len(line) == 0 || isLabel(line) {
			continue
		}

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
		if len(words) == 0 {
			// directive
			continue
		}

		var inst Inst
		inst, err = asm.parseWords(words, addr)
		if err != nil {
			return
		}

		prog.Words = append(prog.Words, Encode(inst))
		prog.Lines = append(prog.Lines, Line{LineNo: lineno, Addr: addr, Text: line})
		addr++
	}

	return
}
