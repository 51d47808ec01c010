package isa

import (
	"fmt"
)

// Inst is the in-memory form of one instruction. Only the operand fields
// named by the opcode's schema row are meaningful; the rest stay zero.
// Values are immutable once constructed and compare with ==.
type Inst struct {
	Op     Opcode
	Dest   Reg
	Src1   Reg
	Src2   Reg
	Imm    int16 // I-format immediate, sign-extended
	Target int32 // J-format word offset, relative to the instruction
}

// MakeInstR creates a register-format instruction.
func MakeInstR(op Opcode, dest, src1, src2 Reg) Inst {
	return Inst{Op: op, Dest: dest, Src1: src1, Src2: src2}
}

// MakeInstI creates an immediate-format instruction.
func MakeInstI(op Opcode, dest, src Reg, imm int16) Inst {
	return Inst{Op: op, Dest: dest, Src1: src, Imm: imm}
}

// MakeInstJ creates a jump-format instruction with a PC-relative word
// offset.
func MakeInstJ(op Opcode, target int32) Inst {
	return Inst{Op: op, Target: target}
}

// MakeInstS creates a system-format instruction.
func MakeInstS(op Opcode) Inst {
	return Inst{Op: op}
}

// String returns the canonical assembly text for the instruction, with
// branch targets rendered as raw word offsets.
func (inst Inst) String() string {
	spec, ok := inst.Op.Spec()
	if !ok {
		return inst.Op.String()
	}

	out := spec.Mnemonic
	if spec.HasDest {
		out += fmt.Sprintf(" %v", inst.Dest)
	}
	if spec.HasSrc1 {
		out += fmt.Sprintf(" %v", inst.Src1)
	}
	if spec.HasSrc2 {
		out += fmt.Sprintf(" %v", inst.Src2)
	}
	if spec.HasImm {
		out += fmt.Sprintf(" #%d", inst.Imm)
	}
	if spec.HasTarget {
		out += fmt.Sprintf(" #%d", inst.Target)
	}

	return out
}
