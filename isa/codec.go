package isa

import (
	"errors"
)

// Instruction word layout, MSB first:
//
//	R: opcode(31-24) dest(23-20) src1(19-16) src2(15-12) reserved(11-0)
//	I: opcode(31-24) dest(23-20) src(19-16) imm16(15-0)
//	J: opcode(31-24) reserved(23-20) target(19-0)
//	S: opcode(31-24) reserved(23-0)
//
// Fields an operation does not use encode as zero. Words are stored
// big-endian in program images and in machine memory.
const (
	opcodeShift = 24
	destShift   = 20
	src1Shift   = 16
	src2Shift   = 12

	regMask    = uint32(0xf)
	immMask    = uint32(0xffff)
	targetMask = uint32(0xfffff)

	// TargetMin and TargetMax bound the signed 20-bit branch offset.
	TargetMin = -(1 << 19)
	TargetMax = (1 << 19) - 1
)

// usedMask returns the bits of the word that carry the opcode and the
// operands the opcode actually uses.
func usedMask(spec OpSpec) (mask uint32) {
	mask = uint32(0xff) << opcodeShift
	if spec.HasDest {
		mask |= regMask << destShift
	}
	if spec.HasSrc1 {
		mask |= regMask << src1Shift
	}
	if spec.HasSrc2 {
		mask |= regMask << src2Shift
	}
	if spec.HasImm {
		mask |= immMask
	}
	if spec.HasTarget {
		mask |= targetMask
	}
	return
}

// Encode packs an instruction into its 32-bit word. It is total over
// instructions built by the Make constructors; operand range checking is
// the caller's job and happens before construction.
func Encode(inst Inst) (word uint32) {
	spec := opTable[inst.Op]

	word = uint32(inst.Op) << opcodeShift
	if spec.HasDest {
		word |= (uint32(inst.Dest) & regMask) << destShift
	}
	if spec.HasSrc1 {
		word |= (uint32(inst.Src1) & regMask) << src1Shift
	}
	if spec.HasSrc2 {
		word |= (uint32(inst.Src2) & regMask) << src2Shift
	}
	if spec.HasImm {
		word |= uint32(uint16(inst.Imm))
	}
	if spec.HasTarget {
		word |= uint32(inst.Target) & targetMask
	}

	return
}

// signExtend20 widens a 20-bit two's-complement field to int32.
func signExtend20(field uint32) int32 {
	return int32(field<<12) >> 12
}

// Decode unpacks a 32-bit word. It fails with ErrOpcodeUnknown when the
// opcode is not in the schema; bits outside the opcode's operand fields
// are ignored, so the result is canonical even for sloppy words.
func Decode(word uint32) (inst Inst, err error) {
	return decodeWord(word, false)
}

// DecodeStrict is Decode, but additionally rejects words with any bit set
// outside the opcode's operand fields (ErrReservedBits). On the subset it
// accepts, Encode(DecodeStrict(w)) == w.
func DecodeStrict(word uint32) (inst Inst, err error) {
	return decodeWord(word, true)
}

func decodeWord(word uint32, strict bool) (inst Inst, err error) {
	op := Opcode(word >> opcodeShift)
	spec, ok := op.Spec()
	if !ok {
		err = errors.Join(ErrWord(word), ErrOpcodeUnknown)
		return
	}

	if strict && word&^usedMask(spec) != 0 {
		err = errors.Join(ErrWord(word), ErrReservedBits)
		return
	}

	inst.Op = op
	if spec.HasDest {
		inst.Dest = Reg((word >> destShift) & regMask)
	}
	if spec.HasSrc1 {
		inst.Src1 = Reg((word >> src1Shift) & regMask)
	}
	if spec.HasSrc2 {
		inst.Src2 = Reg((word >> src2Shift) & regMask)
	}
	if spec.HasImm {
		inst.Imm = int16(word & immMask)
	}
	if spec.HasTarget {
		inst.Target = signExtend20(word & targetMask)
	}

	return
}
