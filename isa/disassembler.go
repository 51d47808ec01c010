// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
)

// Disassembler renders a program image back to assembly text. Branch
// destinations inside the image become synthesized labels; destinations
// outside it stay as raw word offsets. The output reassembles to the
// same image.
type Disassembler struct {
	Verbose bool // If set, verbosely logs each decoded word.
}

// labelAddr returns the word address a branch at addr resolves to, and
// whether that address lies inside the image.
func labelAddr(addr int, inst Inst, size int) (dest uint32, ok bool) {
	target := int64(addr) + int64(inst.Target)
	if target < 0 || target >= int64(size) {
		return
	}

	dest = uint32(target)
	ok = true

	return
}

// labels assigns label_N names, in scan order of the referencing
// branches, to every in-image branch destination.
func (dis *Disassembler) labels(insts []Inst) map[uint32]string {
	labels := map[uint32]string{}
	for n, inst := range insts {
		if !inst.Op.IsBranch() {
			continue
		}
		dest, ok := labelAddr(n, inst, len(insts))
		if !ok {
			continue
		}
		_, ok = labels[dest]
		if !ok {
			labels[dest] = fmt.Sprintf("label_%d", len(labels))
		}
	}

	return labels
}

// Print writes the disassembly of prog to output.
func (dis *Disassembler) Print(prog *Program, output io.Writer) (err error) {
	insts := make([]Inst, len(prog.Words))
	for n, word := range prog.Words {
		insts[n], err = Decode(word)
		if err != nil {
			err = errors.Join(ErrAddr(n), err)
			return
		}
	}

	labels := dis.labels(insts)

	w := bufio.NewWriter(output)
	for n, inst := range insts {
		if label, ok := labels[uint32(n)]; ok {
			fmt.Fprintf(w, "%v:\n", label)
		}

		text := inst.String()
		if inst.Op.IsBranch() {
			if dest, ok := labelAddr(n, inst, len(insts)); ok {
				text = fmt.Sprintf("%v %v", inst.Op, labels[dest])
			}
		}

		if dis.Verbose {
			log.Printf("%4d: %08x  %v\n", n, prog.Words[n], text)
		}

		fmt.Fprintf(w, "%v\n", text)
	}
	err = w.Flush()

	return
}
