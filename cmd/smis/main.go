// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"smis/emulator"
	"smis/isa"
	"smis/machine"
)

// checkExt enforces the file naming convention: .txt for assembly
// source, .bin for program images.
func checkExt(name string, ext string) {
	if !strings.HasSuffix(name, ext) {
		log.Fatalf("%v: must have a %v extension", name, ext)
	}
}

func readProgram(name string) (prog *isa.Program) {
	checkExt(name, ".bin")

	inf, err := os.Open(name)
	if err != nil {
		log.Fatalf("%v: %v", name, err)
	}
	defer inf.Close()

	prog, err = isa.ReadProgram(inf)
	if err != nil {
		log.Fatalf("%v: %v", name, err)
	}

	return
}

func doAssemble(input string, output string, verbose bool) {
	checkExt(input, ".txt")
	checkExt(output, ".bin")

	inf, err := os.Open(input)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
	defer inf.Close()

	asm := &isa.Assembler{Verbose: verbose}
	for equ, value := range emulator.NewEmulator().Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	ouf, err := os.Create(output)
	if err != nil {
		log.Fatalf("%v: %v", output, err)
	}
	defer ouf.Close()

	_, err = prog.WriteTo(ouf)
	if err != nil {
		log.Fatalf("%v: %v", output, err)
	}
}

func doDisassemble(input string, output string, verbose bool) {
	checkExt(output, ".txt")

	prog := readProgram(input)

	ouf, err := os.Create(output)
	if err != nil {
		log.Fatalf("%v: %v", output, err)
	}
	defer ouf.Close()

	dis := &isa.Disassembler{Verbose: verbose}
	err = dis.Print(prog, ouf)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
}

func doRun(input string, maxSteps uint64, verbose bool) {
	prog := readProgram(input)

	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.MaxSteps = maxSteps
	emu.Verbose = verbose

	err := emu.Reset()
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
	emu.Machine.Output = os.Stdout

	for {
		done, err := emu.Tick()
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		if done {
			break
		}
		if maxSteps > 0 && emu.Machine.Steps >= maxSteps {
			log.Fatalf("%v: %v", input, machine.ErrMaxSteps)
		}
	}
}

func main() {
	var assemble string
	var disassemble string
	var run string
	var output string
	var maxSteps uint64
	var verbose bool

	flag.StringVar(&assemble, "a", "", ".txt file to assemble")
	flag.StringVar(&disassemble, "d", "", ".bin file to disassemble")
	flag.StringVar(&run, "r", "", ".bin file to run")
	flag.StringVar(&output, "o", "", "Output file")
	flag.Uint64Var(&maxSteps, "m", emulator.MAX_STEPS, "Step cap for -r, 0 for no cap")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	switch {
	case len(assemble) != 0:
		doAssemble(assemble, output, verbose)
	case len(disassemble) != 0:
		doDisassemble(disassemble, output, verbose)
	case len(run) != 0:
		doRun(run, maxSteps, verbose)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
