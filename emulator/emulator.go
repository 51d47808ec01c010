// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"

	"smis/internal"
	"smis/isa"
	"smis/machine"
)

const (
	LOAD_BASE = 0       // Byte address programs are loaded and started at.
	MAX_STEPS = 1 << 20 // Default step cap for a run.
)

var _emulator_defines = map[string]string{
	"LOAD_BASE": fmt.Sprintf("#0x%x", LOAD_BASE),
	"MAX_STEPS": fmt.Sprintf("#%d", MAX_STEPS),
}

// Emulator state. One machine plus the loaded program listing, with the
// source-line map used for runtime diagnostics.
type Emulator struct {
	Verbose          bool         // If set, enables verbose logging.
	*machine.Machine              // Reference to the machine simulation.
	Program          *isa.Program // Reference to the currently running program listing.

	MaxSteps uint64 // Step cap for Run; zero means no cap.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine:  machine.NewMachine(machine.MEM_SIZE),
		Program:  &isa.Program{},
		MaxSteps: MAX_STEPS,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Machine.Defines(),
	)
}

// Reset reloads the program image and restarts the machine.
func (emu *Emulator) Reset() (err error) {
	emu.Machine.Verbose = emu.Verbose

	return emu.Machine.Load(emu.Program, LOAD_BASE)
}

// LineNo returns the current line number for the executing instruction,
// or zero when the PC is outside the program listing.
func (emu *Emulator) LineNo() int {
	pc := emu.Machine.PC
	if pc < LOAD_BASE || pc%isa.WORD_SIZE != 0 {
		return 0
	}

	line, ok := emu.Program.LineAt((pc - LOAD_BASE) / isa.WORD_SIZE)
	if !ok {
		return 0
	}

	return line.LineNo
}

// Tick performs a single step of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set machine verbosity
	emu.Machine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Machine.Step()
	if err != nil {
		return
	}

	done = emu.Machine.State != machine.STATE_RUNNING

	return
}

// Run resets the emulator and runs the program to completion, bounded
// by the step cap.
func (emu *Emulator) Run() (err error) {
	err = emu.Reset()
	if err != nil {
		return
	}

	for {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
		if emu.MaxSteps > 0 && emu.Machine.Steps >= emu.MaxSteps {
			err = &ErrRuntime{LineNo: emu.LineNo(), Err: machine.ErrMaxSteps}
			return
		}
	}
}
