// Package machine implements the execution engine: a single CPU with 16
// 32-bit registers, condition flags, a byte-addressed program counter,
// and a flat big-endian memory. Programs run step by step; a fault
// (bad PC, unknown opcode, out-of-bounds access, divide by zero) is
// terminal and records the PC it happened at.
package machine
