// Package cpu implements the NES's 6502-derived (2A03) CPU core: its
// registers, the fetch/decode/execute cycle, the status-flag
// arithmetic, and the vectored NMI/BRK interrupt paths.
package cpu

import "fmt"

// Bus is the memory interface the CPU executes against. The bus owns the
// address-space decode, the PPU's clock, and NMI edge detection; the CPU
// reads and writes bytes, polls for a pending NMI, collects any OAM DMA
// stall, and ticks the bus by the cycles each step consumed.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	PollNMI() bool
	TakeStall() uint64
	Tick(cpuCycles uint64)
}

// Status register bit masks. P is modeled as a single byte with named bit
// masks rather than one bool field per flag.
const (
	flagC uint8 = 1 << 0 // Carry
	flagZ uint8 = 1 << 1 // Zero
	flagI uint8 = 1 << 2 // Interrupt disable
	flagD uint8 = 1 << 3 // Decimal (accepted, never affects ADC/SBC on NES)
	flagB uint8 = 1 << 4 // Break (only meaningful on the stack, never stored)
	flagU uint8 = 1 << 5 // Unused, always reads as 1
	flagV uint8 = 1 << 6 // Overflow
	flagN uint8 = 1 << 7 // Negative
)

const (
	stackBase   = 0x0100
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// CPU is the 6502 core: three 8-bit registers, a stack pointer, a program
// counter, and an 8-bit status register, executing against a Bus.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	P  uint8
	SP uint8
	PC uint16

	bus Bus

	cycles uint64

	// HaltOnBRK makes Step mark the CPU halted after it has serviced a
	// BRK (the interrupt sequence still runs), the way simple test
	// programs use opcode 0x00 as a stop instruction rather than a real
	// software interrupt.
	HaltOnBRK bool
	Halted    bool
}

// New creates a CPU wired to bus. Call Reset before the first Step to
// load the program counter from the reset vector.
func New(bus Bus) *CPU {
	return &CPU{bus: bus, SP: 0xFD}
}

// Reset restores power-up register state and loads PC from the reset
// vector at 0xFFFC/0xFFFD.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = flagI | flagU
	c.PC = uint16(c.bus.Read(resetVector)) | uint16(c.bus.Read(resetVector+1))<<8
	c.cycles = 0
	c.Halted = false
}

// Cycles reports the cumulative CPU-cycle count since the last Reset.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

func (c *CPU) flag(mask uint8) bool {
	return c.P&mask != 0
}

func (c *CPU) setFlag(mask uint8, set bool) {
	if set {
		c.P |= mask
	} else {
		c.P &^= mask
	}
}

func (c *CPU) setZN(v uint8) {
	c.setFlag(flagZ, v == 0)
	c.setFlag(flagN, v&0x80 != 0)
}

func (c *CPU) push(v uint8) {
	c.bus.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// pushStatus pushes P onto the stack, forcing the unused bit set and the
// break bit to brk (true for PHP/BRK, false for a hardware NMI).
func (c *CPU) pushStatus(brk bool) {
	v := c.P | flagU
	if brk {
		v |= flagB
	} else {
		v &^= flagB
	}
	c.push(v)
}

// restoreStatus loads P from a popped byte, discarding the break bit
// (which has no persistent storage on real hardware) and forcing the
// unused bit set.
func (c *CPU) restoreStatus(v uint8) {
	c.P = (v | flagU) &^ flagB
}

// Step executes exactly one instruction (or services a pending NMI) and
// returns the number of CPU cycles it took:
//
//  1. poll for a pending NMI and service it first if one is latched
//  2. fetch the opcode at PC
//  3. decode it via the static opcode table
//  4. compute the operand's effective address (a pure, PC-preserving step)
//  5. advance PC past the instruction's encoded bytes
//  6. dispatch to the instruction's execute function
//  7. tick the bus by the cycles consumed (including any OAM DMA stall),
//     which advances the PPU clock at its fixed 3x ratio
func (c *CPU) Step() uint64 {
	if c.Halted {
		return 0
	}

	if c.bus.PollNMI() {
		return c.serviceNMI()
	}

	opcode := c.bus.Read(c.PC)
	op := &opcodeTable[opcode]
	if op.exec == nil {
		panic(fmt.Sprintf("cpu: illegal opcode %#02x at %#04x", opcode, c.PC))
	}

	addr, pageCrossed := c.operandAddress(op.mode)
	c.PC += uint16(op.bytes)

	extra := op.exec(c, addr, pageCrossed)

	cycles := uint64(op.cycles)
	if pageCrossed && op.pagePenalty {
		cycles++
	}
	cycles += uint64(extra)
	cycles += c.bus.TakeStall()

	if opcode == 0x00 && c.HaltOnBRK {
		c.Halted = true
	}

	c.cycles += cycles
	c.bus.Tick(cycles)
	return cycles
}

// Run executes instructions until the CPU halts. The per-frame host
// callback installed on the bus fires from within each instruction's bus
// tick, so a Bus with a frame callback turns this into the classic
// run-with-frame-callback loop. Only a BRK with HaltOnBRK set ever
// returns; a normal game loops here for the life of the process.
func (c *CPU) Run() {
	for !c.Halted {
		c.Step()
	}
}

// serviceNMI pushes PC and status and jumps to the NMI vector, the way a
// hardware interrupt does (break bit cleared in the pushed status). The
// bus is ticked by 2 cycles for the service sequence.
func (c *CPU) serviceNMI() uint64 {
	c.pushWord(c.PC)
	c.pushStatus(false)
	c.setFlag(flagI, true)
	c.PC = uint16(c.bus.Read(nmiVector)) | uint16(c.bus.Read(nmiVector+1))<<8
	c.cycles += 2
	c.bus.Tick(2)
	return 2
}
