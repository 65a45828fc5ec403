// Package bus implements the NES system bus: the CPU address-space
// decoder that arbitrates RAM, PPU registers, OAM DMA, the controller
// port, and cartridge PRG-ROM, and that keeps the PPU clock ticking in
// lockstep with the CPU.
package bus

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/joypad"
	"gones/internal/ppu"
)

const (
	ramSize      = 0x0800
	ramMask      = 0x07FF
	oamDMACycles = 513
)

// FrameCallback is invoked once per completed frame, with a read-only
// view of the PPU (for rendering) and the mutable Joypad (for the host
// to apply key events). It runs to completion before the CPU resumes;
// the emulator provides no re-entrancy into this call.
type FrameCallback func(p *ppu.PPU, j *joypad.Joypad)

// Bus owns CPU RAM, the PPU, the cartridge and the joypad, and is the
// sole object the CPU talks to for memory access.
type Bus struct {
	ram  [ramSize]uint8
	PPU  *ppu.PPU
	Pad  *joypad.Joypad
	cart *cartridge.Cartridge

	cycles uint64

	dmaStall uint64

	onFrame FrameCallback

	// cpu and frameReady exist only to let Bus drive itself as an
	// ebiten.Game (see game.go); a Bus used as a plain library, without
	// AttachCPU, never touches them.
	cpu        *cpu.CPU
	frameReady bool
	pixelImage *ebiten.Image
}

// New creates a Bus wired to cart, with a fresh PPU and joypad.
func New(cart *cartridge.Cartridge) *Bus {
	b := &Bus{
		PPU:  ppu.New(cart),
		Pad:  joypad.New(),
		cart: cart,
	}
	return b
}

// SetFrameCallback installs the host's per-frame render/input hook.
func (b *Bus) SetFrameCallback(cb FrameCallback) {
	b.onFrame = cb
}

// Read performs a CPU-visible byte read.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&ramMask]
	case addr < 0x4000:
		return b.PPU.ReadRegister(uint8(addr & 0x0007))
	case addr == 0x4016:
		return b.Pad.Read()
	case addr == 0x4017:
		return 0 // controller 2: not implemented
	case addr < 0x4020:
		return 0 // APU/test region: open bus
	case addr < 0x6000:
		return 0 // unmapped expansion area
	case addr < 0x8000:
		return 0 // cartridge SRAM not present
	default:
		return b.cart.ReadPRG(addr)
	}
}

// Write performs a CPU-visible byte write.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		b.ram[addr&ramMask] = value
	case addr < 0x4000:
		b.PPU.WriteRegister(uint8(addr&0x0007), value)
	case addr == 0x4014:
		b.triggerOAMDMA(value)
	case addr == 0x4016:
		b.Pad.Write(value)
	case addr == 0x4017:
		// controller 2 / APU frame counter: ignored
	case addr < 0x4020:
		// APU/test region: ignored
	case addr < 0x6000:
		// unmapped expansion area: ignored
	case addr < 0x8000:
		// cartridge SRAM not present: ignored
	default:
		// PRG-ROM is read-only for mapper 0
	}
}

// ReadWord reads a little-endian 16-bit value at addr, wrapping addr+1
// modulo 0x10000, so a pointer at 0xFFFF reads its high byte from 0x0000
// rather than panicking.
func (b *Bus) ReadWord(addr uint16) uint16 {
	lo := uint16(b.Read(addr))
	hi := uint16(b.Read(uint16(addr + 1)))
	return hi<<8 | lo
}

// triggerOAMDMA implements the $4014 OAM DMA: copy 256 bytes from CPU
// page*0x100..+0xFF into the PPU's OAM starting at its current OAM
// address, wrapping, and stall the CPU for a fixed 513 cycles.
func (b *Bus) triggerOAMDMA(page uint8) {
	var data [256]uint8
	base := uint16(page) << 8
	for i := range data {
		data[i] = b.Read(base + uint16(i))
	}
	b.PPU.WriteOAMDMA(data)
	b.dmaStall += oamDMACycles
}

// Tick advances the PPU by 3*cpuCycles dots (the fixed 3x PPU/CPU clock
// ratio) and invokes the frame callback once per completed frame.
func (b *Bus) Tick(cpuCycles uint64) {
	if b.PPU.Tick(int(cpuCycles * 3)) {
		if b.onFrame != nil {
			b.onFrame(b.PPU, b.Pad)
		}
	}
	b.cycles += cpuCycles
}

// TakeStall returns and clears any CPU stall cycles owed by a prior OAM
// DMA transfer triggered during the instruction just executed. Step folds
// this into the cycle count it charges and ticks, so the PPU clock still
// advances by the real elapsed CPU cycles.
func (b *Bus) TakeStall() uint64 {
	stall := b.dmaStall
	b.dmaStall = 0
	return stall
}

// PollNMI reports whether the PPU has raised a new vertical-blank NMI
// since the last poll. The CPU calls this before fetching each opcode.
func (b *Bus) PollNMI() bool {
	return b.PPU.TakeNMI()
}

// Cycles returns the cumulative CPU-cycle count since the bus was created.
func (b *Bus) Cycles() uint64 {
	return b.cycles
}

// String implements fmt.Stringer for debug output (e.g. "cannot happen"
// panics include it via %v).
func (b *Bus) String() string {
	return fmt.Sprintf("bus@cycle=%d", b.cycles)
}
