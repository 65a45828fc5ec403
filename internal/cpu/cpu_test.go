package cpu

import "testing"

// testBus is a flat 64KiB memory with a directly controllable NMI line and
// DMA stall, standing in for the system bus across the CPU's test suite.
type testBus struct {
	mem    [0x10000]uint8
	nmi    bool
	stall  uint64
	ticked uint64
}

func (b *testBus) Read(addr uint16) uint8     { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v uint8) { b.mem[addr] = v }
func (b *testBus) PollNMI() bool              { v := b.nmi; b.nmi = false; return v }
func (b *testBus) TakeStall() uint64          { s := b.stall; b.stall = 0; return s }
func (b *testBus) Tick(cycles uint64)         { b.ticked += cycles }

func (b *testBus) loadAt(addr uint16, program ...uint8) {
	copy(b.mem[addr:], program)
}

func (b *testBus) setResetVector(addr uint16) {
	b.mem[resetVector] = uint8(addr)
	b.mem[resetVector+1] = uint8(addr >> 8)
}

func newTestCPU() (*CPU, *testBus) {
	bus := &testBus{}
	bus.setResetVector(0x8000)
	c := New(bus)
	c.Reset()
	return c, bus
}

func TestResetLoadsVectorAndPowerUpState(t *testing.T) {
	c, bus := newTestCPU()
	bus.setResetVector(0xC000)
	c.Reset()
	if c.PC != 0xC000 {
		t.Fatalf("PC after reset = %#04x, want 0xC000", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP after reset = %#02x, want 0xFD", c.SP)
	}
	if !c.flag(flagI) {
		t.Fatal("interrupt-disable flag should be set after reset")
	}
}

func TestLDAImmediateSetsZeroAndNegativeFlags(t *testing.T) {
	c, bus := newTestCPU()
	bus.loadAt(0x8000, 0xA9, 0x00) // LDA #$00
	c.Step()
	if c.A != 0 || !c.flag(flagZ) || c.flag(flagN) {
		t.Fatalf("LDA #$00: A=%#02x Z=%v N=%v", c.A, c.flag(flagZ), c.flag(flagN))
	}

	bus.loadAt(0x8002, 0xA9, 0x80) // LDA #$80
	c.Step()
	if c.A != 0x80 || c.flag(flagZ) || !c.flag(flagN) {
		t.Fatalf("LDA #$80: A=%#02x Z=%v N=%v", c.A, c.flag(flagZ), c.flag(flagN))
	}
}

func TestZeroPageXWrapsWithinPage(t *testing.T) {
	c, bus := newTestCPU()
	c.X = 0xFF
	bus.mem[0x007F] = 0x42
	bus.loadAt(0x8000, 0xB5, 0x80) // LDA $80,X -> zero page 0x80+0xFF wraps to 0x7F
	c.Step()
	if c.A != 0x42 {
		t.Fatalf("LDA zp,X wraparound: A = %#02x, want 0x42", c.A)
	}
}

func TestAbsoluteXPageCrossAddsCycle(t *testing.T) {
	c, bus := newTestCPU()
	c.X = 0x01
	bus.mem[0x8100] = 0x55
	bus.loadAt(0x8000, 0xBD, 0xFF, 0x80) // LDA $80FF,X -> crosses into $8100
	cycles := c.Step()
	if cycles != 5 {
		t.Fatalf("LDA abs,X page-crossing cycles = %d, want 5", cycles)
	}
	if c.A != 0x55 {
		t.Fatalf("LDA abs,X = %#02x, want 0x55", c.A)
	}
}

func TestAbsoluteXNoPageCrossBaseCycles(t *testing.T) {
	c, bus := newTestCPU()
	c.X = 0x01
	bus.mem[0x8001] = 0x55
	bus.loadAt(0x8000, 0xBD, 0x00, 0x80) // LDA $8000,X, same page
	cycles := c.Step()
	if cycles != 4 {
		t.Fatalf("LDA abs,X same-page cycles = %d, want 4", cycles)
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x30FF] = 0x00
	bus.mem[0x3000] = 0x80 // the CPU bug: high byte fetched from $3000, not $3100
	bus.mem[0x3100] = 0xFF
	bus.loadAt(0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	c.Step()
	if c.PC != 0x8000 {
		t.Fatalf("JMP indirect page-wrap: PC = %#04x, want 0x8000", c.PC)
	}
}

func TestADCSetsOverflowOnSignedOverflow(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x50
	bus.loadAt(0x8000, 0x69, 0x50) // ADC #$50: 0x50+0x50 = 0xA0, signed overflow
	c.Step()
	if c.A != 0xA0 {
		t.Fatalf("ADC result = %#02x, want 0xA0", c.A)
	}
	if !c.flag(flagV) {
		t.Fatal("ADC should set overflow for 0x50+0x50")
	}
	if c.flag(flagC) {
		t.Fatal("ADC should not set carry for 0x50+0x50")
	}
}

func TestSBCBorrowsViaInvertedCarry(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x05
	c.setFlag(flagC, true) // carry set means "no borrow" going in
	bus.loadAt(0x8000, 0xE9, 0x06) // SBC #$06: 5-6 = -1 = 0xFF, borrow occurs
	c.Step()
	if c.A != 0xFF {
		t.Fatalf("SBC result = %#02x, want 0xFF", c.A)
	}
	if c.flag(flagC) {
		t.Fatal("SBC should clear carry when a borrow occurs")
	}
}

func TestCompareSetsCarryWhenRegisterIsGreaterOrEqual(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x10
	bus.loadAt(0x8000, 0xC9, 0x10) // CMP #$10
	c.Step()
	if !c.flag(flagC) || !c.flag(flagZ) {
		t.Fatalf("CMP equal: C=%v Z=%v, want both true", c.flag(flagC), c.flag(flagZ))
	}
}

func TestBranchCycleTiming(t *testing.T) {
	t.Run("not taken", func(t *testing.T) {
		c, bus := newTestCPU()
		c.setFlag(flagC, true)
		bus.loadAt(0x8000, 0x90, 0x10) // BCC, carry set -> not taken
		if cycles := c.Step(); cycles != 2 {
			t.Fatalf("not-taken branch cycles = %d, want 2", cycles)
		}
		if c.PC != 0x8002 {
			t.Fatalf("PC after not-taken branch = %#04x, want 0x8002", c.PC)
		}
	})

	t.Run("taken same page", func(t *testing.T) {
		c, bus := newTestCPU()
		bus.loadAt(0x8000, 0x90, 0x10) // BCC, carry clear -> taken, +0x10, same page
		if cycles := c.Step(); cycles != 3 {
			t.Fatalf("taken same-page branch cycles = %d, want 3", cycles)
		}
		if c.PC != 0x8012 {
			t.Fatalf("PC after taken branch = %#04x, want 0x8012", c.PC)
		}
	})

	t.Run("taken crossing page", func(t *testing.T) {
		c, bus := newTestCPU()
		bus.setResetVector(0x80F0)
		c.Reset()
		bus.loadAt(0x80F0, 0x90, 0x20) // BCC +0x20 from $80F2 crosses into $8112
		if cycles := c.Step(); cycles != 4 {
			t.Fatalf("taken page-crossing branch cycles = %d, want 4", cycles)
		}
	})
}

func TestJSRAndRTSRoundTrip(t *testing.T) {
	c, bus := newTestCPU()
	bus.loadAt(0x8000, 0x20, 0x00, 0x90) // JSR $9000
	bus.loadAt(0x9000, 0x60)             // RTS
	c.Step()                             // JSR
	if c.PC != 0x9000 {
		t.Fatalf("PC after JSR = %#04x, want 0x9000", c.PC)
	}
	c.Step() // RTS
	if c.PC != 0x8003 {
		t.Fatalf("PC after RTS = %#04x, want 0x8003 (return address + 1)", c.PC)
	}
}

func TestBRKPushesReturnAddressAndSetsBreakBit(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x91
	bus.loadAt(0x8000, 0x00) // BRK
	c.Step()

	if c.PC != 0x9100 {
		t.Fatalf("PC after BRK = %#04x, want the IRQ vector 0x9100", c.PC)
	}
	pushedStatus := bus.mem[stackBase+uint16(c.SP)+1]
	if pushedStatus&flagB == 0 {
		t.Fatal("status pushed by BRK should have the break bit set")
	}
	returnLo := bus.mem[stackBase+uint16(c.SP)+2]
	returnHi := bus.mem[stackBase+uint16(c.SP)+3]
	if ret := uint16(returnHi)<<8 | uint16(returnLo); ret != 0x8002 {
		t.Fatalf("BRK pushed return address %#04x, want 0x8002 (PC+2)", ret)
	}
}

func TestHaltOnBRKStopsExecution(t *testing.T) {
	c, bus := newTestCPU()
	c.HaltOnBRK = true
	bus.loadAt(0x8000, 0xA9, 0x05, 0x00) // LDA #$05; BRK
	c.Step()
	c.Step()
	if !c.Halted {
		t.Fatal("CPU should halt after executing BRK with HaltOnBRK set")
	}
	if c.A != 0x05 {
		t.Fatalf("A = %#02x, want 0x05", c.A)
	}
	if cycles := c.Step(); cycles != 0 {
		t.Fatalf("Step on a halted CPU should report 0 cycles, got %d", cycles)
	}
}

func TestRTIRestoresStatusAndPC(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	c.pushWord(0x1234)
	c.pushStatus(false)
	bus.loadAt(0x8000, 0x40) // RTI
	c.Step()
	if c.PC != 0x1234 {
		t.Fatalf("PC after RTI = %#04x, want 0x1234", c.PC)
	}
}

func TestStepServicesPendingNMI(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[nmiVector] = 0x00
	bus.mem[nmiVector+1] = 0x92
	bus.nmi = true

	cycles := c.Step()
	if cycles != 2 {
		t.Fatalf("NMI service cycles = %d, want 2", cycles)
	}
	if c.PC != 0x9200 {
		t.Fatalf("PC after NMI = %#04x, want the NMI vector 0x9200", c.PC)
	}
	if !c.flag(flagI) {
		t.Fatal("NMI should set the interrupt-disable flag")
	}
}

func TestStepFoldsDMAStallIntoReturnedCycles(t *testing.T) {
	c, bus := newTestCPU()
	bus.stall = 513
	bus.loadAt(0x8000, 0xEA) // NOP, base cost 2
	if cycles := c.Step(); cycles != 2+513 {
		t.Fatalf("Step cycles with pending stall = %d, want %d", cycles, 2+513)
	}
	if bus.ticked != 2+513 {
		t.Fatalf("Step ticked the bus by %d cycles, want %d", bus.ticked, 2+513)
	}
}

func TestPHAThenPLARestoresAccumulator(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x37
	bus.loadAt(0x8000, 0x48, 0xA9, 0x00, 0x68) // PHA; LDA #$00; PLA
	c.Step()
	c.Step()
	c.Step()
	if c.A != 0x37 {
		t.Fatalf("A after PHA/PLA round trip = %#02x, want 0x37", c.A)
	}
	if c.flag(flagZ) || c.flag(flagN) {
		t.Fatal("PLA of 0x37 should leave Z and N clear")
	}
}

func TestPHPThenPLPForcesBreakClearAndUnusedSet(t *testing.T) {
	c, bus := newTestCPU()
	c.P = flagC | flagU
	bus.loadAt(0x8000, 0x08, 0x28) // PHP; PLP
	c.Step()
	pushed := bus.mem[stackBase+uint16(c.SP)+1]
	if pushed&flagB == 0 || pushed&flagU == 0 {
		t.Fatalf("PHP should push with B and U set, pushed %#02x", pushed)
	}
	c.Step()
	if c.P&flagB != 0 {
		t.Fatal("PLP must force the break bit clear")
	}
	if c.P&flagU == 0 {
		t.Fatal("PLP must force the unused bit set")
	}
	if !c.flag(flagC) {
		t.Fatal("PLP should restore the carry flag")
	}
}

func TestINXWrapsThroughZero(t *testing.T) {
	c, bus := newTestCPU()
	c.HaltOnBRK = true
	c.setFlag(flagC, true)
	bus.loadAt(0x8000, 0xA9, 0xFF, 0xAA, 0xE8, 0xE8, 0x00) // LDA #$FF; TAX; INX; INX; BRK
	c.Run()
	if c.X != 0x01 {
		t.Fatalf("X = %#02x, want 0x01 after wrapping through zero", c.X)
	}
	if c.flag(flagZ) || c.flag(flagN) {
		t.Fatalf("Z=%v N=%v after INX to 0x01, want both clear", c.flag(flagZ), c.flag(flagN))
	}
	if !c.flag(flagC) {
		t.Fatal("INX must leave the carry flag unchanged")
	}
}
