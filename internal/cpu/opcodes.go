package cpu

// execFunc is the signature every instruction's execute step implements.
// addr is whatever operandAddress computed for the instruction's mode
// (unused by implied/accumulator instructions); pageCrossed reports
// whether an indexed addressing mode crossed a page boundary fetching
// that address, which only branch instructions need directly (other
// instructions get their page-cross penalty from the opcode table).
// The return value is any extra cycles beyond the opcode's base count.
type execFunc func(c *CPU, addr uint16, pageCrossed bool) uint8

// opcode describes one entry of the 256-slot dispatch table: its encoded
// length in bytes (opcode plus operands), base cycle count, addressing mode, whether that mode's
// page-cross penalty applies, and the function that executes it.
type opcode struct {
	bytes       uint8
	cycles      uint8
	mode        AddressingMode
	pagePenalty bool
	exec        execFunc
}

// opcodeTable is the static opcode-to-behavior mapping. Dispatch is by
// direct function-pointer call, never by opcode name or string matching.
// Unassigned slots carry a nil exec and are illegal opcodes; Step panics
// on one rather than silently treating it as a NOP, since a cartridge
// that executes one is almost certainly desynced already.
var opcodeTable = [256]opcode{
	// Load/store
	0xA9: {2, 2, Immediate, false, execLDA},
	0xA5: {2, 3, ZeroPage, false, execLDA},
	0xB5: {2, 4, ZeroPageX, false, execLDA},
	0xAD: {3, 4, Absolute, false, execLDA},
	0xBD: {3, 4, AbsoluteX, true, execLDA},
	0xB9: {3, 4, AbsoluteY, true, execLDA},
	0xA1: {2, 6, IndexedIndirect, false, execLDA},
	0xB1: {2, 5, IndirectIndexed, true, execLDA},

	0xA2: {2, 2, Immediate, false, execLDX},
	0xA6: {2, 3, ZeroPage, false, execLDX},
	0xB6: {2, 4, ZeroPageY, false, execLDX},
	0xAE: {3, 4, Absolute, false, execLDX},
	0xBE: {3, 4, AbsoluteY, true, execLDX},

	0xA0: {2, 2, Immediate, false, execLDY},
	0xA4: {2, 3, ZeroPage, false, execLDY},
	0xB4: {2, 4, ZeroPageX, false, execLDY},
	0xAC: {3, 4, Absolute, false, execLDY},
	0xBC: {3, 4, AbsoluteX, true, execLDY},

	0x85: {2, 3, ZeroPage, false, execSTA},
	0x95: {2, 4, ZeroPageX, false, execSTA},
	0x8D: {3, 4, Absolute, false, execSTA},
	0x9D: {3, 5, AbsoluteX, false, execSTA},
	0x99: {3, 5, AbsoluteY, false, execSTA},
	0x81: {2, 6, IndexedIndirect, false, execSTA},
	0x91: {2, 6, IndirectIndexed, false, execSTA},

	0x86: {2, 3, ZeroPage, false, execSTX},
	0x96: {2, 4, ZeroPageY, false, execSTX},
	0x8E: {3, 4, Absolute, false, execSTX},

	0x84: {2, 3, ZeroPage, false, execSTY},
	0x94: {2, 4, ZeroPageX, false, execSTY},
	0x8C: {3, 4, Absolute, false, execSTY},

	// Arithmetic
	0x69: {2, 2, Immediate, false, execADC},
	0x65: {2, 3, ZeroPage, false, execADC},
	0x75: {2, 4, ZeroPageX, false, execADC},
	0x6D: {3, 4, Absolute, false, execADC},
	0x7D: {3, 4, AbsoluteX, true, execADC},
	0x79: {3, 4, AbsoluteY, true, execADC},
	0x61: {2, 6, IndexedIndirect, false, execADC},
	0x71: {2, 5, IndirectIndexed, true, execADC},

	0xE9: {2, 2, Immediate, false, execSBC},
	0xE5: {2, 3, ZeroPage, false, execSBC},
	0xF5: {2, 4, ZeroPageX, false, execSBC},
	0xED: {3, 4, Absolute, false, execSBC},
	0xFD: {3, 4, AbsoluteX, true, execSBC},
	0xF9: {3, 4, AbsoluteY, true, execSBC},
	0xE1: {2, 6, IndexedIndirect, false, execSBC},
	0xF1: {2, 5, IndirectIndexed, true, execSBC},

	// Logical
	0x29: {2, 2, Immediate, false, execAND},
	0x25: {2, 3, ZeroPage, false, execAND},
	0x35: {2, 4, ZeroPageX, false, execAND},
	0x2D: {3, 4, Absolute, false, execAND},
	0x3D: {3, 4, AbsoluteX, true, execAND},
	0x39: {3, 4, AbsoluteY, true, execAND},
	0x21: {2, 6, IndexedIndirect, false, execAND},
	0x31: {2, 5, IndirectIndexed, true, execAND},

	0x09: {2, 2, Immediate, false, execORA},
	0x05: {2, 3, ZeroPage, false, execORA},
	0x15: {2, 4, ZeroPageX, false, execORA},
	0x0D: {3, 4, Absolute, false, execORA},
	0x1D: {3, 4, AbsoluteX, true, execORA},
	0x19: {3, 4, AbsoluteY, true, execORA},
	0x01: {2, 6, IndexedIndirect, false, execORA},
	0x11: {2, 5, IndirectIndexed, true, execORA},

	0x49: {2, 2, Immediate, false, execEOR},
	0x45: {2, 3, ZeroPage, false, execEOR},
	0x55: {2, 4, ZeroPageX, false, execEOR},
	0x4D: {3, 4, Absolute, false, execEOR},
	0x5D: {3, 4, AbsoluteX, true, execEOR},
	0x59: {3, 4, AbsoluteY, true, execEOR},
	0x41: {2, 6, IndexedIndirect, false, execEOR},
	0x51: {2, 5, IndirectIndexed, true, execEOR},

	// Shift/rotate
	0x0A: {1, 2, Accumulator, false, execASLAcc},
	0x06: {2, 5, ZeroPage, false, execASL},
	0x16: {2, 6, ZeroPageX, false, execASL},
	0x0E: {3, 6, Absolute, false, execASL},
	0x1E: {3, 7, AbsoluteX, false, execASL},

	0x4A: {1, 2, Accumulator, false, execLSRAcc},
	0x46: {2, 5, ZeroPage, false, execLSR},
	0x56: {2, 6, ZeroPageX, false, execLSR},
	0x4E: {3, 6, Absolute, false, execLSR},
	0x5E: {3, 7, AbsoluteX, false, execLSR},

	0x2A: {1, 2, Accumulator, false, execROLAcc},
	0x26: {2, 5, ZeroPage, false, execROL},
	0x36: {2, 6, ZeroPageX, false, execROL},
	0x2E: {3, 6, Absolute, false, execROL},
	0x3E: {3, 7, AbsoluteX, false, execROL},

	0x6A: {1, 2, Accumulator, false, execRORAcc},
	0x66: {2, 5, ZeroPage, false, execROR},
	0x76: {2, 6, ZeroPageX, false, execROR},
	0x6E: {3, 6, Absolute, false, execROR},
	0x7E: {3, 7, AbsoluteX, false, execROR},

	// Compare
	0xC9: {2, 2, Immediate, false, execCMP},
	0xC5: {2, 3, ZeroPage, false, execCMP},
	0xD5: {2, 4, ZeroPageX, false, execCMP},
	0xCD: {3, 4, Absolute, false, execCMP},
	0xDD: {3, 4, AbsoluteX, true, execCMP},
	0xD9: {3, 4, AbsoluteY, true, execCMP},
	0xC1: {2, 6, IndexedIndirect, false, execCMP},
	0xD1: {2, 5, IndirectIndexed, true, execCMP},

	0xE0: {2, 2, Immediate, false, execCPX},
	0xE4: {2, 3, ZeroPage, false, execCPX},
	0xEC: {3, 4, Absolute, false, execCPX},

	0xC0: {2, 2, Immediate, false, execCPY},
	0xC4: {2, 3, ZeroPage, false, execCPY},
	0xCC: {3, 4, Absolute, false, execCPY},

	// Increment/decrement
	0xE6: {2, 5, ZeroPage, false, execINC},
	0xF6: {2, 6, ZeroPageX, false, execINC},
	0xEE: {3, 6, Absolute, false, execINC},
	0xFE: {3, 7, AbsoluteX, false, execINC},

	0xC6: {2, 5, ZeroPage, false, execDEC},
	0xD6: {2, 6, ZeroPageX, false, execDEC},
	0xCE: {3, 6, Absolute, false, execDEC},
	0xDE: {3, 7, AbsoluteX, false, execDEC},

	0xE8: {1, 2, Implied, false, execINX},
	0xCA: {1, 2, Implied, false, execDEX},
	0xC8: {1, 2, Implied, false, execINY},
	0x88: {1, 2, Implied, false, execDEY},

	// Register transfers
	0xAA: {1, 2, Implied, false, execTAX},
	0x8A: {1, 2, Implied, false, execTXA},
	0xA8: {1, 2, Implied, false, execTAY},
	0x98: {1, 2, Implied, false, execTYA},
	0xBA: {1, 2, Implied, false, execTSX},
	0x9A: {1, 2, Implied, false, execTXS},

	// Stack
	0x48: {1, 3, Implied, false, execPHA},
	0x68: {1, 4, Implied, false, execPLA},
	0x08: {1, 3, Implied, false, execPHP},
	0x28: {1, 4, Implied, false, execPLP},

	// Flags
	0x18: {1, 2, Implied, false, execCLC},
	0x38: {1, 2, Implied, false, execSEC},
	0x58: {1, 2, Implied, false, execCLI},
	0x78: {1, 2, Implied, false, execSEI},
	0xB8: {1, 2, Implied, false, execCLV},
	0xD8: {1, 2, Implied, false, execCLD},
	0xF8: {1, 2, Implied, false, execSED},

	// Control flow
	0x4C: {3, 3, Absolute, false, execJMP},
	0x6C: {3, 5, Indirect, false, execJMP},
	0x20: {3, 6, Absolute, false, execJSR},
	0x60: {1, 6, Implied, false, execRTS},
	0x40: {1, 6, Implied, false, execRTI},

	// Branches
	0x90: {2, 2, Relative, false, execBCC},
	0xB0: {2, 2, Relative, false, execBCS},
	0xD0: {2, 2, Relative, false, execBNE},
	0xF0: {2, 2, Relative, false, execBEQ},
	0x10: {2, 2, Relative, false, execBPL},
	0x30: {2, 2, Relative, false, execBMI},
	0x50: {2, 2, Relative, false, execBVC},
	0x70: {2, 2, Relative, false, execBVS},

	// Miscellaneous
	0x24: {2, 3, ZeroPage, false, execBIT},
	0x2C: {3, 4, Absolute, false, execBIT},
	0xEA: {1, 2, Implied, false, execNOP},
	0x00: {1, 7, Implied, false, execBRK},
}

func execLDA(c *CPU, addr uint16, _ bool) uint8 { c.A = c.bus.Read(addr); c.setZN(c.A); return 0 }
func execLDX(c *CPU, addr uint16, _ bool) uint8 { c.X = c.bus.Read(addr); c.setZN(c.X); return 0 }
func execLDY(c *CPU, addr uint16, _ bool) uint8 { c.Y = c.bus.Read(addr); c.setZN(c.Y); return 0 }

func execSTA(c *CPU, addr uint16, _ bool) uint8 { c.bus.Write(addr, c.A); return 0 }
func execSTX(c *CPU, addr uint16, _ bool) uint8 { c.bus.Write(addr, c.X); return 0 }
func execSTY(c *CPU, addr uint16, _ bool) uint8 { c.bus.Write(addr, c.Y); return 0 }

func (c *CPU) adc(value uint8) {
	carry := uint16(0)
	if c.flag(flagC) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(value) + carry
	c.setFlag(flagV, (c.A^uint8(sum))&(value^uint8(sum))&0x80 != 0)
	c.setFlag(flagC, sum > 0xFF)
	c.A = uint8(sum)
	c.setZN(c.A)
}

func execADC(c *CPU, addr uint16, _ bool) uint8 {
	c.adc(c.bus.Read(addr))
	return 0
}

func execSBC(c *CPU, addr uint16, _ bool) uint8 {
	c.adc(c.bus.Read(addr) ^ 0xFF)
	return 0
}

func execAND(c *CPU, addr uint16, _ bool) uint8 {
	c.A &= c.bus.Read(addr)
	c.setZN(c.A)
	return 0
}

func execORA(c *CPU, addr uint16, _ bool) uint8 {
	c.A |= c.bus.Read(addr)
	c.setZN(c.A)
	return 0
}

func execEOR(c *CPU, addr uint16, _ bool) uint8 {
	c.A ^= c.bus.Read(addr)
	c.setZN(c.A)
	return 0
}

func execASLAcc(c *CPU, _ uint16, _ bool) uint8 {
	c.setFlag(flagC, c.A&0x80 != 0)
	c.A <<= 1
	c.setZN(c.A)
	return 0
}

func execASL(c *CPU, addr uint16, _ bool) uint8 {
	v := c.bus.Read(addr)
	c.setFlag(flagC, v&0x80 != 0)
	v <<= 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func execLSRAcc(c *CPU, _ uint16, _ bool) uint8 {
	c.setFlag(flagC, c.A&0x01 != 0)
	c.A >>= 1
	c.setZN(c.A)
	return 0
}

func execLSR(c *CPU, addr uint16, _ bool) uint8 {
	v := c.bus.Read(addr)
	c.setFlag(flagC, v&0x01 != 0)
	v >>= 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func execROLAcc(c *CPU, _ uint16, _ bool) uint8 {
	carryIn := c.flag(flagC)
	c.setFlag(flagC, c.A&0x80 != 0)
	c.A <<= 1
	if carryIn {
		c.A |= 0x01
	}
	c.setZN(c.A)
	return 0
}

func execROL(c *CPU, addr uint16, _ bool) uint8 {
	v := c.bus.Read(addr)
	carryIn := c.flag(flagC)
	c.setFlag(flagC, v&0x80 != 0)
	v <<= 1
	if carryIn {
		v |= 0x01
	}
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func execRORAcc(c *CPU, _ uint16, _ bool) uint8 {
	carryIn := c.flag(flagC)
	c.setFlag(flagC, c.A&0x01 != 0)
	c.A >>= 1
	if carryIn {
		c.A |= 0x80
	}
	c.setZN(c.A)
	return 0
}

func execROR(c *CPU, addr uint16, _ bool) uint8 {
	v := c.bus.Read(addr)
	carryIn := c.flag(flagC)
	c.setFlag(flagC, v&0x01 != 0)
	v >>= 1
	if carryIn {
		v |= 0x80
	}
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func compare(c *CPU, reg, value uint8) {
	c.setFlag(flagC, reg >= value)
	c.setZN(reg - value)
}

func execCMP(c *CPU, addr uint16, _ bool) uint8 { compare(c, c.A, c.bus.Read(addr)); return 0 }
func execCPX(c *CPU, addr uint16, _ bool) uint8 { compare(c, c.X, c.bus.Read(addr)); return 0 }
func execCPY(c *CPU, addr uint16, _ bool) uint8 { compare(c, c.Y, c.bus.Read(addr)); return 0 }

func execINC(c *CPU, addr uint16, _ bool) uint8 {
	v := c.bus.Read(addr) + 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func execDEC(c *CPU, addr uint16, _ bool) uint8 {
	v := c.bus.Read(addr) - 1
	c.bus.Write(addr, v)
	c.setZN(v)
	return 0
}

func execINX(c *CPU, _ uint16, _ bool) uint8 { c.X++; c.setZN(c.X); return 0 }
func execDEX(c *CPU, _ uint16, _ bool) uint8 { c.X--; c.setZN(c.X); return 0 }
func execINY(c *CPU, _ uint16, _ bool) uint8 { c.Y++; c.setZN(c.Y); return 0 }
func execDEY(c *CPU, _ uint16, _ bool) uint8 { c.Y--; c.setZN(c.Y); return 0 }

func execTAX(c *CPU, _ uint16, _ bool) uint8 { c.X = c.A; c.setZN(c.X); return 0 }
func execTXA(c *CPU, _ uint16, _ bool) uint8 { c.A = c.X; c.setZN(c.A); return 0 }
func execTAY(c *CPU, _ uint16, _ bool) uint8 { c.Y = c.A; c.setZN(c.Y); return 0 }
func execTYA(c *CPU, _ uint16, _ bool) uint8 { c.A = c.Y; c.setZN(c.A); return 0 }
func execTSX(c *CPU, _ uint16, _ bool) uint8 { c.X = c.SP; c.setZN(c.X); return 0 }
func execTXS(c *CPU, _ uint16, _ bool) uint8 { c.SP = c.X; return 0 }

func execPHA(c *CPU, _ uint16, _ bool) uint8 { c.push(c.A); return 0 }
func execPLA(c *CPU, _ uint16, _ bool) uint8 { c.A = c.pop(); c.setZN(c.A); return 0 }
func execPHP(c *CPU, _ uint16, _ bool) uint8 { c.pushStatus(true); return 0 }
func execPLP(c *CPU, _ uint16, _ bool) uint8 { c.restoreStatus(c.pop()); return 0 }

func execCLC(c *CPU, _ uint16, _ bool) uint8 { c.setFlag(flagC, false); return 0 }
func execSEC(c *CPU, _ uint16, _ bool) uint8 { c.setFlag(flagC, true); return 0 }
func execCLI(c *CPU, _ uint16, _ bool) uint8 { c.setFlag(flagI, false); return 0 }
func execSEI(c *CPU, _ uint16, _ bool) uint8 { c.setFlag(flagI, true); return 0 }
func execCLV(c *CPU, _ uint16, _ bool) uint8 { c.setFlag(flagV, false); return 0 }
func execCLD(c *CPU, _ uint16, _ bool) uint8 { c.setFlag(flagD, false); return 0 }
func execSED(c *CPU, _ uint16, _ bool) uint8 { c.setFlag(flagD, true); return 0 }

func execJMP(c *CPU, addr uint16, _ bool) uint8 { c.PC = addr; return 0 }

func execJSR(c *CPU, addr uint16, _ bool) uint8 {
	c.pushWord(c.PC - 1)
	c.PC = addr
	return 0
}

func execRTS(c *CPU, _ uint16, _ bool) uint8 {
	c.PC = c.popWord() + 1
	return 0
}

func execRTI(c *CPU, _ uint16, _ bool) uint8 {
	c.restoreStatus(c.pop())
	c.PC = c.popWord()
	return 0
}

func branch(c *CPU, taken bool, addr uint16, pageCrossed bool) uint8 {
	if !taken {
		return 0
	}
	c.PC = addr
	if pageCrossed {
		return 2
	}
	return 1
}

func execBCC(c *CPU, addr uint16, pc bool) uint8 { return branch(c, !c.flag(flagC), addr, pc) }
func execBCS(c *CPU, addr uint16, pc bool) uint8 { return branch(c, c.flag(flagC), addr, pc) }
func execBNE(c *CPU, addr uint16, pc bool) uint8 { return branch(c, !c.flag(flagZ), addr, pc) }
func execBEQ(c *CPU, addr uint16, pc bool) uint8 { return branch(c, c.flag(flagZ), addr, pc) }
func execBPL(c *CPU, addr uint16, pc bool) uint8 { return branch(c, !c.flag(flagN), addr, pc) }
func execBMI(c *CPU, addr uint16, pc bool) uint8 { return branch(c, c.flag(flagN), addr, pc) }
func execBVC(c *CPU, addr uint16, pc bool) uint8 { return branch(c, !c.flag(flagV), addr, pc) }
func execBVS(c *CPU, addr uint16, pc bool) uint8 { return branch(c, c.flag(flagV), addr, pc) }

func execBIT(c *CPU, addr uint16, _ bool) uint8 {
	v := c.bus.Read(addr)
	c.setFlag(flagN, v&flagN != 0)
	c.setFlag(flagV, v&flagV != 0)
	c.setFlag(flagZ, c.A&v == 0)
	return 0
}

func execNOP(c *CPU, _ uint16, _ bool) uint8 { return 0 }

// execBRK services BRK as a full software interrupt: push PC+1 (skipping
// BRK's padding byte) and status with the break bit set, then jump to the
// IRQ/BRK vector. Step additionally halts the CPU afterward when
// HaltOnBRK is set, for test programs that use opcode 0x00 as a stop
// instruction rather than a real interrupt.
func execBRK(c *CPU, _ uint16, _ bool) uint8 {
	c.pushWord(c.PC + 1)
	c.pushStatus(true)
	c.setFlag(flagI, true)
	c.PC = uint16(c.bus.Read(irqVector)) | uint16(c.bus.Read(irqVector+1))<<8
	return 0
}
