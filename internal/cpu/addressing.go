package cpu

// AddressingMode identifies how an instruction's operand address is
// computed from the bytes following its opcode.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect
	IndirectIndexed
)

// operandAddress computes the effective address for mode, reading
// whatever operand bytes follow the opcode at the current PC. It never
// mutates PC or any register; Step advances PC by the instruction's byte
// length separately, once, after this call returns.
func (c *CPU) operandAddress(mode AddressingMode) (addr uint16, pageCrossed bool) {
	switch mode {
	case Implied, Accumulator:
		return 0, false

	case Immediate:
		return c.PC + 1, false

	case ZeroPage:
		return uint16(c.bus.Read(c.PC + 1)), false

	case ZeroPageX:
		base := c.bus.Read(c.PC + 1)
		return uint16(base + c.X), false

	case ZeroPageY:
		base := c.bus.Read(c.PC + 1)
		return uint16(base + c.Y), false

	case Relative:
		offset := int8(c.bus.Read(c.PC + 1))
		next := c.PC + 2
		target := uint16(int32(next) + int32(offset))
		pageCrossed = next&0xFF00 != target&0xFF00
		return target, pageCrossed

	case Absolute:
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		return hi<<8 | lo, false

	case AbsoluteX:
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		base := hi<<8 | lo
		addr = base + uint16(c.X)
		return addr, base&0xFF00 != addr&0xFF00

	case AbsoluteY:
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		base := hi<<8 | lo
		addr = base + uint16(c.Y)
		return addr, base&0xFF00 != addr&0xFF00

	case Indirect:
		lo := uint16(c.bus.Read(c.PC + 1))
		hi := uint16(c.bus.Read(c.PC + 2))
		ptr := hi<<8 | lo
		// Hardware bug: if the pointer's low byte is 0xFF, the high byte
		// is fetched from the start of the same page instead of wrapping
		// into the next one.
		if ptr&0x00FF == 0x00FF {
			lo := uint16(c.bus.Read(ptr))
			hi := uint16(c.bus.Read(ptr & 0xFF00))
			return hi<<8 | lo, false
		}
		lo2 := uint16(c.bus.Read(ptr))
		hi2 := uint16(c.bus.Read(ptr + 1))
		return hi2<<8 | lo2, false

	case IndexedIndirect: // (zp,X)
		base := c.bus.Read(c.PC+1) + c.X
		lo := uint16(c.bus.Read(uint16(base)))
		hi := uint16(c.bus.Read(uint16(base + 1)))
		return hi<<8 | lo, false

	case IndirectIndexed: // (zp),Y
		zp := c.bus.Read(c.PC + 1)
		lo := uint16(c.bus.Read(uint16(zp)))
		hi := uint16(c.bus.Read(uint16(zp + 1)))
		base := hi<<8 | lo
		addr = base + uint16(c.Y)
		return addr, base&0xFF00 != addr&0xFF00

	default:
		return 0, false
	}
}
