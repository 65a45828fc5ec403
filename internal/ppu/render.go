package ppu

import "gones/internal/cartridge"

// Frame is a 256x240 row-major RGB frame buffer, 3 bytes per pixel.
type Frame [ScreenWidth * ScreenHeight * 3]byte

// RGBA expands the frame's packed RGB bytes into a fully opaque RGBA
// buffer, the pixel format ebiten (and most other Go image hosts) expect.
func (f *Frame) RGBA() []byte {
	out := make([]byte, ScreenWidth*ScreenHeight*4)
	for i := 0; i < ScreenWidth*ScreenHeight; i++ {
		out[i*4] = f[i*3]
		out[i*4+1] = f[i*3+1]
		out[i*4+2] = f[i*3+2]
		out[i*4+3] = 0xFF
	}
	return out
}

func (f *Frame) setPixel(x, y int, color uint32) {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return
	}
	r, g, b := rgb(color)
	offset := (y*ScreenWidth + x) * 3
	f[offset] = r
	f[offset+1] = g
	f[offset+2] = b
}

// patternBase returns the CHR-ROM bank address (0x0000 or 0x1000)
// selected by the given ctrl bit.
func patternBase(ctrlBit uint8, ctrl uint8) uint16 {
	if ctrl&ctrlBit != 0 {
		return 0x1000
	}
	return 0x0000
}

// nametableWindow returns the two 1024-byte nametable slices relevant to
// scrolled rendering: the "main" table the screen currently shows, and
// the "second" table visible in the wrapped strip beyond it, selected
// from the mirroring mode and the base-nametable bits of ctrl.
func (p *PPU) nametableWindow() (main, second []uint8) {
	base := uint16(0x2000) + uint16(p.ctrl&ctrlNametableMask)*0x400
	table0 := p.vramTable(0x2000)
	table1 := p.vramTable(0x2400)

	switch p.cart.Mirroring() {
	case cartridge.MirrorVertical:
		if base == 0x2000 || base == 0x2800 {
			return table0, table1
		}
		return table1, table0
	default: // Horizontal (and FourScreen, treated the same for this view)
		if base == 0x2000 || base == 0x2400 {
			return table0, table1
		}
		return table1, table0
	}
}

// vramTable returns the 1024-byte logical nametable starting at addr
// (one of 0x2000, 0x2400, 0x2800, 0x2C00), resolved through mirroring.
func (p *PPU) vramTable(addr uint16) []uint8 {
	start := p.mirrorVRAM(addr)
	return p.vram[start : start+0x400]
}

// Render composites the current PPU state into a 256x240 RGB frame: the
// scrolled main nametable, the strip of the secondary nametable the
// scroll exposes, then sprites on top.
func (p *PPU) Render() *Frame {
	var frame Frame

	scrollX := int(p.scrollX)
	scrollY := int(p.scrollY)
	main, second := p.nametableWindow()

	p.renderNametable(&frame, main, rect{scrollX, scrollY, ScreenWidth, ScreenHeight}, -scrollX, -scrollY)

	switch {
	case scrollX > 0:
		p.renderNametable(&frame, second, rect{0, 0, scrollX, ScreenHeight}, ScreenWidth-scrollX, 0)
	case scrollY > 0:
		p.renderNametable(&frame, second, rect{0, 0, ScreenWidth, scrollY}, 0, ScreenHeight-scrollY)
	}

	p.renderSprites(&frame)
	return &frame
}

type rect struct {
	x1, y1, x2, y2 int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x1 && x < r.x2 && y >= r.y1 && y < r.y2
}

func (p *PPU) renderNametable(frame *Frame, nametable []uint8, view rect, shiftX, shiftY int) {
	bank := patternBase(ctrlBGPatternBit, p.ctrl)
	attributeTable := nametable[0x3C0:0x400]

	for i := 0; i < 0x3C0; i++ {
		tileColumn := i % 32
		tileRow := i / 32
		tileIdx := uint16(nametable[i])
		tile := p.chrTile(bank, tileIdx)
		palette := p.bgPalette(attributeTable, tileColumn, tileRow)

		for y := 0; y < 8; y++ {
			upper := tile[y]
			lower := tile[y+8]
			for x := 7; x >= 0; x-- {
				value := (lower&1)<<1 | (upper & 1)
				upper >>= 1
				lower >>= 1

				pixelX := tileColumn*8 + x
				pixelY := tileRow*8 + y
				if !view.contains(pixelX, pixelY) {
					continue
				}
				color := systemPalette[palette[value]&0x3F]
				frame.setPixel(shiftX+pixelX, shiftY+pixelY, color)
			}
		}
	}
}

func (p *PPU) renderSprites(frame *Frame) {
	bank := patternBase(ctrlSpritePatternBit, p.ctrl)

	for i := 252; i >= 0; i -= 4 {
		tileY := int(p.oam[i])
		tileIdx := uint16(p.oam[i+1])
		attr := p.oam[i+2]
		tileX := int(p.oam[i+3])

		flipVertical := attr>>7&1 == 1
		flipHorizontal := attr>>6&1 == 1
		paletteIdx := attr & 0x03
		palette := p.spritePalette(paletteIdx)

		tile := p.chrTile(bank, tileIdx)

		for y := 0; y < 8; y++ {
			lower := tile[y]
			upper := tile[y+8]
			for x := 7; x >= 0; x-- {
				value := (upper&1)<<1 | (lower & 1)
				lower >>= 1
				upper >>= 1
				if value == 0 {
					continue // transparent
				}
				color := systemPalette[palette[value]&0x3F]

				px, py := tileX+x, tileY+y
				if flipHorizontal {
					px = tileX + 7 - x
				}
				if flipVertical {
					py = tileY + 7 - y
				}
				frame.setPixel(px, py, color)
			}
		}
	}
}

func (p *PPU) chrTile(bank uint16, tileIdx uint16) [16]uint8 {
	var tile [16]uint8
	base := bank + tileIdx*16
	for i := range tile {
		tile[i] = p.cart.ReadCHR(base + uint16(i))
	}
	return tile
}

// bgPalette resolves the 4-color background palette for a tile,
// reading the 2-bit quadrant selector out of the attribute byte
// covering its 4x4 tile block.
func (p *PPU) bgPalette(attributeTable []uint8, tileColumn, tileRow int) [4]uint8 {
	attrIdx := tileRow/4*8 + tileColumn/4
	attrByte := attributeTable[attrIdx]

	var shift uint
	switch {
	case tileColumn%4/2 == 0 && tileRow%4/2 == 0:
		shift = 0
	case tileColumn%4/2 == 1 && tileRow%4/2 == 0:
		shift = 2
	case tileColumn%4/2 == 0 && tileRow%4/2 == 1:
		shift = 4
	default:
		shift = 6
	}
	paletteIdx := (attrByte >> shift) & 0x03
	start := 1 + int(paletteIdx)*4

	return [4]uint8{
		p.palette[0],
		p.palette[start],
		p.palette[start+1],
		p.palette[start+2],
	}
}

func (p *PPU) spritePalette(idx uint8) [4]uint8 {
	start := 0x11 + int(idx)*4
	return [4]uint8{
		0,
		p.palette[start],
		p.palette[start+1],
		p.palette[start+2],
	}
}
