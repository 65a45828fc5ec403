package bus

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gones/internal/cpu"
	"gones/internal/joypad"
	"gones/internal/ppu"
)

// AttachCPU wires the CPU that Update drives and installs the internal
// frame-boundary hook Update waits on. c must already be constructed
// against this Bus (cpu.New(b)) and reset.
func (b *Bus) AttachCPU(c *cpu.CPU) {
	b.cpu = c
	b.SetFrameCallback(func(*ppu.PPU, *joypad.Joypad) { b.frameReady = true })
}

// keyBindings maps host keys to controller 1 buttons, following the
// layout most NES emulators in this corpus settle on: arrow keys for the
// d-pad, Z/X for B/A, and Enter/Shift for Start/Select.
var keyBindings = map[ebiten.Key]joypad.Button{
	ebiten.KeyArrowUp:    joypad.Up,
	ebiten.KeyArrowDown:  joypad.Down,
	ebiten.KeyArrowLeft:  joypad.Left,
	ebiten.KeyArrowRight: joypad.Right,
	ebiten.KeyZ:          joypad.B,
	ebiten.KeyX:          joypad.A,
	ebiten.KeyEnter:      joypad.Start,
	ebiten.KeyShift:      joypad.Select,
}

func (b *Bus) pollInput() {
	for key, button := range keyBindings {
		b.Pad.SetButton(button, ebiten.IsKeyPressed(key))
	}
}

// Update implements ebiten.Game. It samples the keyboard and runs the CPU
// until a full PPU frame completes, the way a real NES produces exactly
// one picture per 1/60s tick.
func (b *Bus) Update() error {
	if b.cpu == nil {
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	b.pollInput()
	for !b.frameReady {
		if b.cpu.Halted {
			return ebiten.Termination
		}
		b.cpu.Step()
	}
	b.frameReady = false
	return nil
}

// Draw implements ebiten.Game, rendering the PPU's current frame.
func (b *Bus) Draw(screen *ebiten.Image) {
	if b.pixelImage == nil {
		b.pixelImage = ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight)
	}
	b.pixelImage.WritePixels(b.PPU.Render().RGBA())
	screen.DrawImage(b.pixelImage, nil)
}

// Layout implements ebiten.Game, always reporting the native NES
// resolution; ebiten handles scaling the window around it.
func (b *Bus) Layout(int, int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}
