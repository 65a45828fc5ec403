// Package main implements the gones NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/version"
)

func main() {
	var (
		debug   = flag.Bool("debug", false, "log cartridge and mirroring info on load")
		showVer = flag.Bool("version", false, "print version information and exit")
		scale   = flag.Int("scale", 3, "window scale factor")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] rom.nes\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		fmt.Println(version.GetBuildInfo())
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *scale, *debug); err != nil {
		log.Fatalf("gones: %v", err)
	}
}

func run(romPath string, scale int, debug bool) error {
	cart, err := cartridge.Load(romPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", romPath, err)
	}
	if debug {
		log.Printf("loaded %s, mirroring=%v", romPath, cart.Mirroring())
	}

	b := bus.New(cart)
	c := cpu.New(b)
	c.Reset()
	b.AttachCPU(c)

	ebiten.SetWindowSize(256*scale, 240*scale)
	ebiten.SetWindowTitle("gones")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(b); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
