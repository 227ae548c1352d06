package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"

	"github.com/go-faster/jx"

	"svision/emu"
	"svision/hw"
	"svision/hw/cart"
	"svision/hw/gpu"
)

// runMain runs the emulator headlessly with the given rom.
func runMain(args Run, cfg emu.Config) {
	img, err := cart.Open(args.RomPath)
	checkf(err, "failed to open rom")

	if args.Color != "" {
		if _, ok := gpu.SchemeByName(args.Color); !ok {
			fatalf("unknown color scheme %q", args.Color)
		}
		cfg.Video.ColorScheme = args.Color
	}
	if args.Ghosting != nil {
		cfg.Video.Ghosting = *args.Ghosting
	}

	opts := emu.Options{
		Frames:     args.Frames,
		WAVPath:    args.WAV,
		FramesPath: args.FramesOut,
		LoadState:  statePath(cfg, args.LoadState, args.StateID),
		SaveState:  statePath(cfg, args.SaveState, args.StateID),
		Input:      cfg.Input,
	}
	if opts.Frames <= 0 {
		opts.Frames = cfg.General.Frames
	}
	if args.Input != "" {
		buf, err := os.ReadFile(args.Input)
		checkf(err, "failed to read input script")
		checkf(opts.Input.Decode(jx.DecodeBytes(buf)), "invalid input script %s", args.Input)
	}

	e, err := emu.New(img, cfg, emu.NewHaltedCPU)
	checkf(err, "failed to start emulator")

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Fprintln(os.Stderr, "CPU profile written to", args.CPUProfile)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, err := e.Run(ctx, opts)
	checkf(err, "emulation failed")

	checkf(emu.WriteJSON(os.Stdout, sum.Encode), "failed to write summary")
}

// statePath resolves the state file path given on the command line, relative
// paths are looked up in the configured state directory.
func statePath(cfg emu.Config, path string, id int) string {
	if path == "" {
		return ""
	}
	if cfg.General.StateDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.General.StateDir, path)
	}
	return hw.StatePath(path, id)
}

func romInfosMain(args RomInfos) {
	img, err := cart.Open(args.RomPath)
	checkf(err, "failed to open rom")

	inf := img.Infos()
	if args.JSON {
		checkf(emu.WriteJSON(os.Stdout, func(e *jx.Encoder) {
			emu.EncodeRomInfos(e, img.Path, inf)
		}), "failed to write infos")
		return
	}
	fmt.Printf("%s: %s\n", img.Path, inf)
}

func stateInfosMain(args StateInfos) {
	st, err := emu.ReadStateFile(args.StatePath)
	checkf(err, "failed to read state")

	if args.JSON {
		checkf(emu.WriteJSON(os.Stdout, func(e *jx.Encoder) {
			emu.EncodeStateInfos(e, st)
		}), "failed to write infos")
		return
	}

	fmt.Printf("pc=$%04X a=$%02X x=$%02X y=$%02X s=$%02X p=$%02X irq=%t\n",
		st.CPU.PC(), st.CPU.A, st.CPU.X, st.CPU.Y, st.CPU.S, st.CPU.P, st.IRQ)
	fmt.Printf("bank=%d timer=%d (active=%t fired=%t) dma_finished=%t\n",
		st.Mem.Bank, st.Timer.Cycles, st.Timer.Active, st.Mem.TimerFired, st.Mem.DMAFinished)
}

func versionMain() {
	fmt.Printf("svision core %s\n", hw.Version)
}
