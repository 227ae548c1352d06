// Package emu runs the machine headlessly: it feeds scripted input, and
// streams the produced video and audio to files.
package emu

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"

	"golang.org/x/sync/errgroup"

	"svision/emu/log"
	"svision/hw"
	"svision/hw/cart"
	"svision/hw/gpu"
	"svision/hw/input"
	"svision/hw/sound"
)

// Cycles per video frame, and CPU clock.
const (
	frameCycles = hw.CyclesPerSlice * hw.SlicesPerFrame
	cpuClock    = sound.Clock
)

// Options are the per-run parameters.
type Options struct {
	Frames int

	WAVPath    string // if set, audio is written there
	FramesPath string // if set, raw RGB555 frames are written there

	LoadState string // state file to start from
	SaveState string // state file written at the end of the run

	Input input.Script
}

type Emulator struct {
	Machine *hw.Machine
	Rom     *cart.Image

	cfg Config
}

// New creates an emulator running img on a CPU created by newCPU.
func New(img *cart.Image, cfg Config, newCPU func(hw.Bus) hw.CPU) (*Emulator, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	m := hw.NewMachine(newCPU, cfg.Audio.SampleRate)
	if err := m.Load(img.ROM); err != nil {
		return nil, fmt.Errorf("%s: %w", img.Path, err)
	}
	m.SetColorScheme(cfg.Video.Scheme())
	m.SetGhosting(cfg.Video.Ghosting)

	log.ModEmu.InfoZ("cartridge loaded").
		String("path", img.Path).
		Stringer("infos", img.Infos()).
		End()

	return &Emulator{
		Machine: m,
		Rom:     img,
		cfg:     cfg,
	}, nil
}

// samplesInFrame returns the number of stereo samples produced during the
// given frame at rate, spreading the remainder so that there's no drift.
func samplesInFrame(frame int, rate int) int {
	at := func(f int) int64 {
		return int64(f) * frameCycles * int64(rate) / cpuClock
	}
	return int(at(frame+1) - at(frame))
}

type videoFrame []uint16

// Run emulates opts.Frames frames. Emulation runs in its own goroutine,
// while audio and video are written concurrently by others.
func (e *Emulator) Run(ctx context.Context, opts Options) (*Summary, error) {
	m := e.Machine
	if opts.LoadState != "" {
		if err := m.LoadStateFile(opts.LoadState, -1); err != nil {
			return nil, err
		}
		log.ModEmu.InfoZ("state loaded").String("path", opts.LoadState).End()
	}
	if err := opts.Input.Validate(); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}

	var (
		wavOut   *WAVWriter
		frameOut *os.File
		err      error
	)
	if opts.WAVPath != "" && !e.cfg.Audio.Disabled {
		if wavOut, err = CreateWAV(opts.WAVPath, e.cfg.Audio.OutputRate); err != nil {
			return nil, err
		}
	}
	if opts.FramesPath != "" {
		if frameOut, err = os.Create(opts.FramesPath); err != nil {
			if wavOut != nil {
				wavOut.Close()
			}
			return nil, fmt.Errorf("frames: %w", err)
		}
	}

	var audioc chan []byte
	var videoc chan videoFrame
	if wavOut != nil {
		audioc = make(chan []byte, 8)
	}
	if frameOut != nil {
		videoc = make(chan videoFrame, 8)
	}

	sum := &Summary{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer func() {
			if audioc != nil {
				close(audioc)
			}
			if videoc != nil {
				close(videoc)
			}
		}()
		return e.emulate(ctx, opts, audioc, videoc, sum)
	})

	if wavOut != nil {
		g.Go(func() error {
			return writeAudio(ctx, wavOut, audioc, m.SampleRate(), e.cfg.Audio.OutputRate)
		})
	}
	if frameOut != nil {
		g.Go(func() error {
			return writeFrames(ctx, frameOut, videoc)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if wavOut != nil {
		sum.Samples = wavOut.Frames()
	}

	if opts.SaveState != "" {
		if err := m.SaveStateFile(opts.SaveState, -1); err != nil {
			return nil, err
		}
		sum.State = opts.SaveState
	}

	log.ModEmu.InfoZ("run finished").
		Int("frames", sum.Frames).
		Int("samples", sum.Samples).
		End()
	return sum, nil
}

func (e *Emulator) emulate(ctx context.Context, opts Options, audioc chan<- []byte, videoc chan<- videoFrame, sum *Summary) error {
	m := e.Machine
	fb := make([]uint16, gpu.Width*gpu.Height)
	rate := m.SampleRate()
	nmis := countNMIs(m)

	for frame := range opts.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.SetInput(opts.Input.At(frame))
		if err := m.RunFrame(fb, gpu.Width); err != nil {
			return err
		}

		// Audio is rendered between frames, as an audio callback would.
		audio := make([]byte, 2*samplesInFrame(frame, rate))
		m.RenderAudio(audio)

		if audioc != nil {
			select {
			case audioc <- audio:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if videoc != nil {
			select {
			case videoc <- videoFrame(append([]uint16(nil), fb...)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		sum.Frames++
	}

	sum.NMIs = countNMIs(m) - nmis
	sum.Checksum = frameChecksum(fb)
	return nil
}

// countNMIs returns the number of NMIs received by the CPU, when it keeps
// track of them.
func countNMIs(m *hw.Machine) int {
	if c, ok := m.CPU().(*HaltedCPU); ok {
		return c.NMIs
	}
	return 0
}

func frameChecksum(fb []uint16) uint32 {
	h := crc32.NewIEEE()
	binary.Write(h, binary.LittleEndian, fb)
	return h.Sum32()
}

func writeAudio(ctx context.Context, w *WAVWriter, audioc <-chan []byte, inRate, outRate int) (err error) {
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	// Frame sizes vary by one sample, leave some margin.
	rs := NewResampler(inRate, outRate, 2*inRate/60)
	for buf := range audioc {
		if err := w.Write(rs.Process(buf)); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func writeFrames(ctx context.Context, f *os.File, videoc <-chan videoFrame) (err error) {
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	bw := bufio.NewWriter(f)
	for fb := range videoc {
		if err := binary.Write(bw, binary.LittleEndian, []uint16(fb)); err != nil {
			return fmt.Errorf("frames: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	return ctx.Err()
}
