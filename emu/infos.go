package emu

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-faster/jx"

	"svision/hw"
	"svision/hw/cart"
	"svision/hw/memmap"
	"svision/hw/snapshot"
)

// EncodeRomInfos writes cartridge informations as a JSON object.
func EncodeRomInfos(e *jx.Encoder, path string, inf cart.Infos) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("core", func(e *jx.Encoder) { e.Str(hw.Version) })
		e.Field("path", func(e *jx.Encoder) { e.Str(path) })
		e.Field("size", func(e *jx.Encoder) { e.Int(inf.Size) })
		e.Field("banks", func(e *jx.Encoder) { e.Int(inf.Banks) })
		e.Field("extended", func(e *jx.Encoder) { e.Bool(inf.Extended) })
		e.Field("vectors", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("nmi", func(e *jx.Encoder) { e.UInt16(inf.NMIVector) })
				e.Field("reset", func(e *jx.Encoder) { e.UInt16(inf.ResetVector) })
				e.Field("irq", func(e *jx.Encoder) { e.UInt16(inf.IRQVector) })
			})
		})
	})
}

// ReadStateFile reads the state file at path, it must hold exactly one
// machine state.
func ReadStateFile(path string) (*snapshot.Machine, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hw.ErrStateIO, err)
	}
	var st snapshot.Machine
	if err := snapshot.DecodeAll(bytes.NewReader(buf), &st); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &st, nil
}

// EncodeStateInfos writes a summary of a machine state as a JSON object.
func EncodeStateInfos(e *jx.Encoder, st *snapshot.Machine) {
	regs := &st.Mem.Regs
	e.Obj(func(e *jx.Encoder) {
		e.Field("cpu", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("pc", func(e *jx.Encoder) { e.UInt16(st.CPU.PC()) })
				e.Field("a", func(e *jx.Encoder) { e.UInt8(st.CPU.A) })
				e.Field("x", func(e *jx.Encoder) { e.UInt8(st.CPU.X) })
				e.Field("y", func(e *jx.Encoder) { e.UInt8(st.CPU.Y) })
				e.Field("s", func(e *jx.Encoder) { e.UInt8(st.CPU.S) })
				e.Field("p", func(e *jx.Encoder) { e.UInt8(st.CPU.P) })
			})
		})
		e.Field("irq", func(e *jx.Encoder) { e.Bool(st.IRQ) })
		e.Field("bank", func(e *jx.Encoder) { e.UInt8(st.Mem.Bank) })
		e.Field("timer", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("active", func(e *jx.Encoder) { e.Bool(st.Timer.Active) })
				e.Field("cycles", func(e *jx.Encoder) { e.Int32(st.Timer.Cycles) })
				e.Field("fired", func(e *jx.Encoder) { e.Bool(st.Mem.TimerFired) })
			})
		})
		e.Field("dma_finished", func(e *jx.Encoder) { e.Bool(st.Mem.DMAFinished) })
		e.Field("lcd", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("xsize", func(e *jx.Encoder) { e.UInt8(regs[memmap.XSIZE]) })
				e.Field("xpos", func(e *jx.Encoder) { e.UInt8(regs[memmap.XPOS]) })
				e.Field("ypos", func(e *jx.Encoder) { e.UInt8(regs[memmap.YPOS]) })
			})
		})
		e.Field("sound", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("waves", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, w := range st.Sound.Wave {
							e.Bool(w.On || w.Count != 0)
						}
					})
				})
				e.Field("noise", func(e *jx.Encoder) { e.Bool(st.Sound.Noise.On) })
				e.Field("dma", func(e *jx.Encoder) { e.Bool(st.Sound.DMA.On) })
			})
		})
	})
}

// Summary describes a finished run.
type Summary struct {
	Frames   int
	Samples  int // stereo frames written to the WAV file
	NMIs     int
	State    string // path of the saved state, if any
	Checksum uint32 // of the last video frame
}

func (s *Summary) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("core", func(e *jx.Encoder) { e.Str(hw.Version) })
		e.Field("frames", func(e *jx.Encoder) { e.Int(s.Frames) })
		e.Field("samples", func(e *jx.Encoder) { e.Int(s.Samples) })
		e.Field("nmis", func(e *jx.Encoder) { e.Int(s.NMIs) })
		if s.State != "" {
			e.Field("state", func(e *jx.Encoder) { e.Str(s.State) })
		}
		e.Field("checksum", func(e *jx.Encoder) { e.UInt32(s.Checksum) })
	})
}

// WriteJSON encodes with fn and writes the result to w, followed by a newline.
func WriteJSON(w io.Writer, fn func(e *jx.Encoder)) error {
	var e jx.Encoder
	e.SetIdent(2)
	fn(&e)
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}
