package emu

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svision/emu/log"
	"svision/hw"
	"svision/hw/cart"
	"svision/hw/gpu"
	"svision/hw/input"
)

func testImage(tb testing.TB, size int) *cart.Image {
	tb.Helper()

	rom := make([]byte, size)
	for i := range rom {
		rom[i] = byte(i >> 3)
	}
	// Vectors in the last bank.
	copy(rom[size-6:], []byte{0x00, 0xE0, 0x10, 0xE0, 0x20, 0xE0})

	img := &cart.Image{Path: "test.sv"}
	_, err := img.ReadFrom(bytes.NewReader(rom))
	require.NoError(tb, err)
	return img
}

func newTestEmulator(tb testing.TB) *Emulator {
	tb.Helper()
	log.Disable()

	e, err := New(testImage(tb, 0x8000), DefaultConfig(), NewHaltedCPU)
	require.NoError(tb, err)
	return e
}

func TestSamplesInFrame(t *testing.T) {
	for _, rate := range []int{8000, 22050, 44100, 48000} {
		total := 0
		for f := range 1000 {
			n := samplesInFrame(f, rate)
			require.InDelta(t, float64(rate)*65536/4e6, n, 1)
			total += n
		}
		assert.Equal(t, int(int64(1000)*65536*int64(rate)/4000000), total, "rate %d", rate)
	}
}

func TestHaltedCPU(t *testing.T) {
	cpu := NewHaltedCPU(nil).(*HaltedCPU)
	cpu.Reset()
	assert.Equal(t, uint8(0xFD), cpu.Registers().S)

	assert.Equal(t, int32(256), cpu.Run(256))
	assert.Equal(t, int64(256), cpu.Cycles)

	regs := cpu.Registers()
	regs.A = 0x42
	regs.SetPC(0xE010)
	cpu.SetRegisters(regs)
	cpu.Run(1000)
	assert.Equal(t, regs, cpu.Registers())

	cpu.AssertNMI()
	cpu.SetIRQ(true)
	assert.Equal(t, 1, cpu.NMIs)
	assert.True(t, cpu.IRQ)
}

func TestRun(t *testing.T) {
	e := newTestEmulator(t)
	dir := t.TempDir()

	mem := e.Machine.Memory()
	mem.Write8(0x2000, gpu.Width) // XSIZE
	mem.Write8(0x2026, 0x01)      // NMI
	for i := range 0x2000 {
		mem.Write8(0x4000+uint16(i), uint8(i))
	}
	// A tone on the right channel.
	mem.Write8(0x2010, 0x40)
	mem.Write8(0x2011, 0x00)
	mem.Write8(0x2012, 0x6f)

	opts := Options{
		Frames:     5,
		WAVPath:    filepath.Join(dir, "out.wav"),
		FramesPath: filepath.Join(dir, "out.raw"),
		SaveState:  filepath.Join(dir, "out.svst"),
		Input: input.Script{Events: []input.Event{
			{Frame: 0, Buttons: 1 << input.Start},
			{Frame: 2, Buttons: 0},
		}},
	}
	sum, err := e.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Frames)
	assert.Equal(t, 5, sum.NMIs)
	assert.Equal(t, opts.SaveState, sum.State)
	assert.NotZero(t, sum.Checksum)

	raw, err := os.ReadFile(opts.FramesPath)
	require.NoError(t, err)
	assert.Len(t, raw, 5*gpu.Width*gpu.Height*2)

	wav, err := os.ReadFile(opts.WAVPath)
	require.NoError(t, err)
	require.Greater(t, len(wav), 44)
	assert.Equal(t, "RIFF", string(wav[:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.InDelta(t, 5*44100*65536/4e6, sum.Samples, 20)

	st, err := ReadStateFile(opts.SaveState)
	require.NoError(t, err)
	assert.Equal(t, e.Machine.State(), st)
}

func TestRunFromState(t *testing.T) {
	e := newTestEmulator(t)
	dir := t.TempDir()
	state := filepath.Join(dir, "start.svst")

	mem := e.Machine.Memory()
	mem.Write8(0x2000, gpu.Width)
	mem.Write8(0x4000, 0xff)
	require.NoError(t, e.Machine.SaveStateFile(state, -1))

	ref, err := e.Run(context.Background(), Options{Frames: 3})
	require.NoError(t, err)

	e2 := newTestEmulator(t)
	sum, err := e2.Run(context.Background(), Options{Frames: 3, LoadState: state})
	require.NoError(t, err)
	assert.Equal(t, ref.Checksum, sum.Checksum)

	_, err = e2.Run(context.Background(), Options{Frames: 1, LoadState: filepath.Join(dir, "missing")})
	require.ErrorIs(t, err, hw.ErrStateIO)
}

func TestRunCancel(t *testing.T) {
	e := newTestEmulator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, Options{Frames: 10, FramesPath: filepath.Join(t.TempDir(), "f.raw")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestResampler(t *testing.T) {
	rs := NewResampler(44100, 22050, 1470)

	buf := make([]byte, 2*735)
	for i := range buf {
		buf[i] = 15
	}

	total := 0
	for range 10 {
		total += len(rs.Process(buf)) / 2
	}
	assert.InDelta(t, 10*735/2, total, 4)

	rs.Reset()
	out := rs.Process(make([]byte, 2*735))
	for i, s := range out {
		require.Zero(t, s, "sample %d", i)
	}
}

func TestRomInfosJSON(t *testing.T) {
	img := testImage(t, 0x40000)

	var e jx.Encoder
	EncodeRomInfos(&e, img.Path, img.Infos())

	got := map[string]any{}
	err := jx.DecodeBytes(e.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "size", "banks":
			n, err := d.Int()
			got[key] = n
			return err
		case "extended":
			b, err := d.Bool()
			got[key] = b
			return err
		case "core", "path":
			s, err := d.Str()
			got[key] = s
			return err
		case "vectors":
			return d.Obj(func(d *jx.Decoder, key string) error {
				v, err := d.UInt16()
				got["vec_"+key] = v
				return err
			})
		}
		return d.Skip()
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"core":      hw.Version,
		"path":      "test.sv",
		"size":      0x40000,
		"banks":     16,
		"extended":  true,
		"vec_nmi":   uint16(0xE000),
		"vec_reset": uint16(0xE010),
		"vec_irq":   uint16(0xE020),
	}, got)
}

func TestStateInfosJSON(t *testing.T) {
	e := newTestEmulator(t)
	e.Machine.Memory().Write8(0x2026, 0x20)

	var enc jx.Encoder
	EncodeStateInfos(&enc, e.Machine.State())

	var bank uint8
	err := jx.DecodeBytes(enc.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		if key == "bank" {
			var err error
			bank, err = d.UInt8()
			return err
		}
		return d.Skip()
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), bank)
}
