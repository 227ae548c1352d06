package sound

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svision/hw/snapshot"
)

type testBus struct {
	mem [0x10000]uint8
	rom []uint8
}

func (b *testBus) Read8(addr uint16) uint8 { return b.mem[addr] }
func (b *testBus) ROM8(off uint32) uint8   { return b.rom[off%uint32(len(b.rom))] }

func newTestBus() *testBus {
	return &testBus{rom: make([]uint8, 0x8000)}
}

// render returns n stereo frames.
func render(e *Engine, bus Bus, n int) (left, right []uint8, dmaDone bool) {
	buf := make([]byte, 2*n)
	dmaDone = e.Render(buf, bus)
	for i := 0; i < len(buf); i += 2 {
		left = append(left, buf[i])
		right = append(right, buf[i+1])
	}
	return left, right, dmaDone
}

func countNonZero(s []uint8) int {
	n := 0
	for _, v := range s {
		if v != 0 {
			n++
		}
	}
	return n
}

// period 90 gives 32 samples per period at 44100Hz.
const period32 = 90

func TestWaveSize(t *testing.T) {
	e := New(DefaultSampleRate)
	e.WriteWave(0, 0, period32)
	assert.Equal(t, uint16(32), e.waves[0].size)

	// 11 bits are used.
	e.WriteWave(0, 0, 0xFF)
	e.WriteWave(0, 1, 0xFF)
	assert.Equal(t, uint16(float64(DefaultSampleRate)*float64(0x800<<5)/Clock), e.waves[0].size)
	assert.Equal(t, uint16(0), e.waves[0].pos)

	// 5*32 clocks last 1.764 samples, the size is truncated.
	e.WriteWave(0, 1, 0x00)
	e.WriteWave(0, 0, 0x04)
	assert.Equal(t, uint16(1), e.waves[0].size)
}

func TestWaveDuty50(t *testing.T) {
	for vol := uint8(1); vol <= 15; vol++ {
		e := New(DefaultSampleRate)
		bus := newTestBus()

		e.WriteWave(0, 0, period32)
		e.WriteWave(0, 2, 0x40|0x20|vol) // on, 50%

		// The new parameters are committed at the end of the first
		// (silent) period.
		_, right, _ := render(e, bus, 32)
		assert.Equal(t, 0, countNonZero(right), "vol=%d: first period", vol)

		left, right, _ := render(e, bus, 32)
		assert.Equal(t, 16, countNonZero(right), "vol=%d", vol)
		assert.Equal(t, 0, countNonZero(left), "vol=%d: channel 0 is right only", vol)
		for i := range 16 {
			assert.Equal(t, vol, right[i])
		}
	}
}

func TestWaveDutyThresholds(t *testing.T) {
	tests := []struct {
		duty uint8
		high int
	}{
		{0, 28},
		{1, 24},
		{2, 16},
		{3, 8},
	}
	for _, tt := range tests {
		e := New(DefaultSampleRate)
		bus := newTestBus()
		e.WriteWave(1, 0, period32)
		e.WriteWave(1, 2, 0x40|tt.duty<<4|0x0F)
		render(e, bus, 32)

		left, right, _ := render(e, bus, 32)
		assert.Equal(t, tt.high, countNonZero(left), "duty=%d", tt.duty)
		assert.Equal(t, 0, countNonZero(right), "duty=%d: channel 1 is left only", tt.duty)
	}
}

func playing(t *testing.T) (*Engine, Bus) {
	t.Helper()

	e := New(DefaultSampleRate)
	bus := newTestBus()
	e.WriteWave(0, 0, period32)
	e.WriteWave(0, 2, 0x40|0x20|0x0F)
	render(e, bus, 32)
	require.True(t, e.committed[0].on)
	require.False(t, e.waves[0].on)
	return e, bus
}

func TestWaveChangeDeferredToPeriodEnd(t *testing.T) {
	e, bus := playing(t)

	_, right, _ := render(e, bus, 8)
	assert.Equal(t, []uint8{15, 15, 15, 15, 15, 15, 15, 15}, right)

	// Mid-period volume change: queued until the period ends.
	e.WriteWave(0, 2, 0x40|0x20|0x07)
	_, right, _ = render(e, bus, 8)
	assert.Equal(t, []uint8{15, 15, 15, 15, 15, 15, 15, 15}, right)

	_, right, _ = render(e, bus, 16)
	assert.Equal(t, 0, countNonZero(right))

	_, right, _ = render(e, bus, 16)
	for _, v := range right {
		assert.Equal(t, uint8(7), v)
	}
}

func TestWaveSwitchOffIsImmediate(t *testing.T) {
	e, bus := playing(t)

	render(e, bus, 4)
	e.WriteWave(0, 2, 0x20|0x0F) // off
	_, right, _ := render(e, bus, 64)
	assert.Equal(t, 0, countNonZero(right))
}

func TestWaveOffKeepsPhaseWhileCounting(t *testing.T) {
	e, bus := playing(t)

	e.WriteWave(0, 3, 10)
	render(e, bus, 5)
	e.WriteWave(0, 2, 0x20|0x0F)
	assert.Equal(t, uint16(5), e.committed[0].pos)

	// Still counting: the channel keeps sounding although it's off.
	_, right, _ := render(e, bus, 11)
	assert.Equal(t, 11, countNonZero(right))
}

func TestWaveDuration(t *testing.T) {
	e := New(DefaultSampleRate)
	bus := newTestBus()

	e.WriteWave(0, 0, period32)
	e.WriteWave(0, 2, 0x20|0x0F) // off: committed immediately
	e.WriteWave(0, 3, 1)         // 2 frames

	_, right, _ := render(e, bus, 32)
	assert.Equal(t, 16, countNonZero(right))

	e.Decrement()
	_, right, _ = render(e, bus, 32)
	assert.Equal(t, 16, countNonZero(right))

	e.Decrement()
	_, right, _ = render(e, bus, 32)
	assert.Equal(t, 0, countNonZero(right))

	// Floors at 0.
	e.Decrement()
	assert.Equal(t, uint16(0), e.waves[0].count)
}

func TestWaveSizeChangeWhileCounting(t *testing.T) {
	e := New(DefaultSampleRate)
	e.WriteWave(0, 0, period32)
	e.WriteWave(0, 3, 5)
	e.committed[0].pos = 10

	// Counting: the period change applies right away, keeping the phase.
	e.WriteWave(0, 0, 2*period32+1)
	assert.Equal(t, e.waves[0].size, e.committed[0].size)
	assert.Equal(t, uint16(10), e.committed[0].pos)
}

func TestNoiseLFSR7(t *testing.T) {
	nc := noiseChannel{typ: noiseShort, state: 1}

	var out []uint8
	for range 3 * 127 {
		nc.clock()
		require.NotZero(t, nc.state, "LFSR locked up")
		require.Less(t, nc.state, uint16(0x80))
		out = append(out, nc.value)
	}
	assert.Equal(t, uint16(1), nc.state, "period should divide 127")
	for i := 127; i < len(out); i++ {
		assert.Equal(t, out[i-127], out[i], "output not periodic at %d", i)
	}
}

func TestNoiseLFSR15(t *testing.T) {
	nc := noiseChannel{typ: noiseLong, state: 1}
	for i := range 32767 {
		nc.clock()
		require.NotZero(t, nc.state)
		if i < 32766 {
			require.NotEqual(t, uint16(1), nc.state, "short period %d", i+1)
		}
	}
	assert.Equal(t, uint16(1), nc.state)
}

func TestNoiseWrites(t *testing.T) {
	e := New(DefaultSampleRate)
	e.noise.pos = 0.5

	e.WriteNoise(0, 0x3A)
	assert.Equal(t, uint8(0x0A), e.noise.volume)
	assert.InDelta(t, float64(Clock)/(DefaultSampleRate*64), e.noise.step, 1e-12)
	assert.Zero(t, e.noise.pos)

	e.WriteNoise(1, 9)
	assert.Equal(t, uint16(10), e.noise.count)

	e.WriteNoise(2, 0x1F)
	assert.Equal(t, noiseChannel{
		reg:    [3]uint8{0x3A, 9, 0x1F},
		on:     true,
		right:  true,
		left:   true,
		play:   true,
		typ:    noiseLong,
		state:  1,
		volume: 0x0A,
		count:  10,
		step:   e.noise.step,
	}, e.noise)
}

func TestNoiseOutput(t *testing.T) {
	e := New(DefaultSampleRate)
	bus := newTestBus()

	// divisor 8: 500KHz LFSR clock, ~11 shifts per sample.
	e.WriteNoise(0, 0x0F)
	e.WriteNoise(2, 0x18) // on, left only, 7-bit, not continuous

	// Silent until count is set.
	left, _, _ := render(e, bus, 100)
	assert.Equal(t, 0, countNonZero(left))

	e.WriteNoise(1, 0)
	left, right, _ := render(e, bus, 200)
	assert.Equal(t, 0, countNonZero(right))
	assert.NotZero(t, countNonZero(left))
	for _, v := range left {
		assert.Contains(t, []uint8{0, 15}, v)
	}

	e.Decrement()
	left, _, _ = render(e, bus, 100)
	assert.Equal(t, 0, countNonZero(left))
}

func TestDMAPlayback(t *testing.T) {
	// At 15625Hz, the DMA step is exactly one 4-bit sample per output
	// sample with the fastest rate.
	e := New(15625)
	bus := newTestBus()
	for i := range 16 {
		bus.mem[0x0200+i] = uint8(i<<4 | (15 - i))
	}

	e.WriteDMA(0, 0x00)
	e.WriteDMA(1, 0x02)
	e.WriteDMA(2, 1)    // 32 samples
	e.WriteDMA(3, 0x08) // left only
	e.WriteDMA(4, 0x80)
	require.Equal(t, 1.0, e.dma.step)

	left, right, done := render(e, bus, 31)
	assert.False(t, done)
	assert.Equal(t, 0, countNonZero(right))
	for i := range 30 {
		b := bus.mem[0x0200+i/2]
		want := b >> 4
		if i&1 != 0 {
			want = b & 0x0f
		}
		assert.Equal(t, want, left[i], "sample %d", i)
	}

	_, _, done = render(e, bus, 1)
	assert.True(t, done)
	assert.False(t, e.dma.on)

	// Stopped channel stays silent.
	left, _, done = render(e, bus, 10)
	assert.False(t, done)
	assert.Equal(t, 0, countNonZero(left))
}

func TestDMAFromROMBank(t *testing.T) {
	e := New(15625)
	bus := newTestBus()
	bus.rom[0x4000+0x10] = 0x9C

	e.WriteDMA(0, 0x10)
	e.WriteDMA(1, 0x80)
	e.WriteDMA(2, 1)
	e.WriteDMA(3, 0x14) // bank 1, right only
	e.WriteDMA(4, 0x80)
	assert.Equal(t, uint32(0x4000), e.dma.ca14to16)

	_, right, _ := render(e, bus, 2)
	assert.Equal(t, []uint8{0x9, 0xC}, right)
}

func TestDMASizeZeroIs256(t *testing.T) {
	e := New(DefaultSampleRate)
	e.WriteDMA(2, 0)
	assert.Equal(t, uint16(256*32), e.dma.size)
}

func TestRenderOverwrites(t *testing.T) {
	e := New(DefaultSampleRate)
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	e.Render(buf, newTestBus())
	assert.Equal(t, make([]byte, 8), buf)
}

func TestStateRoundTrip(t *testing.T) {
	e, bus := playing(t)
	e.WriteWave(0, 2, 0x40|0x10|0x03)
	e.WriteWave(1, 0, 0x20)
	e.WriteWave(1, 3, 4)
	e.WriteNoise(0, 0x21)
	e.WriteNoise(1, 3)
	e.WriteNoise(2, 0x1C)
	e.WriteDMA(2, 2)
	e.WriteDMA(3, 0x0D)
	e.WriteDMA(4, 0x80)
	render(e, bus, 37)

	var st snapshot.Sound
	e.State(&st)

	e2 := New(DefaultSampleRate)
	e2.SetState(&st)

	var st2 snapshot.Sound
	e2.State(&st2)
	if diff := cmp.Diff(st, st2); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}

	for range 10 {
		l1, r1, d1 := render(e, bus, 300)
		l2, r2, d2 := render(e2, bus, 300)
		require.Equal(t, l1, l2)
		require.Equal(t, r1, r2)
		require.Equal(t, d1, d2)
		e.Decrement()
		e2.Decrement()
	}
}
