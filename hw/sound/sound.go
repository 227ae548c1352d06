// Package sound implements the sound generator: two square wave channels, a
// noise channel and a 4-bit PCM DMA channel, mixed into 8-bit unsigned
// interleaved stereo samples.
package sound

import (
	"svision/emu/log"
	"svision/hw/snapshot"
)

const (
	// Clock is the unscaled sound hardware clock, in Hz.
	Clock = 4000000

	// DefaultSampleRate is the output rate, in Hz, used when none is given.
	DefaultSampleRate = 44100
)

// Bus gives the DMA channel access to sample data.
type Bus interface {
	// Read8 reads through the CPU address space.
	Read8(addr uint16) uint8
	// ROM8 reads the cartridge ROM at the given linear offset.
	ROM8(off uint32) uint8
}

type Engine struct {
	clock float64
	rate  float64

	// waves holds the channel parameters as last written by the CPU,
	// committed the ones currently heard.
	waves     [2]waveChannel
	committed [2]waveChannel

	noise noiseChannel
	dma   dmaChannel
}

// New returns a sound engine producing samples at the given rate (in Hz).
func New(rate int) *Engine {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Engine{
		clock: Clock,
		rate:  float64(rate),
	}
}

func (e *Engine) SampleRate() int { return int(e.rate) }

func (e *Engine) Reset() {
	e.waves = [2]waveChannel{}
	e.committed = [2]waveChannel{}
	e.noise = noiseChannel{}
	e.dma = dmaChannel{}
}

// Render fills buf with interleaved left/right samples. len(buf) must be
// even, the whole buffer is overwritten. Channels are summed with 8-bit
// wraparound. Render reports whether the DMA channel reached the end of its
// transfer.
func (e *Engine) Render(buf []byte, bus Bus) (dmaFinished bool) {
	for i := 0; i+1 < len(buf); i += 2 {
		var left, right uint8

		right += e.waveSample(0)
		left += e.waveSample(1)

		n := e.noise.sample()
		if e.noise.left {
			left += n
		}
		if e.noise.right {
			right += n
		}

		if e.dma.on {
			d, done := e.dma.sample(bus)
			if e.dma.left {
				left += d
			}
			if e.dma.right {
				right += d
			}
			if done {
				dmaFinished = true
				log.ModSound.DebugZ("dma finished").
					Hex16("start", e.dma.start).
					Uint16("size", e.dma.size).
					End()
			}
		}

		buf[i] = left
		buf[i+1] = right
	}
	return dmaFinished
}

// Decrement ticks the duration counters of the wave and noise channels. It
// is called once per video frame.
func (e *Engine) Decrement() {
	for i := range e.waves {
		if e.waves[i].count > 0 {
			e.waves[i].count--
		}
	}
	if e.noise.count > 0 {
		e.noise.count--
	}
}

func (e *Engine) State(state *snapshot.Sound) {
	for i := range e.waves {
		e.waves[i].saveState(&state.Wave[i])
		e.committed[i].saveState(&state.Committed[i])
	}
	e.noise.saveState(&state.Noise)
	e.dma.saveState(&state.DMA)
}

func (e *Engine) SetState(state *snapshot.Sound) {
	e.Reset()
	for i := range e.waves {
		e.waves[i].setState(&state.Wave[i])
		e.committed[i].setState(&state.Committed[i])
	}
	e.noise.setState(&state.Noise)
	e.dma.setState(&state.DMA)
}

func boolBit(v, mask uint8) bool { return v&mask != 0 }
