package sound

import (
	"svision/emu/log"
	"svision/hw/snapshot"
)

const (
	noiseShort = 6  // 7-bit LFSR
	noiseLong  = 14 // 15-bit LFSR
)

// noiseChannel outputs the low bit of a linear feedback shift register
// (polynomial x^2 + x + 1), clocked at 4MHz / (8 << divisor).
type noiseChannel struct {
	reg    [3]uint8
	on     bool
	right  bool
	left   bool
	play   bool  // play continuously, ignoring count
	typ    uint8 // feedback shift, noiseShort or noiseLong
	state  uint16
	value  uint8 // current output bit
	volume uint8
	count  uint16
	pos    float64
	step   float64
}

// WriteNoise handles a write to one of the 3 noise registers.
func (e *Engine) WriteNoise(offset int, val uint8) {
	nc := &e.noise

	nc.reg[offset] = val
	switch offset {
	case 0:
		divisor := uint32(8) << (val >> 4)
		nc.step = e.clock / (e.rate * float64(divisor))
		nc.volume = val & 0x0f
	case 1:
		nc.count = uint16(val) + 1
	case 2:
		nc.typ = noiseShort
		if boolBit(val, 0x01) {
			nc.typ = noiseLong
		}
		nc.play = boolBit(val, 0x02)
		nc.right = boolBit(val, 0x04)
		nc.left = boolBit(val, 0x08)
		nc.on = boolBit(val, 0x10)
		nc.state = 1
	}
	nc.pos = 0

	log.ModSound.DebugZ("write noise").
		Int("reg", offset).
		Hex8("val", val).
		Float("step", nc.step).
		End()
}

// clock advances the LFSR once.
func (nc *noiseChannel) clock() {
	nc.value = uint8(nc.state & 1)
	feedback := ((nc.state >> 1) ^ nc.state) & 1
	nc.state = nc.state>>1 | feedback<<nc.typ
}

// sample returns the noise output for one sample, 0 when silent, and
// advances the LFSR as many times as the elapsed time requires.
func (nc *noiseChannel) sample() uint8 {
	if !nc.on || (!nc.play && nc.count == 0) {
		return 0
	}

	s := nc.value * nc.volume
	nc.pos += nc.step
	for nc.pos >= 1.0 {
		nc.clock()
		nc.pos -= 1.0
	}
	return s
}

func (nc *noiseChannel) saveState(state *snapshot.Noise) {
	*state = snapshot.Noise{
		Reg:    nc.reg,
		On:     nc.on,
		Right:  nc.right,
		Left:   nc.left,
		Play:   nc.play,
		Type:   nc.typ,
		State:  nc.state,
		Value:  nc.value,
		Volume: nc.volume,
		Count:  nc.count,
		Pos:    nc.pos,
		Step:   nc.step,
	}
}

func (nc *noiseChannel) setState(state *snapshot.Noise) {
	*nc = noiseChannel{
		reg:    state.Reg,
		on:     state.On,
		right:  state.Right,
		left:   state.Left,
		play:   state.Play,
		typ:    state.Type,
		state:  state.State,
		value:  state.Value,
		volume: state.Volume,
		count:  state.Count,
		pos:    state.Pos,
		step:   state.Step,
	}
}
