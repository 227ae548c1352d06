package sound

import (
	"svision/emu/log"
	"svision/hw/snapshot"
)

// waveChannel is a square wave generator.
//
// Parameter writes land in the live copy (Engine.waves). The committed copy
// (Engine.committed) is what Render plays, it catches up with the live copy
// at the end of the current period, unless the write happens while the
// channel is silent.
type waveChannel struct {
	reg      [4]uint8
	on       bool
	waveform uint8 // duty cycle selector
	volume   uint8
	pos      uint16 // position in the period, in samples
	size     uint16 // period length, in samples
	count    uint16 // remaining duration, in frames
}

// WriteWave handles a write to one of the 4 registers of wave channel which.
func (e *Engine) WriteWave(which, offset int, val uint8) {
	live := &e.waves[which]
	cur := &e.committed[which]

	live.reg[offset] = val
	switch offset {
	case 0, 1:
		n := uint16(live.reg[0]) | uint16(live.reg[1]&7)<<8
		// The period in samples is truncated, not rounded.
		live.size = uint16(e.rate * float64((uint32(n)+1)<<5) / e.clock)
		live.pos = 0

		if live.count != 0 || cur.size == 0 || live.size == 0 {
			cur.size = live.size
			if live.count == 0 {
				cur.pos = 0
			}
		}

	case 2:
		live.on = boolBit(val, 0x40)
		live.waveform = (val & 0x30) >> 4
		live.volume = val & 0x0f

		if !live.on || cur.size == 0 || live.size == 0 {
			pos := cur.pos
			*cur = *live
			if live.count != 0 {
				cur.pos = pos
			}
		}

	case 3:
		live.count = uint16(val) + 1
		cur.size = live.size
	}

	log.ModSound.DebugZ("write wave").
		Int("ch", which).
		Int("reg", offset).
		Hex8("val", val).
		Uint16("size", live.size).
		Uint16("count", live.count).
		End()
}

// high reports whether the channel output is high at its current position.
func (ch *waveChannel) high() bool {
	size := int(ch.size)
	pos := int(ch.pos)
	switch ch.waveform {
	case 0: // 12.5%
		return pos < (28*size)>>5
	case 1: // 25%
		return pos < (24*size)>>5
	case 2: // 50%
		return pos < size/2
	case 3: // 75%
		return pos < size/4
	}
	return false
}

// waveSample returns the output of wave channel j for one sample and
// advances its position.
func (e *Engine) waveSample(j int) uint8 {
	live := &e.waves[j]
	cur := &e.committed[j]

	if cur.size == 0 {
		return 0
	}

	var s uint8
	if (cur.on || live.count != 0) && cur.high() {
		s = cur.volume
	}

	cur.pos++
	if cur.pos >= cur.size {
		cur.pos = 0
		if live.on {
			*cur = *live
			live.on = false
		}
	}
	return s
}

func (ch *waveChannel) saveState(state *snapshot.Wave) {
	*state = snapshot.Wave{
		Reg:      ch.reg,
		On:       ch.on,
		Waveform: ch.waveform,
		Volume:   ch.volume,
		Pos:      ch.pos,
		Size:     ch.size,
		Count:    ch.count,
	}
}

func (ch *waveChannel) setState(state *snapshot.Wave) {
	*ch = waveChannel{
		reg:      state.Reg,
		on:       state.On,
		waveform: state.Waveform,
		volume:   state.Volume,
		pos:      state.Pos,
		size:     state.Size,
		count:    state.Count,
	}
}
