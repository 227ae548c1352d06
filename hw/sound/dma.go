package sound

import (
	"svision/emu/log"
	"svision/hw/snapshot"
)

// dmaChannel plays 4-bit samples fetched from memory, high nibble first.
type dmaChannel struct {
	reg      [5]uint8
	on       bool
	right    bool
	left     bool
	ca14to16 uint32 // ROM bank bits for fetches in $8000-$BFFF
	start    uint16
	size     uint16 // in 4-bit samples
	pos      float64
	step     float64
}

// WriteDMA handles a write to one of the 5 audio DMA registers.
func (e *Engine) WriteDMA(offset int, val uint8) {
	dc := &e.dma

	dc.reg[offset] = val
	switch offset {
	case 0, 1:
		dc.start = uint16(dc.reg[0]) | uint16(dc.reg[1])<<8
	case 2:
		n := uint16(val)
		if n == 0 {
			n = 0x100
		}
		dc.size = n * 32
	case 3:
		dc.step = e.clock / (e.rate * float64(uint32(256)<<(val&3)))
		dc.right = boolBit(val, 0x04)
		dc.left = boolBit(val, 0x08)
		dc.ca14to16 = uint32((val&0x70)>>4) << 14
	case 4:
		dc.on = boolBit(val, 0x80)
		if dc.on {
			dc.pos = 0
		}
	}

	log.ModSound.DebugZ("write dma").
		Int("reg", offset).
		Hex8("val", val).
		Hex16("start", dc.start).
		Uint16("size", dc.size).
		Bool("on", dc.on).
		End()
}

// sample returns the next 4-bit sample and whether the transfer completed.
func (dc *dmaChannel) sample(bus Bus) (uint8, bool) {
	ipos := uint16(dc.pos)
	addr := dc.start + ipos/2

	var b uint8
	if addr >= 0x8000 && addr < 0xC000 {
		b = bus.ROM8(uint32(addr&0x3fff) | dc.ca14to16)
	} else {
		b = bus.Read8(addr)
	}

	var s uint8
	if ipos&1 != 0 {
		s = b & 0x0f
	} else {
		s = b >> 4
	}

	dc.pos += dc.step
	if dc.pos >= float64(dc.size) {
		dc.on = false
		return s, true
	}
	return s, false
}

func (dc *dmaChannel) saveState(state *snapshot.DMA) {
	*state = snapshot.DMA{
		Reg:      dc.reg,
		On:       dc.on,
		Right:    dc.right,
		Left:     dc.left,
		CA14to16: dc.ca14to16,
		Start:    dc.start,
		Size:     dc.size,
		Pos:      dc.pos,
		Step:     dc.step,
	}
}

func (dc *dmaChannel) setState(state *snapshot.DMA) {
	*dc = dmaChannel{
		reg:      state.Reg,
		on:       state.On,
		right:    state.Right,
		left:     state.Left,
		ca14to16: state.CA14to16,
		start:    state.Start,
		size:     state.Size,
		pos:      state.Pos,
		step:     state.Step,
	}
}
