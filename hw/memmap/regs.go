package memmap

import (
	"svision/emu/log"
	"svision/hw/hwio"
)

// ReadIO reads a register. Most registers read back their last written
// value; a few overlay live hardware state, and reading the acknowledge
// registers clears the matching interrupt source.
func (m *MemoryMap) ReadIO(addr uint16) uint8 {
	a := addr & regsMask
	switch a {
	case TIMERACK:
		m.timerFired = false
		m.checkIRQ()
	case DMAACK:
		m.dmaFinished = false
		m.checkIRQ()
	}
	return m.PeekIO(addr)
}

// PeekIO is ReadIO without the acknowledge side effects.
func (m *MemoryMap) PeekIO(addr uint16) uint8 {
	a := addr & regsMask
	val := m.regs[a]

	switch a {
	case CONTROLS:
		return m.controls ^ 0xff
	case LINK:
		if !m.extended || m.regs[LINKDIR]&0x80 == 0 {
			val = val&0xf0 | m.regs[LINKDIR]&0x0f
		}
	case STATUS:
		val &^= 0x03
		if m.timerFired {
			val |= 0x01
		}
		if m.dmaFinished {
			val |= 0x02
		}
	}
	return val
}

// WriteIO writes a register. The value is always stored, then dispatched to
// the device the register belongs to.
func (m *MemoryMap) WriteIO(addr uint16, val uint8) {
	a := addr & regsMask
	m.regs[a] = val

	switch {
	case a == TIMER:
		m.timer.Write(val, hwio.GetBit8(m.regs[BANK], 4))
	case a == BANK:
		m.updateBank()
		m.checkIRQ()
	case a >= 0x10 && a <= 0x17:
		m.sound.WriteWave(int(a&4)>>2, int(a&3), val)
	case a >= 0x18 && a <= 0x1c:
		m.sound.WriteDMA(int(a&7), val)
	case a >= 0x28 && a <= 0x2a:
		m.sound.WriteNoise(int(a&7), val)
	case m.extended && (a == LINK || a == LINKDIR):
		m.updateBank()
	case m.extended && a == DMACTRL:
		// A trigger written by the transfer itself is stored but ignored.
		if val&0x80 != 0 && !m.dmaBusy {
			m.dmaBusy = true
			m.runDMA()
			m.dmaBusy = false
			m.regs[DMACTRL] &^= 0x80
		}
	}
}

// runDMA performs a generic DMA transfer between the CPU address space and
// video RAM. The transfer is synchronous and goes through the bus, so it
// sees memory exactly as the CPU does.
func (m *MemoryMap) runDMA() {
	src := hwio.Make16(m.regs[DMASRCLO], m.regs[DMASRCHI])
	dst := hwio.Make16(m.regs[DMADSTLO], m.regs[DMADSTHI]) & 0x1fff
	toMem := hwio.GetBit8(m.regs[DMADSTHI], 7)

	length := int(m.regs[DMALEN]) * 16
	if length == 0 {
		length = 4096
	}

	log.ModDMA.DebugZ("generic dma").
		Hex16("src", src).
		Hex16("dst", dst).
		Bool("to_mem", toMem).
		Int("len", length).
		End()

	for i := range length {
		vaddr := 0x4000 | (dst+uint16(i))&0x1fff
		maddr := src + uint16(i)
		if toMem {
			m.Bus.Write8(maddr, m.Bus.Read8(vaddr))
		} else {
			m.Bus.Write8(vaddr, m.Bus.Read8(maddr))
		}
	}
}
