// Package memmap implements the CPU address space: RAM, video RAM, the
// register window and the bank switched cartridge ROM.
package memmap

import (
	"errors"
	"fmt"

	"svision/emu/log"
	"svision/hw/cart"
	"svision/hw/hwio"
	"svision/hw/snapshot"
	"svision/hw/sound"
	"svision/hw/timer"
)

// ErrInvalidImage is returned by Load for ROM images which size is not a
// positive multiple of 16KB.
var ErrInvalidImage = cart.ErrInvalidImage

// Offsets of the registers, relative to the register window.
const (
	XSIZE = 0x00
	XPOS  = 0x02
	YPOS  = 0x03

	// Generic DMA (extended cartridges only).
	DMASRCLO = 0x08
	DMASRCHI = 0x09
	DMADSTLO = 0x0A
	DMADSTHI = 0x0B
	DMALEN   = 0x0C
	DMACTRL  = 0x0D

	CONTROLS = 0x20
	LINK     = 0x21
	LINKDIR  = 0x22
	TIMER    = 0x23
	TIMERACK = 0x24
	DMAACK   = 0x25
	BANK     = 0x26
	STATUS   = 0x27
)

const regsMask = 0x1fff

// IRQLine receives the level of the CPU interrupt request line.
type IRQLine interface {
	SetIRQ(asserted bool)
}

// MemoryMap is the CPU address space. It owns the timer and the sound
// engine, which registers are mapped in the register window.
type MemoryMap struct {
	Bus *hwio.Table

	RAM    hwio.Mem    `hwio:"offset=0x0000,size=0x2000"`
	IO     hwio.Device `hwio:"offset=0x2000,size=0x2000,rcb,pcb,wcb"`
	VRAM   hwio.Mem    `hwio:"offset=0x4000,size=0x2000"`
	FIXED  hwio.Device `hwio:"offset=0x6000,size=0x2000,rcb,pcb=ReadFIXED"`
	LOBANK hwio.Device `hwio:"offset=0x8000,size=0x4000,rcb,pcb=ReadLOBANK"`
	HIBANK hwio.Device `hwio:"offset=0xC000,size=0x4000,rcb,pcb=ReadHIBANK"`

	regs [0x2000]uint8

	rom      []byte
	extended bool
	lowBank  uint32 // offsets into rom
	highBank uint32

	timerFired  bool
	dmaFinished bool
	dmaBusy     bool
	controls    uint8

	irq   IRQLine
	timer timer.Timer
	sound *sound.Engine
}

// New creates a memory map, with its sound engine rendering at sampleRate.
// irq receives the interrupt request line level; it can be nil.
func New(irq IRQLine, sampleRate int) *MemoryMap {
	m := &MemoryMap{
		Bus:   hwio.NewTable("cpu"),
		irq:   irq,
		sound: sound.New(sampleRate),
	}
	hwio.MustInitRegs(m)
	m.Bus.Unmapped = openBus{}
	m.Bus.MapBank(0x0000, m, 0)
	m.mapROM()
	return m
}

// openBus serves the unmapped areas: the data bus keeps the high byte of the
// address, the last byte the CPU fetched.
type openBus struct{}

func (openBus) Read8(addr uint16) uint8 { return uint8(addr >> 8) }
func (openBus) Peek8(addr uint16) uint8 { return uint8(addr >> 8) }
func (openBus) Write8(uint16, uint8)    {}

// mapROM maps the cartridge areas. Without a ROM they are left to the open
// bus, so is $6000-$7FFF on extended cartridges.
func (m *MemoryMap) mapROM() {
	m.Bus.Unmap(0x6000, 0xA000)
	if len(m.rom) == 0 {
		return
	}
	if !m.extended {
		m.Bus.MapDevice(0x6000, &m.FIXED)
	}
	m.Bus.MapDevice(0x8000, &m.LOBANK)
	m.Bus.MapDevice(0xC000, &m.HIBANK)
}

// Load borrows rom and resets the memory map. On error the memory map is
// left as it was.
func (m *MemoryMap) Load(rom []byte) error {
	if rom == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidImage)
	}
	if err := cart.Validate(len(rom)); err != nil {
		return err
	}

	m.rom = rom
	m.extended = cart.IsExtended(len(rom))
	m.mapROM()
	m.Reset()

	log.ModMem.DebugZ("rom loaded").
		Int("size", len(rom)).
		Bool("extended", m.extended).
		End()
	return nil
}

// Loaded reports whether a ROM has been loaded.
func (m *MemoryMap) Loaded() bool { return m.rom != nil }

func (m *MemoryMap) Reset() {
	clear(m.RAM.Data)
	clear(m.VRAM.Data)
	clear(m.regs[:])

	m.lowBank = 0
	m.highBank = 0
	if len(m.rom) >= cart.BankSize {
		m.highBank = uint32(len(m.rom) - cart.BankSize)
	}

	m.timerFired = false
	m.dmaFinished = false
	m.dmaBusy = false
	m.controls = 0

	m.timer.Reset()
	m.sound.Reset()
}

func (m *MemoryMap) Read8(addr uint16) uint8       { return m.Bus.Read8(addr) }
func (m *MemoryMap) Peek8(addr uint16) uint8       { return m.Bus.Peek8(addr) }
func (m *MemoryMap) Write8(addr uint16, val uint8) { m.Bus.Write8(addr, val) }

// ROM8 reads the ROM at the given offset, wrapped to the ROM size.
func (m *MemoryMap) ROM8(off uint32) uint8 {
	if len(m.rom) == 0 {
		return 0
	}
	return m.rom[off%uint32(len(m.rom))]
}

// ReadFIXED serves $6000-$7FFF with the first 8KB of ROM. It is only mapped
// for normal cartridges.
func (m *MemoryMap) ReadFIXED(addr uint16) uint8 { return m.rom[addr&0x1fff] }

// ReadLOBANK serves the switchable bank at $8000-$BFFF.
func (m *MemoryMap) ReadLOBANK(addr uint16) uint8 {
	return m.rom[m.lowBank+uint32(addr&0x3fff)]
}

// ReadHIBANK serves the fixed last bank at $C000-$FFFF.
func (m *MemoryMap) ReadHIBANK(addr uint16) uint8 {
	return m.rom[m.highBank+uint32(addr&0x3fff)]
}

// updateBank derives the low bank offset from the BANK register. Extended
// cartridges take 4 more bits from the link port, when it is configured as
// output.
func (m *MemoryMap) updateBank() {
	if len(m.rom) == 0 {
		return
	}

	off := uint32(m.regs[BANK]&0xE0) << 9
	if m.extended && m.regs[LINKDIR]&0x80 != 0 {
		off |= uint32(m.regs[LINKDIR]&0x0F) << 15
	}
	m.lowBank = off % uint32(len(m.rom))

	log.ModMem.DebugZ("bank switch").
		Hex8("bank", m.regs[BANK]).
		Hex32("offset", m.lowBank).
		End()
}

// checkIRQ recomputes the interrupt request line.
func (m *MemoryMap) checkIRQ() {
	bank := m.regs[BANK]
	irq := (m.timerFired && hwio.GetBit8(bank, 1)) ||
		(m.dmaFinished && hwio.GetBit8(bank, 2))
	if m.irq != nil {
		m.irq.SetIRQ(irq)
	}
}

// SetControls sets the state of the buttons, 1 bit per pressed button.
func (m *MemoryMap) SetControls(buttons uint8) { m.controls = buttons }

// AdvanceTimer runs the timer for the given number of CPU cycles.
func (m *MemoryMap) AdvanceTimer(cycles int32) {
	if m.timer.Advance(cycles) {
		m.timerFired = true
		m.checkIRQ()
	}
}

// RenderAudio fills buf with interleaved 8-bit unsigned stereo samples.
func (m *MemoryMap) RenderAudio(buf []byte) {
	if m.sound.Render(buf, m) {
		m.dmaFinished = true
		m.checkIRQ()
	}
}

// DecrementSound ticks the sound duration counters, once per frame.
func (m *MemoryMap) DecrementSound() { m.sound.Decrement() }

// Regs returns the raw register storage.
func (m *MemoryMap) Regs() *[0x2000]uint8 { return &m.regs }

func (m *MemoryMap) Timer() *timer.Timer       { return &m.timer }
func (m *MemoryMap) Sound() *sound.Engine      { return m.sound }
func (m *MemoryMap) SampleRate() int           { return m.sound.SampleRate() }
func (m *MemoryMap) VideoRAM() []byte          { return m.VRAM.Data }
func (m *MemoryMap) Register(off uint16) uint8 { return m.regs[off&regsMask] }

// ErrBankOutOfRange is returned by SetState when the stored bank index
// points outside the loaded ROM.
var ErrBankOutOfRange = errors.New("bank index out of range")

func (m *MemoryMap) State(state *snapshot.Memory) {
	state.Regs = m.regs
	copy(state.LowerRAM[:], m.RAM.Data)
	copy(state.UpperRAM[:], m.VRAM.Data)
	state.Bank = uint8(m.lowBank / cart.BankSize)
	state.TimerFired = m.timerFired
	state.DMAFinished = m.dmaFinished
}

// SetState restores the memory map. The low bank comes from the stored
// index, not from the registers.
func (m *MemoryMap) SetState(state *snapshot.Memory) error {
	off := uint32(state.Bank) * cart.BankSize
	if len(m.rom) != 0 && off >= uint32(len(m.rom)) {
		return fmt.Errorf("%w: bank %d, rom has %d banks", ErrBankOutOfRange, state.Bank, len(m.rom)/cart.BankSize)
	}

	m.regs = state.Regs
	copy(m.RAM.Data, state.LowerRAM[:])
	copy(m.VRAM.Data, state.UpperRAM[:])
	m.lowBank = off
	m.timerFired = state.TimerFired
	m.dmaFinished = state.DMAFinished
	return nil
}
