// Package hw ties the hardware components together into a Machine, driven
// one video frame at a time.
package hw

import (
	"errors"
	"fmt"

	"svision/emu/log"
	"svision/hw/gpu"
	"svision/hw/input"
	"svision/hw/memmap"
	"svision/hw/snapshot"
)

// Version is the version of the emulation core.
const Version = "1.0.2"

const (
	// CyclesPerSlice is the CPU budget between two timer updates.
	CyclesPerSlice = 256
	// SlicesPerFrame is the number of CPU slices in a video frame.
	SlicesPerFrame = 256

	// VRAM offset at which scanning wraps back to the start.
	scanWrap = 0x1fe0
)

var (
	ErrInvalidImage = memmap.ErrInvalidImage
	ErrCorruptState = snapshot.ErrCorruptState

	ErrNoCartridge      = errors.New("no cartridge loaded")
	ErrShortFrameBuffer = errors.New("frame buffer too small")
)

// Bus is the CPU view of the address space.
type Bus interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// CPU is the contract the external 65C02 interpreter must fulfill. The
// interpreter performs all its memory accesses through the Bus it is created
// with.
type CPU interface {
	Reset()
	// Run executes instructions for the given cycle budget and returns the
	// number of cycles consumed.
	Run(cycles int32) int32
	AssertNMI()
	SetIRQ(asserted bool)

	Registers() snapshot.CPU
	SetRegisters(snapshot.CPU)
}

// Machine is the console: memory map, GPU and CPU. A Machine must not be
// used concurrently.
type Machine struct {
	mem *memmap.MemoryMap
	gpu *gpu.GPU
	cpu CPU

	irq bool // interrupt request line, as last set by the memory map
}

// NewMachine creates a machine which CPU is created by newCPU, and which
// sound engine renders samples at sampleRate (0 means the default rate).
func NewMachine(newCPU func(Bus) CPU, sampleRate int) *Machine {
	m := &Machine{gpu: gpu.New()}
	m.mem = memmap.New(m, sampleRate)
	m.cpu = newCPU(m.mem)
	return m
}

// SetIRQ implements memmap.IRQLine.
func (m *Machine) SetIRQ(asserted bool) {
	m.irq = asserted
	if m.cpu != nil {
		m.cpu.SetIRQ(asserted)
	}
}

// Load borrows rom and resets the machine. On error the machine is left
// untouched.
func (m *Machine) Load(rom []byte) error {
	if err := m.mem.Load(rom); err != nil {
		return err
	}
	m.Reset()
	return nil
}

func (m *Machine) Loaded() bool { return m.mem.Loaded() }

// Reset performs a power cycle. The color mapping and scheme are kept, ghosting
// history is cleared.
func (m *Machine) Reset() {
	m.mem.Reset()
	m.gpu.SetGhosting(m.gpu.Ghosting())
	m.cpu.Reset()
	m.irq = false

	log.ModEmu.DebugZ("machine reset").End()
}

// RunFrame emulates one video frame and renders it into fb, a buffer of at
// least 160 rows of stride pixels. A nil fb skips rendering.
func (m *Machine) RunFrame(fb []uint16, stride int) error {
	if !m.mem.Loaded() {
		return ErrNoCartridge
	}
	if fb != nil && (stride < gpu.Width || len(fb) < (gpu.Height-1)*stride+gpu.Width) {
		return fmt.Errorf("%w: %d pixels with stride %d", ErrShortFrameBuffer, len(fb), stride)
	}

	for range SlicesPerFrame {
		m.cpu.Run(CyclesPerSlice)
		m.mem.AdvanceTimer(CyclesPerSlice)
	}

	if fb != nil {
		m.renderFrame(fb, stride)
	}

	if m.mem.Register(memmap.BANK)&0x01 != 0 {
		m.cpu.AssertNMI()
	}

	m.mem.DecrementSound()
	return nil
}

func (m *Machine) renderFrame(fb []uint16, stride int) {
	regs := m.mem.Regs()
	vram := m.mem.VideoRAM()

	scan := int(regs[memmap.XPOS])/4 + int(regs[memmap.YPOS])*gpu.BytesPerLine
	innerX := regs[memmap.XPOS] & 3
	width := min(regs[memmap.XSIZE], gpu.Width)

	for y := range gpu.Height {
		if scan >= scanWrap {
			scan -= scanWrap
		}
		m.gpu.RenderScanline(vram, scan, fb[y*stride:], innerX, width)
		scan += gpu.BytesPerLine
	}
}

// RenderAudio fills buf with interleaved unsigned 8-bit stereo samples (left
// first). len(buf) must be even.
func (m *Machine) RenderAudio(buf []byte) { m.mem.RenderAudio(buf) }

// SampleRate is the rate, in Hz, of the samples produced by RenderAudio.
func (m *Machine) SampleRate() int { return m.mem.SampleRate() }

// SetInput sets the state of the buttons.
func (m *Machine) SetInput(buttons input.State) { m.mem.SetControls(uint8(buttons)) }

func (m *Machine) SetColorScheme(cs gpu.ColorScheme) { m.gpu.SetColorScheme(cs) }
func (m *Machine) SetGhosting(frames int)            { m.gpu.SetGhosting(frames) }
func (m *Machine) SetMapFunc(fn gpu.MapFunc)         { m.gpu.SetMapFunc(fn) }

func (m *Machine) GPU() *gpu.GPU             { return m.gpu }
func (m *Machine) Memory() *memmap.MemoryMap { return m.mem }
func (m *Machine) CPU() CPU                  { return m.cpu }
func (m *Machine) IRQ() bool                 { return m.irq }
