package emu

import (
	"svision/emu/log"
	"svision/hw"
	"svision/hw/snapshot"
)

// HaltedCPU is a CPU that never executes instructions: it consumes its cycle
// budget and keeps its registers untouched, so that a state replayed with it
// can be saved back unchanged. Video memory, timer and sound keep running.
type HaltedCPU struct {
	regs snapshot.CPU

	Cycles int64 // total number of cycles consumed
	NMIs   int   // number of NMIs received
	IRQ    bool  // level of the IRQ line
}

// NewHaltedCPU is an hw.Machine CPU constructor.
func NewHaltedCPU(hw.Bus) hw.CPU { return &HaltedCPU{} }

// Reset clears the registers. As the real CPU does, the stack pointer starts
// at $FD with interrupts disabled.
func (c *HaltedCPU) Reset() {
	c.regs = snapshot.CPU{
		S:       0xFD,
		P:       0x04,
		IPeriod: hw.CyclesPerSlice,
	}
	c.Cycles = 0
	c.NMIs = 0
	c.IRQ = false
}

func (c *HaltedCPU) Run(cycles int32) int32 {
	c.Cycles += int64(cycles)
	return cycles
}

func (c *HaltedCPU) AssertNMI() {
	c.NMIs++
	log.ModCPU.DebugZ("nmi").Int("count", c.NMIs).End()
}

func (c *HaltedCPU) SetIRQ(asserted bool) {
	c.IRQ = asserted
	log.ModCPU.DebugZ("irq line").Bool("asserted", asserted).End()
}

func (c *HaltedCPU) Registers() snapshot.CPU        { return c.regs }
func (c *HaltedCPU) SetRegisters(regs snapshot.CPU) { c.regs = regs }
