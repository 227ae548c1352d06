// Package snapshot defines the machine state as persisted in save state
// files. Field order is the on-disk order.
package snapshot

type Machine struct {
	Mem   Memory
	Sound Sound
	Timer Timer
	CPU   CPU
	IRQ   bool
}

type Memory struct {
	Regs     [0x2000]uint8
	LowerRAM [0x2000]uint8
	UpperRAM [0x2000]uint8

	Bank        uint8 // selected low ROM bank, in 16KB units
	TimerFired  bool
	DMAFinished bool
}

type Wave struct {
	Reg      [4]uint8
	On       bool
	Waveform uint8
	Volume   uint8
	Pos      uint16
	Size     uint16
	Count    uint16
}

type Noise struct {
	Reg    [3]uint8
	On     bool
	Right  bool
	Left   bool
	Play   bool
	Type   uint8
	State  uint16
	Value  uint8
	Volume uint8
	Count  uint16
	Pos    float64
	Step   float64
}

type DMA struct {
	Reg      [5]uint8
	On       bool
	Right    bool
	Left     bool
	CA14to16 uint32
	Start    uint16
	Size     uint16
	Pos      float64
	Step     float64
}

type Sound struct {
	Wave  [2]Wave
	Noise Noise
	DMA   DMA

	// Waveforms currently heard, each one lags its Wave until the end of
	// the current period.
	Committed [2]Wave
}

type Timer struct {
	Cycles int32
	Active bool
}

type CPU struct {
	A   uint8
	P   uint8
	X   uint8
	Y   uint8
	S   uint8
	PCL uint8
	PCH uint8

	IPeriod  int32
	ICount   int32
	IRequest uint8
	AfterCLI uint8
	IBackup  int32
}

func (c *CPU) PC() uint16 {
	return uint16(c.PCH)<<8 | uint16(c.PCL)
}

func (c *CPU) SetPC(pc uint16) {
	c.PCL = uint8(pc)
	c.PCH = uint8(pc >> 8)
}
