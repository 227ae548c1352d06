package hwio

import "svision/emu/log"

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = (1 << iota) // read-only accesses
)

// Mem is a linear memory area that can be mapped into a Table. The buffer
// size must be a power of 2, accesses are masked into it so that a Mem
// mapped over a larger virtual range is mirrored.
type Mem struct {
	Name  string   // name of the memory area (for debugging)
	Data  []byte   // actual memory buffer
	VSize int      // virtual size of the memory (can be bigger than physical size)
	Flags MemFlags // flags determining how the memory can be accessed
}

// BankIO8 returns an adaptor implementing BankIO8 over the memory buffer.
func (m *Mem) BankIO8() BankIO8 {
	if len(m.Data) == 0 || len(m.Data)&(len(m.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		name: m.Name,
		buf:  m.Data,
		mask: uint16(len(m.Data) - 1),
		ro:   m.Flags,
	}
}

type mem struct {
	name string
	buf  []byte
	mask uint16
	ro   MemFlags
}

func (m *mem) Read8(addr uint16) uint8 { return m.buf[addr&m.mask] }
func (m *mem) Peek8(addr uint16) uint8 { return m.buf[addr&m.mask] }

func (m *mem) Write8(addr uint16, val uint8) {
	switch m.ro {
	case MemFlagReadWrite:
		m.buf[addr&m.mask] = val
	case MemFlag8ReadOnly:
		log.ModHwIo.ErrorZ("Write8 to readonly memory").
			String("name", m.name).
			Hex8("val", val).
			Hex16("addr", addr).
			End()
	}
}
