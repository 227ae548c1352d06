package hwio

import (
	"fmt"

	"svision/emu/log"
)

// log unmapped accesses (useful for debugging but verbose)
const logUnmapped = false

const (
	pageShift = 8
	pageSize  = 1 << pageShift
	numPages  = 0x10000 >> pageShift
)

type BankIO8 interface {
	Read8(addr uint16) uint8
	// Peek8 reads a byte without side effects (debugging/tracing).
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// Table is a 16-bit address space split in 256-byte pages, each page is
// served by a single BankIO8. Areas must be mapped on page boundaries.
type Table struct {
	Name string

	// Unmapped receives accesses to pages nothing is mapped to.
	Unmapped BankIO8

	pages [numPages]BankIO8
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	clear(t.pages[:])
}

// MapBank maps a register bank, that is a structure containing multiple
// hwio.Mem or hwio.Device fields, previously initialized with InitRegs. The
// fields are mapped at addr plus the offset found in their hwio tag, and
// only fields belonging to bankNum are considered.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint16, size int, io BankIO8) {
	if addr&(pageSize-1) != 0 || size&(pageSize-1) != 0 || size == 0 {
		panic(fmt.Errorf("%s: area at %04x (size %x) is not page aligned", t.Name, addr, size))
	}
	first := int(addr) >> pageShift
	last := first + size>>pageShift
	if last > numPages {
		panic(fmt.Errorf("%s: area at %04x (size %x) overflows the address space", t.Name, addr, size))
	}
	for p := first; p < last; p++ {
		t.pages[p] = io
	}
}

func (t *Table) MapDevice(addr uint16, dev *Device) {
	log.ModHwIo.DebugZ("mapping device").
		Hex16("addr", addr).
		Int("size", dev.Size).
		String("area", dev.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, dev.Size, dev)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	vsize := mem.VSize
	if vsize == 0 {
		vsize = len(mem.Data)
	}

	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", vsize).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, vsize, mem.BankIO8())
}

// Unmap removes whatever is mapped over the given range, accesses to it then
// reach Unmapped.
func (t *Table) Unmap(begin uint16, size int) {
	first := int(begin) >> pageShift
	for p := first; p < first+size>>pageShift && p < numPages; p++ {
		t.pages[p] = nil
	}
}

// Read8 forwards the read to the device mapped at the given address.
func (t *Table) Read8(addr uint16) uint8 {
	io := t.pages[addr>>pageShift]
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Read8").
				String("name", t.Name).
				Hex16("addr", addr).
				End()
		}
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr)
		}
		return 0
	}
	return io.Read8(addr)
}

func (t *Table) Peek8(addr uint16) uint8 {
	io := t.pages[addr>>pageShift]
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Peek8(addr)
		}
		return 0
	}
	return io.Peek8(addr)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.pages[addr>>pageShift]
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
		}
		return
	}
	io.Write8(addr, val)
}
