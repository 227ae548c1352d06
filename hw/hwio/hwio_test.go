package hwio_test

import (
	"testing"

	"svision/hw/hwio"
)

// Unmapped
type openbus struct{}

func (ob *openbus) Read8(addr uint16) uint8       { return uint8(addr >> 8) }
func (ob *openbus) Peek8(addr uint16) uint8       { return 0xD4 }
func (ob *openbus) Write8(addr uint16, val uint8) {}

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// mapped to $0000-$01FF, mirrored up to $0FFF
	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x200,vsize=0x1000"`
	// $1000-$10FF
	ROM hwio.Mem `hwio:"bank=0,offset=0x1000,size=0x100,readonly"`

	// $2000-$20FF
	DefaultDev hwio.Device `hwio:"bank=1,offset=0x0,size=0x100"`
	// $2100-$21FF
	DEV hwio.Device `hwio:"bank=1,offset=0x100,size=0x100,rcb,wcb"` // no peek-callback
	// $2200-$22FF
	RoDEV hwio.Device `hwio:"bank=1,offset=0x200,size=0x100,rcb,pcb=PeekAny,readonly"`
	// $2300-$23FF
	WoDEV hwio.Device `hwio:"bank=1,offset=0x300,size=0x100,wcb,writeonly"`

	devval uint8
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapBank(0x0000, tbl, 0)
	tbl.Bus.MapBank(0x2000, tbl, 1)
	tbl.Bus.Unmapped = &openbus{}
	return tbl
}

// $2100-21FF
func (tbl *testTable) ReadDEV(addr uint16) uint8       { return 0xE1 }
func (tbl *testTable) WriteDEV(addr uint16, val uint8) { tbl.devval = uint8(addr) & val }

// $2200-22FF
func (tbl *testTable) ReadRODEV(addr uint16) uint8 { return 0xC5 }
func (tbl *testTable) PeekAny(addr uint16) uint8   { return 0xC8 }

// $2300-23FF
func (tbl *testTable) WriteWODEV(addr uint16, val uint8) { tbl.devval = uint8(addr) & ^val }

func (tbl *testTable) wantRead8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Read8(addr); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) wantPeek8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Peek8(addr); got != want {
		tbl.t.Errorf("Peek8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMem(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x0000, 0)
	tbl.Bus.Write8(0x0000, 0x12)
	tbl.wantRead8(0x0000, 0x12)
	tbl.wantRead8(0x0200, 0x12)
	tbl.wantRead8(0x0E00, 0x12)
	tbl.wantPeek8(0x0400, 0x12)

	tbl.Bus.Write8(0x0FFF, 0x34)
	tbl.wantRead8(0x01FF, 0x34)

	// read-only memory
	tbl.ROM.Data[0x10] = 0x56
	tbl.Bus.Write8(0x1010, 0xFF)
	tbl.wantRead8(0x1010, 0x56)
}

func TestTableDevices(t *testing.T) {
	tbl := newTestTable(t)

	// no callbacks: reads 0, writes ignored.
	tbl.wantRead8(0x2010, 0)
	tbl.Bus.Write8(0x2010, 0xFF)
	tbl.wantPeek8(0x2010, 0)

	tbl.wantRead8(0x2100, 0xE1)
	tbl.wantPeek8(0x2100, 0)
	tbl.Bus.Write8(0x2133, 0xF0)
	if tbl.devval != 0x30 {
		t.Errorf("devval = %02X, want %02X", tbl.devval, 0x30)
	}

	tbl.wantRead8(0x2200, 0xC5)
	tbl.wantPeek8(0x2200, 0xC8)
	tbl.Bus.Write8(0x2200, 0x00) // rejected

	tbl.wantRead8(0x2300, 0)
	tbl.Bus.Write8(0x23F0, 0x0F)
	if tbl.devval != 0xF0 {
		t.Errorf("devval = %02X, want %02X", tbl.devval, 0xF0)
	}
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x8123, 0x81)
	tbl.wantPeek8(0x8123, 0xD4)

	tbl.Bus.Unmap(0x2100, 0x100)
	tbl.wantRead8(0x2100, 0x21)
}

type badCallback struct {
	DEV hwio.Device `hwio:"offset=0x0,size=0x100,rcb"`
}

func (b *badCallback) ReadDEV(addr uint16) uint16 { return 0 }

type unaligned struct {
	RAM hwio.Mem `hwio:"offset=0x10,size=0x100"`
}

func TestInitRegsErrors(t *testing.T) {
	if err := hwio.InitRegs(&badCallback{}); err == nil {
		t.Errorf("InitRegs should fail on bad callback signature")
	}
	if err := hwio.InitRegs(badCallback{}); err == nil {
		t.Errorf("InitRegs should fail on non-pointer")
	}

	u := &unaligned{}
	hwio.MustInitRegs(u)
	defer func() {
		if recover() == nil {
			t.Errorf("MapBank should panic on unaligned area")
		}
	}()
	hwio.NewTable("bus").MapBank(0, u, 0)
}
