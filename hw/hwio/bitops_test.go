package hwio

import "testing"

func TestBitops(t *testing.T) {
	if !GetBit8(0x08, 3) || GetBit8(0x08, 2) {
		t.Fatalf("GetBit8 failed")
	}
	if GetBiti8(0x80, 7) != 1 || GetBiti8(0x7f, 7) != 0 {
		t.Fatalf("GetBiti8 failed")
	}
	if Make16(0x34, 0x12) != 0x1234 {
		t.Fatalf("Make16 failed")
	}
}
