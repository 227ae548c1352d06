package hwio

// 8-bit operations
func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

func GetBiti8(v uint8, n uint) uint8 {
	return v >> (n) & 0x01
}

// 16-bit operations
func Make16(lo, hi uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
