package gpu

// ColorScheme selects one of the built-in 4-shade palettes.
type ColorScheme int

const (
	SchemeDefault ColorScheme = iota
	SchemeAmber
	SchemeGreen
	SchemeBlue
	SchemeBGB
	SchemeWataroo

	SchemeCount
)

func (cs ColorScheme) String() string {
	var names = [SchemeCount]string{
		"default", "amber", "green", "blue", "bgb", "wataroo",
	}
	if cs < 0 || cs >= SchemeCount {
		return "unknown"
	}
	return names[cs]
}

// SchemeByName returns the scheme with the given name.
func SchemeByName(name string) (ColorScheme, bool) {
	for cs := range SchemeCount {
		if cs.String() == name {
			return cs, true
		}
	}
	return 0, false
}

type rgb struct{ r, g, b uint8 }

// Shades, from pixel value 0 (off) to 3 (darkest).
var palettes = [SchemeCount][4]rgb{
	SchemeDefault: {{252, 252, 252}, {168, 168, 168}, {84, 84, 84}, {0, 0, 0}},
	SchemeAmber:   {{252, 154, 0}, {168, 102, 0}, {84, 51, 0}, {0, 0, 0}},
	SchemeGreen:   {{50, 227, 50}, {34, 151, 34}, {17, 76, 17}, {0, 0, 0}},
	SchemeBlue:    {{0, 154, 252}, {0, 102, 168}, {0, 51, 84}, {0, 0, 0}},
	SchemeBGB:     {{224, 248, 208}, {136, 192, 112}, {52, 104, 86}, {8, 24, 32}},
	SchemeWataroo: {{0x7b, 0xc7, 0x7b}, {0x52, 0xa6, 0x8c}, {0x2e, 0x62, 0x60}, {0x0d, 0x32, 0x2e}},
}

// MapFunc converts a 24-bit color into a pixel value.
type MapFunc func(r, g, b uint8) uint16

// RGB555 packs a color into 15 bits, red in the low bits, with bit 15 set.
func RGB555(r, g, b uint8) uint16 {
	return uint16(b>>3)<<10 | uint16(g>>3)<<5 | uint16(r>>3) | 1<<15
}
