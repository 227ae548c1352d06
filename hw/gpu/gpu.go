// Package gpu decodes the LCD video memory. Pixels are packed 4 per byte, 2
// bits each, leftmost pixel in the least significant bits.
package gpu

import (
	"svision/emu/log"
)

const (
	Width  = 160
	Height = 160

	// BytesPerLine is the video memory stride between two scanlines.
	BytesPerLine = 0x30

	// MaxGhosting is the maximum number of past frames blended into the
	// current one.
	MaxGhosting = 8

	vramMask   = 0x1fff
	ringSize   = MaxGhosting + 1
	frameBytes = Width * Height / 4
)

type GPU struct {
	palette [4]uint16
	scheme  ColorScheme
	mapRGB  MapFunc

	ghosting int
	ring     [ringSize][]byte // 2bpp copies of past frames
	ringX    [ringSize]uint8  // horizontal phase of each ring frame
	cur      int              // current ring slot
	line     int              // scanline within the current frame
}

func New() *GPU {
	g := new(GPU)
	g.Reset()
	return g
}

// Reset restores the default color mapping and scheme and disables ghosting.
func (g *GPU) Reset() {
	g.SetMapFunc(nil)
	g.SetColorScheme(SchemeDefault)
	g.SetGhosting(0)
}

// SetMapFunc sets the function converting palette colors into pixels, nil
// restores RGB555.
func (g *GPU) SetMapFunc(fn MapFunc) {
	if fn == nil {
		fn = RGB555
	}
	g.mapRGB = fn
	g.SetColorScheme(g.scheme)
}

// SetColorScheme selects the palette, out of range values are ignored.
func (g *GPU) SetColorScheme(cs ColorScheme) {
	if cs < 0 || cs >= SchemeCount {
		log.ModGPU.DebugZ("ignoring unknown color scheme").Int("scheme", int(cs)).End()
		return
	}
	for i, c := range palettes[cs] {
		g.palette[i] = g.mapRGB(c.r, c.g, c.b)
	}
	g.scheme = cs
}

func (g *GPU) ColorScheme() ColorScheme { return g.scheme }

// SetGhosting sets the number of past frames blended into off pixels,
// clamped to [0, MaxGhosting]. 0 disables ghosting and releases the frame
// history, any other value clears it.
func (g *GPU) SetGhosting(frames int) {
	frames = min(max(frames, 0), MaxGhosting)
	g.ghosting = frames
	g.cur, g.line = 0, 0

	if frames == 0 {
		for i := range g.ring {
			g.ring[i] = nil
		}
		return
	}
	for i := range g.ring {
		if g.ring[i] == nil {
			g.ring[i] = make([]byte, frameBytes)
		} else {
			clear(g.ring[i])
		}
	}
}

func (g *GPU) Ghosting() int { return g.ghosting }

// RenderScanline decodes width pixels of video memory into dst, starting at
// byte offset scan, skipping the innerX first pixels (0-3) of that byte.
func (g *GPU) RenderScanline(vram []byte, scan int, dst []uint16, innerX, width uint8) {
	off := scan
	j := innerX
	var b uint8
	if j&3 != 0 {
		b = vram[off&vramMask]
		off++
		b >>= (j & 3) * 2
	}
	for x := range int(width) {
		if j&3 == 0 {
			b = vram[off&vramMask]
			off++
		}
		dst[x] = g.palette[b&3]
		b >>= 2
		j++
	}

	if g.ghosting != 0 {
		g.addGhosting(vram, scan, dst, innerX, width)
	}
}

// addGhosting records the scanline into the current ring frame, and replaces
// each off pixel with the most recent on pixel found at the same position in
// the past frames, faded toward the off color with its age.
func (g *GPU) addGhosting(vram []byte, scan int, dst []uint16, innerX, width uint8) {
	shades := &palettes[g.scheme]
	frame := g.ring[g.cur]

	g.ringX[g.cur] = innerX
	lineOff := g.line * Width / 4
	clear(frame[lineOff : lineOff+Width/4])

	j := int(innerX)
	for x := range min(int(width), Width) {
		b := vram[(scan+j>>2)&vramMask]
		shift := uint(j&3) * 2
		c := (b >> shift) & 3
		pix := (x + g.line*Width) / 4

		if c != 0 {
			frame[pix] |= c << shift
			j++
			continue
		}

		for i := range g.ghosting {
			sb := (g.cur + ringSize - 1 - i) % ringSize
			hshift := uint((int(g.ringX[sb])+x)&3) * 2
			c = (g.ring[sb][pix] >> hshift) & 3
			if c == 0 {
				continue
			}

			blend := func(v, off uint8) uint8 {
				return uint8(int(v) + (int(off)-int(v))*i/g.ghosting)
			}
			on, off := shades[c], shades[0]
			dst[x] = g.mapRGB(blend(on.r, off.r), blend(on.g, off.g), blend(on.b, off.b))
			break
		}
		j++
	}

	if g.line == Height-1 {
		g.cur = (g.cur + 1) % ringSize
	}
	g.line = (g.line + 1) % Height
}
