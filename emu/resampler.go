package emu

import (
	"github.com/arl/blip"
)

// Resampler converts the unsigned 8-bit stereo stream produced by the sound
// hardware into signed 16-bit stereo samples at another rate, through band
// limited synthesis.
type Resampler struct {
	left  *blip.Buffer
	right *blip.Buffer

	prevLeft  int32
	prevRight int32

	out []int16
}

// sampleGain scales 8-bit samples to the 16-bit range, leaving headroom for
// the band limited steps overshoot.
const sampleGain = 96

// NewResampler creates a resampler from inRate to outRate (in Hz), for input
// chunks of at most maxFrames stereo frames.
func NewResampler(inRate, outRate, maxFrames int) *Resampler {
	size := maxFrames*outRate/inRate + 16
	rs := &Resampler{
		left:  blip.NewBuffer(size),
		right: blip.NewBuffer(size),
		out:   make([]int16, 2*size),
	}
	rs.left.SetRates(float64(inRate), float64(outRate))
	rs.right.SetRates(float64(inRate), float64(outRate))
	return rs
}

// Process resamples buf, interleaved left/right unsigned 8-bit samples, and
// returns the interleaved 16-bit samples available so far. The returned slice
// is only valid until the next call.
func (rs *Resampler) Process(buf []byte) []int16 {
	nframes := len(buf) / 2
	for i := range nframes {
		l := int32(buf[2*i]) * sampleGain
		r := int32(buf[2*i+1]) * sampleGain
		if l != rs.prevLeft {
			rs.left.AddDelta(uint64(i), l-rs.prevLeft)
			rs.prevLeft = l
		}
		if r != rs.prevRight {
			rs.right.AddDelta(uint64(i), r-rs.prevRight)
			rs.prevRight = r
		}
	}
	rs.left.EndFrame(nframes)
	rs.right.EndFrame(nframes)

	n := rs.left.ReadSamples(rs.out, len(rs.out)/2, blip.Stereo)
	rs.right.ReadSamples(rs.out[1:], n, blip.Stereo)
	return rs.out[:2*n]
}

func (rs *Resampler) Reset() {
	rs.left.Clear()
	rs.right.Clear()
	rs.prevLeft = 0
	rs.prevRight = 0
}
