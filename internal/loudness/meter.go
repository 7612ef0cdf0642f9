// Package loudness implements ITU-R BS.1770-4 integrated loudness
// measurement with K-weighting and two-stage gating.
package loudness

import (
	"errors"
	"math"
)

const (
	// Gating block parameters from BS.1770-4.
	blockMs   = 400
	overlap   = 0.75
	absGateLU = -70.0
	relGateLU = -10.0
	offsetLU  = -0.691
)

// ErrTooShort reports input shorter than one gating block.
var ErrTooShort = errors.New("loudness: input shorter than one gating block")

// Meter measures integrated loudness of interleaved samples.
type Meter struct {
	SampleRate int
	Channels   int
}

// biquad holds direct-form-I coefficients with a0 normalised to 1.
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

func (f biquad) process(x []float64) []float64 {
	out := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := f.b0*v + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// preFilter designs the first K-weighting stage, a high shelf modelling
// acoustic effects of the head.
func preFilter(rate int) biquad {
	const (
		f0 = 1681.974450955533
		g  = 3.999843853973347
		q  = 0.7071752369554196
	)
	k := math.Tan(math.Pi * f0 / float64(rate))
	vh := math.Pow(10, g/20)
	vb := math.Pow(vh, 0.4996667741545416)
	a0 := 1 + k/q + k*k
	return biquad{
		b0: (vh + vb*k/q + k*k) / a0,
		b1: 2 * (k*k - vh) / a0,
		b2: (vh - vb*k/q + k*k) / a0,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/q + k*k) / a0,
	}
}

// rlbFilter designs the second K-weighting stage, a simple highpass.
func rlbFilter(rate int) biquad {
	const (
		f0 = 38.13547087602444
		q  = 0.5003270373238773
	)
	k := math.Tan(math.Pi * f0 / float64(rate))
	a0 := 1 + k/q + k*k
	return biquad{
		b0: 1,
		b1: -2,
		b2: 1,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/q + k*k) / a0,
	}
}

// channelWeight returns the BS.1770 channel weighting. The first three
// channels (left, right, centre) weigh 1.0; any further channels are
// treated as surrounds.
func channelWeight(ch int) float64 {
	if ch < 3 {
		return 1.0
	}
	return 1.41
}

// IntegratedLoudness returns the gated integrated loudness of interleaved
// samples in LUFS. It returns ErrTooShort when the input cannot fill a
// single 400 ms block, and -Inf when every block is gated out.
func (m Meter) IntegratedLoudness(samples []float64) (float64, error) {
	if m.Channels < 1 || m.SampleRate <= 0 {
		return 0, errors.New("loudness: invalid meter configuration")
	}
	frames := len(samples) / m.Channels
	blockFrames := m.SampleRate * blockMs / 1000
	stepFrames := int(float64(blockFrames) * (1 - overlap))
	if frames < blockFrames || stepFrames == 0 {
		return 0, ErrTooShort
	}

	pre := preFilter(m.SampleRate)
	rlb := rlbFilter(m.SampleRate)

	// K-weight each channel independently.
	weighted := make([][]float64, m.Channels)
	for c := 0; c < m.Channels; c++ {
		ch := make([]float64, frames)
		for i := 0; i < frames; i++ {
			ch[i] = samples[i*m.Channels+c]
		}
		weighted[c] = rlb.process(pre.process(ch))
	}

	// Per-block weighted mean-square power.
	numBlocks := (frames-blockFrames)/stepFrames + 1
	power := make([]float64, 0, numBlocks)
	for j := 0; j < numBlocks; j++ {
		start := j * stepFrames
		var sum float64
		for c := 0; c < m.Channels; c++ {
			var ms float64
			for i := start; i < start+blockFrames; i++ {
				ms += weighted[c][i] * weighted[c][i]
			}
			sum += channelWeight(c) * ms / float64(blockFrames)
		}
		power = append(power, sum)
	}

	blockLoudness := func(p float64) float64 {
		return offsetLU + 10*math.Log10(p)
	}

	// Absolute gate at -70 LUFS.
	var absSum float64
	var absCount int
	for _, p := range power {
		if blockLoudness(p) > absGateLU {
			absSum += p
			absCount++
		}
	}
	if absCount == 0 {
		return math.Inf(-1), nil
	}

	// Relative gate 10 LU below the loudness of the absolutely gated set.
	relThreshold := blockLoudness(absSum/float64(absCount)) + relGateLU
	var relSum float64
	var relCount int
	for _, p := range power {
		if l := blockLoudness(p); l > absGateLU && l > relThreshold {
			relSum += p
			relCount++
		}
	}
	if relCount == 0 {
		return math.Inf(-1), nil
	}
	return blockLoudness(relSum / float64(relCount)), nil
}
