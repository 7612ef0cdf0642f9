package pipeline

import (
	"math"

	"github.com/loopsmith/loopsmith/internal/audio"
)

// preNormalizeThresholdDB is the RMS mismatch, in dB, between the head and
// tail crossfade regions above which a corrective gain ramp is applied.
const preNormalizeThresholdDB = 3.0

// CrossfadeOptions controls ApplyCrossfade.
type CrossfadeOptions struct {
	DurationMs int
	// PreNormalize ramps the quieter crossfade region toward the louder
	// one before blending. Off by default: the ramp reshapes transients.
	PreNormalize bool
	// EnforceSeamlessLoop blends the head into the tail so the loop seam
	// is click free. It also runs the tick-spacing adjuster first, since
	// spacing must be corrected before any gain shaping.
	EnforceSeamlessLoop bool
	// MirrorLoopStart writes the blended seam to the head as well, making
	// the first and last crossfade-length segments identical.
	MirrorLoopStart bool
}

// EPCFGains returns the fade-out and fade-in gain curves of an equal-power
// cosine crossfade of n samples. At every position the two gains satisfy
// out^2 + in^2 = 1, keeping perceived loudness constant across the blend.
func EPCFGains(n int) (fadeOut, fadeIn []float64) {
	fadeOut = make([]float64, n)
	fadeIn = make([]float64, n)
	for i := 0; i < n; i++ {
		var k float64
		if n > 1 {
			k = float64(i) / float64(n-1)
		}
		fadeOut[i] = math.Sqrt(0.5 + 0.5*math.Cos(math.Pi*k))
		fadeIn[i] = math.Sqrt(0.5 - 0.5*math.Cos(math.Pi*k))
	}
	return fadeOut, fadeIn
}

// ApplyCrossfade blends the loop boundary of buf with an equal-power cosine
// crossfade. The duration is clamped to half the buffer; a clamp to zero
// returns the input unchanged. Without seamless-loop enforcement the head
// and tail are simply faded in and out independently.
func ApplyCrossfade(buf *audio.Buffer, sampleRate int, opts CrossfadeOptions) *audio.Buffer {
	out := buf.Clone()
	if opts.EnforceSeamlessLoop {
		out = AdjustTickSpacing(out, sampleRate)
	}

	numFrames := out.Frames()
	xfade := int(float64(sampleRate) * float64(opts.DurationMs) / 1000)
	if limit := numFrames / 2; xfade > limit {
		xfade = limit
	}
	if xfade <= 0 {
		return out
	}

	if opts.PreNormalize {
		preNormalizeSeam(out, xfade)
	}

	fadeOut, fadeIn := EPCFGains(xfade)
	ch := out.Channels
	tailStart := (numFrames - xfade) * ch

	if opts.EnforceSeamlessLoop {
		head := make([]float64, xfade*ch)
		copy(head, out.Data[:xfade*ch])
		tail := make([]float64, xfade*ch)
		copy(tail, out.Data[tailStart:])

		blended := make([]float64, xfade*ch)
		for i := 0; i < xfade; i++ {
			for c := 0; c < ch; c++ {
				blended[i*ch+c] = tail[i*ch+c]*fadeOut[i] + head[i*ch+c]*fadeIn[i]
			}
		}
		copy(out.Data[tailStart:], blended)
		if opts.MirrorLoopStart {
			copy(out.Data[:xfade*ch], blended)
		}
		return out
	}

	for i := 0; i < xfade; i++ {
		for c := 0; c < ch; c++ {
			out.Data[i*ch+c] *= fadeIn[i]
			out.Data[tailStart+i*ch+c] *= fadeOut[i]
		}
	}
	return out
}

// preNormalizeSeam equalises the RMS of the head and tail crossfade regions
// when they differ by more than 3 dB, ramping the quieter side toward the
// louder one.
func preNormalizeSeam(buf *audio.Buffer, xfade int) {
	ch := buf.Channels
	numFrames := buf.Frames()
	tailStart := (numFrames - xfade) * ch

	tailRMS := RMSEnergy(buf.Data[tailStart:])
	headRMS := RMSEnergy(buf.Data[:xfade*ch])
	if tailRMS <= 0 || headRMS <= 0 {
		return
	}
	ratioDB := 20 * math.Log10(tailRMS/headRMS)
	if math.Abs(ratioDB) <= preNormalizeThresholdDB {
		return
	}

	if tailRMS < headRMS {
		// Ramp the tail up from unity to the matching gain.
		gain := headRMS / tailRMS
		for i := 0; i < xfade; i++ {
			g := rampValue(1, gain, i, xfade)
			for c := 0; c < ch; c++ {
				buf.Data[tailStart+i*ch+c] *= g
			}
		}
	} else {
		// Ramp the head down from the matching gain to unity.
		gain := tailRMS / headRMS
		for i := 0; i < xfade; i++ {
			g := rampValue(gain, 1, i, xfade)
			for c := 0; c < ch; c++ {
				buf.Data[i*ch+c] *= g
			}
		}
	}
}

// rampValue interpolates linearly from a to b over n steps, inclusive of
// both endpoints.
func rampValue(a, b float64, i, n int) float64 {
	if n <= 1 {
		return a
	}
	return a + (b-a)*float64(i)/float64(n-1)
}
