package pipeline

import (
	"math"

	"github.com/loopsmith/loopsmith/internal/audio"
)

// Noise gate constants.
const (
	gateHighpassHz  = 40.0  // Hz - rumble cutoff, also removes loop drift
	gateNyquistCap  = 0.9   // cutoff never exceeds this fraction of Nyquist
	gateMinCutoff   = 1e-5  // normalised cutoff floor for degenerate rates
	gateEnvelopeEps = 1e-12 // keeps the envelope sqrt and ratio well defined
)

// GateOptions configures ApplyNoiseReduction.
type GateOptions struct {
	ThresholdDB float64 // dBFS RMS level below which gating starts
	ReductionDB float64 // maximum attenuation when fully below threshold
	WindowMs    float64 // RMS envelope window
	AttackMs    float64 // smoothing constant when gain falls
	ReleaseMs   float64 // smoothing constant when gain recovers
}

// ApplyNoiseReduction suppresses low-level hiss between transients with a
// soft downward gate. The signal is DC-centred and highpassed first; the
// gate gain follows a windowed RMS envelope and never mutes completely,
// reaching at most ReductionDB of attenuation. Gain moves with asymmetric
// attack/release smoothing to avoid zipper noise.
//
// The returned buffer carries the filtered signal with the gate applied;
// an empty buffer passes through.
func ApplyNoiseReduction(buf *audio.Buffer, sampleRate int, opts GateOptions) *audio.Buffer {
	numFrames := buf.Frames()
	if numFrames == 0 {
		return buf.Clone()
	}
	ch := buf.Channels

	// Remove DC per channel, then the sub-rumble band.
	nyquist := float64(sampleRate) / 2
	if nyquist < 1 {
		nyquist = 1
	}
	cutoff := gateHighpassHz
	if limit := nyquist * gateNyquistCap; cutoff > limit {
		cutoff = limit
	}
	cutoffNorm := cutoff / nyquist
	if cutoffNorm < gateMinCutoff {
		cutoffNorm = gateMinCutoff
	}
	hp := butterworthHighpass(cutoffNorm)

	filtered := audio.NewBuffer(numFrames, ch)
	chBuf := make([]float64, numFrames)
	for c := 0; c < ch; c++ {
		var mean float64
		for i := 0; i < numFrames; i++ {
			mean += buf.Data[i*ch+c]
		}
		mean /= float64(numFrames)
		for i := 0; i < numFrames; i++ {
			chBuf[i] = buf.Data[i*ch+c] - mean
		}
		out := hp.zeroPhaseFilter(chBuf)
		for i := 0; i < numFrames; i++ {
			v := out[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			filtered.Data[i*ch+c] = v
		}
	}

	// Windowed RMS envelope of the mono mix.
	mono := filtered.MonoMix()
	window := int(float64(sampleRate) * opts.WindowMs / 1000)
	if window < 1 {
		window = 1
	}
	envelope := rmsEnvelope(mono, window)

	thresholdLinear := DbToLinear(opts.ThresholdDB)
	reductionLinear := DbToLinear(-math.Abs(opts.ReductionDB))

	gain := make([]float64, numFrames)
	for i, env := range envelope {
		ratio := env / (thresholdLinear + gateEnvelopeEps)
		if ratio > 1 {
			ratio = 1
		} else if ratio < 0 {
			ratio = 0
		}
		gain[i] = reductionLinear + (1-reductionLinear)*ratio
	}
	smoothGainCurve(gain, sampleRate, opts.AttackMs, opts.ReleaseMs)

	for i := 0; i < numFrames; i++ {
		for c := 0; c < ch; c++ {
			filtered.Data[i*ch+c] *= gain[i]
		}
	}
	return filtered
}

// rmsEnvelope computes sqrt of the centred moving average of x^2, the
// same-length equivalent of convolving with a normalised boxcar.
func rmsEnvelope(x []float64, window int) []float64 {
	n := len(x)
	sq := make([]float64, n)
	for i, v := range x {
		sq[i] = v * v
	}

	// Centred window [i-left, i+right] matching mode='same' convolution.
	left := window / 2
	right := window - left - 1
	out := make([]float64, n)
	var sum float64
	hi := -1
	for i := 0; i < n; i++ {
		for hi < i+right && hi < n-1 {
			hi++
			sum += sq[hi]
		}
		if lo := i - left - 1; lo >= 0 {
			sum -= sq[lo]
		}
		out[i] = math.Sqrt(sum/float64(window) + gateEnvelopeEps)
	}
	return out
}

// smoothGainCurve applies one-pole smoothing in place, switching to the
// attack constant when the gain is falling.
func smoothGainCurve(gain []float64, sampleRate int, attackMs, releaseMs float64) {
	if len(gain) == 0 {
		return
	}
	if attackMs < 0.1 {
		attackMs = 0.1
	}
	if releaseMs < 0.1 {
		releaseMs = 0.1
	}
	attackCoeff := math.Exp(-1 / math.Max(1, float64(sampleRate)*attackMs/1000))
	releaseCoeff := math.Exp(-1 / math.Max(1, float64(sampleRate)*releaseMs/1000))

	prev := gain[0]
	for i := 1; i < len(gain); i++ {
		coeff := releaseCoeff
		if gain[i] < prev {
			coeff = attackCoeff
		}
		prev = coeff*prev + (1-coeff)*gain[i]
		gain[i] = prev
	}
}
