package pipeline

import (
	"math"

	"github.com/loopsmith/loopsmith/internal/audio"
	"github.com/loopsmith/loopsmith/internal/loudness"
)

// NormalizePeak scales buf so its absolute peak sits at targetDbfs, then
// enforces maxPeakDbfs with a further uniform attenuation if needed. A
// zero-peak buffer is returned unchanged. Peak normalisation preserves
// transient shape better than loudness normalisation for short percussive
// material, since no weighting filters touch the signal.
func NormalizePeak(buf *audio.Buffer, targetDbfs, maxPeakDbfs float64) *audio.Buffer {
	peak := buf.Peak()
	if peak <= 0 {
		return buf.Clone()
	}
	out := buf.Clone()
	out.Scale(DbToLinear(targetDbfs) / peak)
	enforceCeiling(out, maxPeakDbfs)
	return out
}

// NormalizeLoudness brings buf to targetLufs using BS.1770 K-weighted
// gated integrated loudness, then enforces the maxPeakDbfs ceiling. A
// non-finite measurement (degenerate signal, fully gated) returns the
// input unchanged. When the measurement itself fails, such as on buffers
// shorter than one gating block, the gain falls back to a peak estimate
// with the LUFS target read as dBFS.
func NormalizeLoudness(buf *audio.Buffer, sampleRate int, targetLufs, maxPeakDbfs float64) *audio.Buffer {
	meter := loudness.Meter{SampleRate: sampleRate, Channels: buf.Channels}
	measured, err := meter.IntegratedLoudness(buf.Data)

	var out *audio.Buffer
	switch {
	case err != nil:
		peak := buf.Peak()
		if peak <= 0 {
			out = buf.Clone()
		} else {
			out = buf.Clone()
			out.Scale(DbToLinear(targetLufs) / peak)
		}
	case math.IsInf(measured, 0) || math.IsNaN(measured):
		return buf.Clone()
	default:
		out = buf.Clone()
		out.Scale(DbToLinear(targetLufs - measured))
	}

	enforceCeiling(out, maxPeakDbfs)
	return out
}

// enforceCeiling attenuates uniformly when the peak exceeds maxPeakDbfs.
func enforceCeiling(buf *audio.Buffer, maxPeakDbfs float64) {
	ceiling := DbToLinear(maxPeakDbfs)
	if peak := buf.Peak(); peak > ceiling {
		buf.Scale(ceiling / peak)
	}
}
