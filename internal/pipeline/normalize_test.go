package pipeline

import (
	"math"
	"testing"

	"github.com/loopsmith/loopsmith/internal/audio"
	"github.com/loopsmith/loopsmith/internal/loudness"
)

func TestNormalizePeakHitsTarget(t *testing.T) {
	const rate = 44100
	buf := toneBuffer(t, 440, -30, rate, rate, 2)

	out := NormalizePeak(buf, -3, -1)
	if got := ToDBFS(out.Peak()); math.Abs(got+3) > 0.01 {
		t.Errorf("peak = %.3f dBFS, want -3", got)
	}
}

func TestNormalizePeakEnforcesCeiling(t *testing.T) {
	const rate = 44100
	buf := toneBuffer(t, 440, -30, rate, rate, 1)

	// Target above the ceiling: the ceiling wins.
	out := NormalizePeak(buf, 0, -1)
	ceiling := DbToLinear(-1)
	if peak := out.Peak(); peak > ceiling+1e-9 {
		t.Errorf("peak %v exceeds ceiling %v", peak, ceiling)
	}
}

func TestNormalizePeakZeroBuffer(t *testing.T) {
	buf := audio.NewBuffer(1000, 2)
	out := NormalizePeak(buf, -3, -1)
	if out.Peak() != 0 {
		t.Errorf("silent buffer gained energy: peak %v", out.Peak())
	}
	if out.Frames() != buf.Frames() {
		t.Errorf("frames changed: %d -> %d", buf.Frames(), out.Frames())
	}
}

func TestNormalizeLoudnessReachesTarget(t *testing.T) {
	const rate = 48000
	// -3.01 LUFS at full scale, so at -20 dB the tone sits near -23 LUFS.
	buf := toneBuffer(t, 997, -20, rate, rate*2, 1)

	out := NormalizeLoudness(buf, rate, -14, -1)

	meter := loudness.Meter{SampleRate: rate, Channels: 1}
	got, err := meter.IntegratedLoudness(out.Data)
	if err != nil {
		t.Fatalf("measuring output: %v", err)
	}
	if math.Abs(got-(-14)) > 0.2 {
		t.Errorf("output loudness = %.2f LUFS, want -14 +/- 0.2", got)
	}
}

func TestNormalizeLoudnessCeilingBeatsTarget(t *testing.T) {
	const rate = 48000
	buf := toneBuffer(t, 997, -40, rate, rate*2, 1)

	// A very hot target forces the gain into the ceiling.
	out := NormalizeLoudness(buf, rate, 0, -1)
	ceiling := DbToLinear(-1)
	if peak := out.Peak(); peak > ceiling+1e-9 {
		t.Errorf("peak %v exceeds ceiling %v", peak, ceiling)
	}
}

func TestNormalizeLoudnessSilentUnchanged(t *testing.T) {
	const rate = 48000
	buf := audio.NewBuffer(rate, 1)

	// Silence measures -Inf: the buffer must come back unchanged.
	out := NormalizeLoudness(buf, rate, -14, -1)
	if out.Peak() != 0 || out.Frames() != buf.Frames() {
		t.Errorf("silent buffer changed: peak %v, frames %d", out.Peak(), out.Frames())
	}
}

func TestNormalizeLoudnessShortBufferPeakFallback(t *testing.T) {
	const rate = 48000
	// 100 ms cannot fill a 400 ms gating block; the fallback treats the
	// LUFS target as a peak target in dBFS.
	buf := toneBuffer(t, 997, -20, rate, rate/10, 1)

	out := NormalizeLoudness(buf, rate, -12, -1)
	if got := ToDBFS(out.Peak()); math.Abs(got+12) > 0.05 {
		t.Errorf("fallback peak = %.3f dBFS, want -12", got)
	}
}
