package pipeline

import (
	"math"
	"testing"

	"github.com/loopsmith/loopsmith/internal/audio"
)

func defaultGateOptions() GateOptions {
	return GateOptions{
		ThresholdDB: -50.0,
		ReductionDB: 24.0,
		WindowMs:    12.0,
		AttackMs:    2.0,
		ReleaseMs:   40.0,
	}
}

func TestApplyNoiseReductionAttenuatesHiss(t *testing.T) {
	const rate = 44100
	quiet := noiseBuffer(t, -70, rate, 1) // well below the -50 dB threshold

	out := ApplyNoiseReduction(quiet, rate, defaultGateOptions())

	inRMS := RMSEnergy(quiet.Data)
	outRMS := RMSEnergy(out.Data)
	// Deep below threshold the gate approaches its full 24 dB reduction;
	// require at least half of it.
	if drop := ToDBFS(inRMS) - ToDBFS(outRMS); drop < 12 {
		t.Errorf("hiss attenuated by %.1f dB, want >= 12", drop)
	}
}

func TestApplyNoiseReductionPassesLoudSignal(t *testing.T) {
	const rate = 44100
	tone := toneBuffer(t, 440, -12, rate, rate, 1) // far above threshold

	out := ApplyNoiseReduction(tone, rate, defaultGateOptions())

	inRMS := RMSEnergy(tone.Data)
	outRMS := RMSEnergy(out.Data)
	if drop := ToDBFS(inRMS) - ToDBFS(outRMS); drop > 1.5 {
		t.Errorf("loud tone attenuated by %.1f dB, want near 0", drop)
	}
}

func TestApplyNoiseReductionRemovesDCOffset(t *testing.T) {
	const rate = 44100
	buf := toneBuffer(t, 440, -12, rate, rate, 1)
	for i := range buf.Data {
		buf.Data[i] += 0.3
	}

	out := ApplyNoiseReduction(buf, rate, defaultGateOptions())

	var mean float64
	for _, v := range out.Data {
		mean += v
	}
	mean /= float64(len(out.Data))
	if math.Abs(mean) > 5e-3 {
		t.Errorf("DC offset after gate = %v", mean)
	}
}

func TestApplyNoiseReductionEmptyBuffer(t *testing.T) {
	out := ApplyNoiseReduction(&audio.Buffer{Data: nil, Channels: 1}, 44100, defaultGateOptions())
	if out.Frames() != 0 {
		t.Errorf("empty buffer grew to %d frames", out.Frames())
	}
}

func TestApplyNoiseReductionOutputFinite(t *testing.T) {
	const rate = 44100
	buf := noiseBuffer(t, -30, rate/10, 2)

	out := ApplyNoiseReduction(buf, rate, defaultGateOptions())
	for i, v := range out.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
	}
	if out.Frames() != buf.Frames() {
		t.Errorf("frames changed: %d -> %d", buf.Frames(), out.Frames())
	}
}

func TestSmoothGainCurveConverges(t *testing.T) {
	const rate = 44100
	gain := make([]float64, rate/10)
	for i := range gain {
		gain[i] = 1.0
	}
	gain[0] = 0.0 // recovering from fully closed

	smoothGainCurve(gain, rate, 2.0, 40.0)

	// Release of 40 ms: after 100 ms the gain is essentially open.
	if last := gain[len(gain)-1]; last < 0.9 {
		t.Errorf("gain after release = %v, want > 0.9", last)
	}
	// The curve must be monotonic while recovering.
	for i := 1; i < len(gain); i++ {
		if gain[i] < gain[i-1]-1e-12 {
			t.Fatalf("gain not monotonic at %d", i)
		}
	}
}

func TestRMSEnvelopeConstantSignal(t *testing.T) {
	x := make([]float64, 1000)
	for i := range x {
		x[i] = 0.5
	}
	env := rmsEnvelope(x, 100)
	if len(env) != len(x) {
		t.Fatalf("envelope length %d, want %d", len(env), len(x))
	}
	// Away from the edges the envelope of a constant is the constant.
	for i := 100; i < 900; i++ {
		if math.Abs(env[i]-0.5) > 1e-6 {
			t.Fatalf("envelope at %d = %v, want 0.5", i, env[i])
		}
	}
}
