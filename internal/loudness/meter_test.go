package loudness

import (
	"errors"
	"math"
	"testing"
)

func sine(freq float64, amp float64, rate, frames, channels int) []float64 {
	out := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}

func TestIntegratedLoudnessSineReference(t *testing.T) {
	// A full-scale 997 Hz mono sine measures -3.01 LUFS by construction
	// of the K-weighting curve and the -0.691 offset.
	tests := []struct {
		name string
		amp  float64
		ch   int
		want float64
	}{
		{"full scale mono", 1.0, 1, -3.01},
		{"-20 dBFS mono", 0.1, 1, -23.01},
		{"full scale correlated stereo", 1.0, 2, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Meter{SampleRate: 48000, Channels: tt.ch}
			got, err := m.IntegratedLoudness(sine(997, tt.amp, 48000, 48000*2, tt.ch))
			if err != nil {
				t.Fatalf("IntegratedLoudness: %v", err)
			}
			if math.Abs(got-tt.want) > 0.1 {
				t.Errorf("loudness = %.3f LUFS, want %.3f +/- 0.1", got, tt.want)
			}
		})
	}
}

func TestIntegratedLoudness44100(t *testing.T) {
	// Filter design must track the sample rate, not assume 48 kHz.
	m := Meter{SampleRate: 44100, Channels: 1}
	got, err := m.IntegratedLoudness(sine(997, 0.5, 44100, 44100*2, 1))
	if err != nil {
		t.Fatalf("IntegratedLoudness: %v", err)
	}
	want := -3.01 - 6.02 // half amplitude
	if math.Abs(got-want) > 0.15 {
		t.Errorf("loudness = %.3f LUFS, want %.3f +/- 0.15", got, want)
	}
}

func TestIntegratedLoudnessTooShort(t *testing.T) {
	m := Meter{SampleRate: 48000, Channels: 1}
	_, err := m.IntegratedLoudness(make([]float64, 1000))
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
}

func TestIntegratedLoudnessSilenceGatedOut(t *testing.T) {
	m := Meter{SampleRate: 48000, Channels: 1}
	got, err := m.IntegratedLoudness(make([]float64, 48000))
	if err != nil {
		t.Fatalf("IntegratedLoudness: %v", err)
	}
	if !math.IsInf(got, -1) {
		t.Errorf("loudness of silence = %v, want -Inf", got)
	}
}

func TestIntegratedLoudnessGatesSilentSections(t *testing.T) {
	// A tone followed by a long silent stretch should measure close to
	// the tone alone; the silent blocks fall below the absolute gate.
	rate := 48000
	tone := sine(997, 0.5, rate, rate, 1)
	padded := append(tone, make([]float64, rate*3)...)

	m := Meter{SampleRate: rate, Channels: 1}
	toneOnly, err := m.IntegratedLoudness(tone)
	if err != nil {
		t.Fatal(err)
	}
	withSilence, err := m.IntegratedLoudness(padded)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(toneOnly-withSilence) > 0.5 {
		t.Errorf("gated loudness drifted from %.2f to %.2f with appended silence", toneOnly, withSilence)
	}
}
