package pipeline

import (
	"math"
	"testing"

	"github.com/loopsmith/loopsmith/internal/audio"
)

// newTestRNG returns a deterministic noise generator in [-1, 1].
// A simple LCG avoids math/rand seeding across test runs.
func newTestRNG() func() float64 {
	state := uint32(12345)
	return func() float64 {
		state = state*1664525 + 1013904223
		return (float64(state)/float64(0xFFFFFFFF))*2.0 - 1.0
	}
}

// toneBuffer generates a sine tone at the given level in dBFS.
func toneBuffer(t *testing.T, freq, levelDB float64, rate, frames, channels int) *audio.Buffer {
	t.Helper()
	amp := math.Pow(10, levelDB/20)
	buf := audio.NewBuffer(frames, channels)
	for i := 0; i < frames; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}
	return buf
}

// noiseBuffer generates deterministic white noise at levelDB.
func noiseBuffer(t *testing.T, levelDB float64, frames, channels int) *audio.Buffer {
	t.Helper()
	amp := math.Pow(10, levelDB/20)
	rng := newTestRNG()
	buf := audio.NewBuffer(frames, channels)
	for i := 0; i < frames; i++ {
		v := amp * rng()
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}
	return buf
}

// tickBuffer places single-sample impulses of the given amplitude at each
// position in a zero buffer.
func tickBuffer(t *testing.T, positions []int, amp float64, frames, channels int) *audio.Buffer {
	t.Helper()
	buf := audio.NewBuffer(frames, channels)
	for _, p := range positions {
		for c := 0; c < channels; c++ {
			buf.Data[p*channels+c] = amp
		}
	}
	return buf
}

// padWithSilence returns silence + buf + silence.
func padWithSilence(t *testing.T, buf *audio.Buffer, leadFrames, tailFrames int) *audio.Buffer {
	t.Helper()
	out := audio.NewBuffer(leadFrames, buf.Channels)
	out.Append(buf)
	out.Append(audio.NewBuffer(tailFrames, buf.Channels))
	return out
}
