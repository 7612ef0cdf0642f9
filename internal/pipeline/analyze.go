package pipeline

import (
	"math"

	"github.com/loopsmith/loopsmith/internal/audio"
	"github.com/loopsmith/loopsmith/internal/loudness"
)

// Analysis captures read-only measurements of a clip. Nothing here mutates
// the buffer; it backs the analyze-only mode and the per-file reports.
type Analysis struct {
	Frames      int
	Channels    int
	SampleRate  int
	DurationSec float64
	PeakDbfs    float64
	RMSDbfs     float64
	Loudness    float64 // integrated LUFS; NaN when the clip is too short
	Character   Character
}

// Analyze measures buf without modifying it.
func Analyze(buf *audio.Buffer, sampleRate int) Analysis {
	a := Analysis{
		Frames:     buf.Frames(),
		Channels:   buf.Channels,
		SampleRate: sampleRate,
		PeakDbfs:   ToDBFS(buf.Peak()),
		RMSDbfs:    ToDBFS(RMSEnergy(buf.Data)),
		Loudness:   math.NaN(),
	}
	if sampleRate > 0 {
		a.DurationSec = float64(a.Frames) / float64(sampleRate)
	}

	m := loudness.Meter{SampleRate: sampleRate, Channels: buf.Channels}
	if lufs, err := m.IntegratedLoudness(buf.Data); err == nil {
		a.Loudness = lufs
	}

	a.Character = ClassifyCharacter(buf.MonoMix(), sampleRate)
	return a
}
