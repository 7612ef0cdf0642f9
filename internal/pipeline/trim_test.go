package pipeline

import (
	"testing"

	"github.com/loopsmith/loopsmith/internal/audio"
)

func TestTrimSilenceRemovesEdges(t *testing.T) {
	const rate = 44100
	tone := toneBuffer(t, 440, -12, rate, rate/2, 1)
	padded := padWithSilence(t, tone, rate/4, rate/4)

	trimmed := TrimSilence(padded, rate, -60, 0)
	if trimmed.Frames() > padded.Frames() {
		t.Fatal("trim grew the buffer")
	}
	// Allow one coarse block plus refinement slack at each edge.
	slack := 2 * (rate * 25 / 1000)
	if diff := trimmed.Frames() - tone.Frames(); diff < -slack || diff > slack {
		t.Errorf("trimmed to %d frames, want about %d", trimmed.Frames(), tone.Frames())
	}
	// The loud material must survive.
	if trimmed.Peak() < tone.Peak()*0.99 {
		t.Errorf("trim lost the tone, peak %v", trimmed.Peak())
	}
}

func TestTrimSilenceIdempotent(t *testing.T) {
	const rate = 44100
	tone := toneBuffer(t, 440, -12, rate, rate/2, 2)
	padded := padWithSilence(t, tone, rate/8, rate/3)

	once := TrimSilence(padded, rate, -60, 0)
	twice := TrimSilence(once, rate, -60, 0)
	if twice.Frames() != once.Frames() {
		t.Errorf("second trim changed length: %d -> %d", once.Frames(), twice.Frames())
	}
}

func TestTrimSilenceAllSilent(t *testing.T) {
	const rate = 44100
	silent := audio.NewBuffer(rate, 2)

	trimmed := TrimSilence(silent, rate, -60, 0)
	want := rate / 10 // 100 ms head retained
	if trimmed.Frames() != want {
		t.Errorf("all-silent trim kept %d frames, want %d", trimmed.Frames(), want)
	}
}

func TestTrimSilenceAllSilentShorterThanHead(t *testing.T) {
	const rate = 44100
	silent := audio.NewBuffer(rate/20, 1) // 50 ms, less than the 100 ms head

	trimmed := TrimSilence(silent, rate, -60, 0)
	if trimmed.Frames() != silent.Frames() {
		t.Errorf("kept %d frames, want %d", trimmed.Frames(), silent.Frames())
	}
}

func TestTrimSilenceShorterThanOneBlock(t *testing.T) {
	const rate = 44100
	short := toneBuffer(t, 440, -12, rate, rate*10/1000, 1) // 10 ms < 25 ms hop

	trimmed := TrimSilence(short, rate, -60, 0)
	if trimmed.Frames() != short.Frames() {
		t.Errorf("sub-block buffer changed: %d -> %d frames", short.Frames(), trimmed.Frames())
	}
}

func TestTrimSilenceLoudThroughout(t *testing.T) {
	const rate = 44100
	tone := toneBuffer(t, 440, -6, rate, rate, 1)

	trimmed := TrimSilence(tone, rate, -60, 0)
	if trimmed.Frames() != tone.Frames() {
		t.Errorf("loud buffer trimmed from %d to %d frames", tone.Frames(), trimmed.Frames())
	}
}
