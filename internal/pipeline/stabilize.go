package pipeline

import (
	"github.com/loopsmith/loopsmith/internal/audio"
)

// Loop stabilisation constants.
const (
	stabilizeWindowMs     = 50.0 // ms - start/end comparison window
	stabilizeWindowFrac   = 4    // window never exceeds 1/N of the buffer
	stabilizeMinShift     = 3    // smaller lags than this are left alone
	stabilizeMaxShiftMs   = 10.0 // ms - largest circular shift applied
	stabilizeTailSourceMs = 200  // ms - how far from the end padding is drawn
	stabilizeMidSegMs     = 100  // ms - middle-segment fallback cap
	stabilizeXfadeShortMs = 10.0 // ms - micro-crossfade for transient material
	stabilizeXfadeLongMs  = 50.0 // ms - micro-crossfade for sustained material
)

// StabilizeOptions configures StabilizeLoop.
type StabilizeOptions struct {
	// TargetDurationSec forces the output to an exact length when > 0.
	TargetDurationSec float64
}

// StabilizeLoop is the final stage before encoding. It forces an exact
// duration when requested, aligns the seam with a small circular shift
// found by cross-correlating the start and end windows, and seals the loop
// with an adaptive equal-power micro-crossfade written to both ends.
// Buffers shorter than two comparison windows come back unchanged beyond
// the duration step.
func StabilizeLoop(buf *audio.Buffer, sampleRate int, opts StabilizeOptions) *audio.Buffer {
	out := buf.Clone()

	if opts.TargetDurationSec > 0 {
		out = forceDuration(out, sampleRate, int(opts.TargetDurationSec*float64(sampleRate)))
	}

	numFrames := out.Frames()
	window := int(float64(sampleRate) * stabilizeWindowMs / 1000)
	if limit := numFrames / stabilizeWindowFrac; window > limit {
		window = limit
	}
	if numFrames < window*2 || window == 0 {
		return out
	}

	// Seam alignment: correlate the closing window against the opening one
	// and roll the buffer when the best lag is small but meaningful.
	startMono := out.Slice(0, window).MonoMix()
	endMono := out.Slice(numFrames-window, numFrames).MonoMix()
	lag := bestCorrelationLag(endMono, startMono)

	maxShift := window / 4
	if limit := int(float64(sampleRate) * stabilizeMaxShiftMs / 1000); maxShift > limit {
		maxShift = limit
	}
	if abs(lag) > stabilizeMinShift && abs(lag) <= maxShift {
		rollLeft(out, lag)
	}

	// Adaptive micro-crossfade: keep it short for percussive material so
	// transient shape survives, longer for beds and pads.
	xfadeMs := stabilizeXfadeLongMs
	if ClassifyCharacter(out.MonoMix(), sampleRate) == Transient {
		xfadeMs = stabilizeXfadeShortMs
	}
	xfade := int(float64(sampleRate) * xfadeMs / 1000)
	if limit := numFrames / 2; xfade > limit {
		xfade = limit
	}
	if xfade > 1 {
		fadeOut, fadeIn := EPCFGains(xfade)
		ch := out.Channels
		tailStart := (numFrames - xfade) * ch
		blended := make([]float64, xfade*ch)
		for i := 0; i < xfade; i++ {
			for c := 0; c < ch; c++ {
				blended[i*ch+c] = out.Data[tailStart+i*ch+c]*fadeOut[i] + out.Data[i*ch+c]*fadeIn[i]
			}
		}
		copy(out.Data[:xfade*ch], blended)
		copy(out.Data[tailStart:], blended)
	}
	return out
}

// forceDuration pads or trims buf to exactly target frames. Padding is
// drawn from near the tail, skipping the very end where a crossfade may
// already live, and tiled to length; a degenerate tail falls back to a
// segment from the middle.
func forceDuration(buf *audio.Buffer, sampleRate, target int) *audio.Buffer {
	numFrames := buf.Frames()
	if target == numFrames || target <= 0 {
		return buf
	}
	if target < numFrames {
		return buf.Slice(0, target)
	}

	need := target - numFrames
	sourceSpan := need * 2
	if limit := sampleRate * stabilizeTailSourceMs / 1000; sourceSpan > limit {
		sourceSpan = limit
	}
	start := numFrames - sourceSpan
	if start < 0 {
		start = 0
	}
	source := buf.Slice(start, numFrames)

	var pad *audio.Buffer
	if source.Frames() > 0 {
		pad = tile(source, need)
	} else {
		mid := numFrames / 2
		segLen := need
		if limit := sampleRate * stabilizeMidSegMs / 1000; segLen > limit {
			segLen = limit
		}
		seg := buf.Slice(mid, mid+segLen)
		if seg.Frames() == 0 {
			pad = audio.NewBuffer(need, buf.Channels)
		} else {
			pad = tile(seg, need)
		}
	}
	out := buf.Clone()
	out.Append(pad)
	return out
}

// bestCorrelationLag returns the lag of the peak of the full
// cross-correlation of end against start, where lag 0 means the windows
// already line up.
func bestCorrelationLag(end, start []float64) int {
	n := len(end)
	m := len(start)
	bestIdx, bestVal := 0, 0.0
	first := true
	// Full correlation has n+m-1 points; index k corresponds to sliding
	// start by k-(m-1) relative to end.
	for k := 0; k < n+m-1; k++ {
		shift := k - (m - 1)
		var sum float64
		for j := 0; j < m; j++ {
			i := j + shift
			if i < 0 || i >= n {
				continue
			}
			sum += end[i] * start[j]
		}
		if first || sum > bestVal {
			bestIdx, bestVal = k, sum
			first = false
		}
	}
	return bestIdx - (m - 1)
}

// rollLeft circularly shifts frames left by n (right for negative n).
func rollLeft(buf *audio.Buffer, n int) {
	frames := buf.Frames()
	if frames == 0 {
		return
	}
	n = ((n % frames) + frames) % frames
	if n == 0 {
		return
	}
	ch := buf.Channels
	rotated := make([]float64, len(buf.Data))
	copy(rotated, buf.Data[n*ch:])
	copy(rotated[(frames-n)*ch:], buf.Data[:n*ch])
	buf.Data = rotated
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
