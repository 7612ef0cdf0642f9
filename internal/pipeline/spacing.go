package pipeline

import (
	"math"
	"sort"

	"github.com/loopsmith/loopsmith/internal/audio"
)

// Tick detection constants.
const (
	tickMinDistanceMs = 50.0 // ms - minimum separation between detected ticks
	tickHeightRatio   = 0.2  // fraction of global peak a tick must reach
	tickGapMargin     = 0.1  // fraction of the period kept clear of each tick
	tickSegmentRatio  = 0.3  // max tiled-segment length as fraction of period
	tickFallbackSegMs = 100  // ms - middle-of-buffer segment cap
)

// AdjustTickSpacing corrects the wrap-around gap of periodic material so
// that the distance from the last tick, across the loop point, to the first
// tick equals the median inter-tick period. Extra length is filled with
// quiet background audio captured between ticks, never silence. Negative
// adjustments trim from the end without cutting into the final tick.
//
// Buffers with fewer than three detectable ticks are returned unchanged.
func AdjustTickSpacing(buf *audio.Buffer, sampleRate int) *audio.Buffer {
	numFrames := buf.Frames()
	mono := absMean(buf)

	var globalPeak float64
	for _, v := range mono {
		if v > globalPeak {
			globalPeak = v
		}
	}
	if globalPeak <= 0 {
		return buf.Clone()
	}

	minDistance := int(float64(sampleRate) * tickMinDistanceMs / 1000)
	if minDistance < 1 {
		minDistance = 1
	}
	peaks := findPeaks(mono, globalPeak*tickHeightRatio, minDistance)
	if len(peaks) < 3 {
		return buf.Clone()
	}

	// Interior peaks give the cleanest period estimate; with exactly three
	// ticks there is no interior interval, so fall back to all of them.
	periods := diffs(peaks[1 : len(peaks)-1])
	if len(periods) == 0 {
		periods = diffs(peaks)
	}
	if len(periods) == 0 {
		return buf.Clone()
	}
	targetPeriod := median(periods)
	if targetPeriod <= 0 {
		return buf.Clone()
	}

	firstTick := peaks[0]
	lastTick := peaks[len(peaks)-1]
	wrapGap := firstTick + (numFrames - lastTick)
	adjustment := targetPeriod - wrapGap

	switch {
	case adjustment == 0:
		return buf.Clone()
	case adjustment > 0:
		pad := selectBackground(buf, peaks, targetPeriod, adjustment, sampleRate)
		out := buf.Clone()
		out.Append(pad)
		return out
	default:
		trailingGap := numFrames - lastTick
		remove := -adjustment
		if remove > trailingGap {
			remove = trailingGap
		}
		return buf.Slice(0, numFrames-remove)
	}
}

// absMean downmixes to a positive detection signal, the per-frame mean of
// absolute values across channels.
func absMean(buf *audio.Buffer) []float64 {
	n := buf.Frames()
	out := make([]float64, n)
	inv := 1.0 / float64(buf.Channels)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < buf.Channels; c++ {
			sum += math.Abs(buf.Data[i*buf.Channels+c])
		}
		out[i] = sum * inv
	}
	return out
}

// findPeaks locates local maxima at or above height, then enforces the
// minimum distance by keeping taller peaks first, the way scipy's
// find_peaks resolves conflicts.
func findPeaks(x []float64, height float64, minDistance int) []int {
	var candidates []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] > x[i+1] && x[i] >= height {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 || minDistance <= 1 {
		return candidates
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return x[candidates[order[a]]] > x[candidates[order[b]]]
	})

	removed := make([]bool, len(candidates))
	for _, idx := range order {
		if removed[idx] {
			continue
		}
		pos := candidates[idx]
		for j, other := range candidates {
			if j == idx || removed[j] {
				continue
			}
			if d := other - pos; d > -minDistance && d < minDistance {
				removed[j] = true
			}
		}
	}

	var peaks []int
	for i, pos := range candidates {
		if !removed[i] {
			peaks = append(peaks, pos)
		}
	}
	return peaks
}

func diffs(xs []int) []int {
	if len(xs) < 2 {
		return nil
	}
	out := make([]int, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

func median(xs []int) int {
	sorted := make([]int, len(xs))
	copy(sorted, xs)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// backgroundStrategy proposes a padding segment of exactly need frames, or
// nil when its source region cannot supply one.
type backgroundStrategy func() *audio.Buffer

// selectBackground returns need frames of quiet background audio. The
// candidate sources are tried in a fixed order so the fallback chain stays
// auditable: the widest interior gap, the tail gap, the head gap, a tiled
// inter-tick segment, then a tiled segment from the middle of the buffer.
func selectBackground(buf *audio.Buffer, peaks []int, period, need, sampleRate int) *audio.Buffer {
	numFrames := buf.Frames()
	margin := int(float64(period) * tickGapMargin)
	firstTick := peaks[0]
	lastTick := peaks[len(peaks)-1]
	headGap := firstTick
	tailGap := numFrames - lastTick

	strategies := []backgroundStrategy{
		// Widest gap between consecutive ticks, margins excluded.
		func() *audio.Buffer {
			bestStart, bestLen := -1, 0
			for i := 0; i < len(peaks)-1; i++ {
				gapStart := peaks[i] + margin
				gapEnd := peaks[i+1] - margin
				if l := gapEnd - gapStart; l > bestLen && l > need {
					bestStart, bestLen = gapStart, l
				}
			}
			if bestStart < 0 || bestLen < need {
				return nil
			}
			start := bestStart + (bestLen-need)/2
			return buf.Slice(start, start+need)
		},
		// Quiet tail after the last tick.
		func() *audio.Buffer {
			if tailGap <= need {
				return nil
			}
			offset := margin
			if m := tailGap - need; offset > m {
				offset = m
			}
			start := lastTick + offset
			if start+need <= numFrames {
				return buf.Slice(start, start+need)
			}
			return tile(buf.Slice(start, numFrames), need)
		},
		// Quiet head before the first tick.
		func() *audio.Buffer {
			if headGap <= need {
				return nil
			}
			offset := margin
			if m := headGap - need; offset > m {
				offset = m
			}
			end := firstTick - offset
			start := end - need
			if start >= 0 {
				return buf.Slice(start, end)
			}
			return tile(buf.Slice(0, end), need)
		},
		// Tiled segment from between the first two ticks.
		func() *audio.Buffer {
			mid := (peaks[0] + peaks[1]) / 2
			segLen := need
			if limit := int(float64(period) * tickSegmentRatio); segLen > limit {
				segLen = limit
			}
			if segLen < 1 {
				return nil
			}
			start := mid - segLen/2
			if start < 0 {
				start = 0
			}
			return tile(buf.Slice(start, start+segLen), need)
		},
		// Last resort: tiled segment from the middle of the buffer.
		func() *audio.Buffer {
			mid := numFrames / 2
			segLen := need
			if limit := sampleRate * tickFallbackSegMs / 1000; segLen > limit {
				segLen = limit
			}
			if segLen < 1 {
				return nil
			}
			return tile(buf.Slice(mid, mid+segLen), need)
		},
	}

	for _, s := range strategies {
		if pad := s(); pad != nil && pad.Frames() == need {
			return pad
		}
	}
	// All sources degenerate: zeros keep the length contract.
	return audio.NewBuffer(need, buf.Channels)
}

// tile repeats seg until it covers frames, truncating the final repeat.
func tile(seg *audio.Buffer, frames int) *audio.Buffer {
	if seg.Frames() == 0 {
		return nil
	}
	out := &audio.Buffer{
		Data:     make([]float64, 0, frames*seg.Channels),
		Channels: seg.Channels,
	}
	for out.Frames() < frames {
		out.Data = append(out.Data, seg.Data...)
	}
	out.Data = out.Data[:frames*seg.Channels]
	return out
}
