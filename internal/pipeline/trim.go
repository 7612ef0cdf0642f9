package pipeline

import (
	"github.com/loopsmith/loopsmith/internal/audio"
)

// Silence trimming constants.
const (
	trimHopMs       = 25.0 // ms - coarse RMS block size
	trimFineGrainMs = 5.0  // ms - refinement search radius around coarse edges
	trimFineHopMs   = 1.0  // ms - refinement step
	trimAllSilentMs = 100  // ms - retained head when the whole clip is silent
)

// TrimSilence removes leading and trailing silence below thresholdDB (dBFS,
// RMS over 25 ms blocks), then refines each boundary at 1 ms granularity
// within +/-5 ms of the coarse edge. Both edges are always trimmed so that
// the result loops cleanly.
//
// minSilenceMs is reserved for interior silence detection and is currently
// unused.
func TrimSilence(buf *audio.Buffer, sampleRate int, thresholdDB float64, minSilenceMs int) *audio.Buffer {
	_ = minSilenceMs

	numFrames := buf.Frames()
	hop := int(float64(sampleRate) * trimHopMs / 1000)
	if hop < 1 || numFrames/hop == 0 {
		// Shorter than one detection block: nothing to measure.
		return buf.Clone()
	}

	detect := buf.MonoPeak()
	thresholdLinear := DbToLinear(thresholdDB)

	// Coarse pass over whole blocks. The ragged tail joins the final block
	// as zero padding so it cannot raise its RMS.
	numBlocks := numFrames / hop
	firstSound, lastSound := -1, -1
	for b := 0; b < numBlocks; b++ {
		rms := RMSEnergy(detect[b*hop : (b+1)*hop])
		if ToDBFS(rms) > thresholdDB {
			if firstSound == -1 {
				firstSound = b
			}
			lastSound = b
		}
	}

	if firstSound == -1 {
		// Entirely silent: keep a short head so downstream stages have
		// something to work with.
		keep := sampleRate * trimAllSilentMs / 1000
		if keep > numFrames {
			keep = numFrames
		}
		return buf.Slice(0, keep)
	}

	coarseStart := firstSound * hop
	coarseEnd := numFrames
	if lastSound < numBlocks-1 {
		coarseEnd = (lastSound + 1) * hop
		if coarseEnd > numFrames {
			coarseEnd = numFrames
		}
	}

	fineGrain := int(float64(sampleRate) * trimFineGrainMs / 1000)
	fineHop := int(float64(sampleRate) * trimFineHopMs / 1000)
	if fineHop < 1 {
		fineHop = 1
	}

	refinedStart := refineLeading(detect, coarseStart, fineGrain, fineHop, thresholdLinear, numFrames)
	refinedEnd := refineTrailing(detect, coarseEnd, fineGrain, fineHop, thresholdLinear)

	if refinedStart >= refinedEnd {
		refinedStart, refinedEnd = coarseStart, coarseEnd
	}
	return buf.Slice(refinedStart, refinedEnd)
}

// refineLeading scans forward through a window centred on the coarse start
// and returns the first 1 ms block whose RMS clears the linear threshold.
func refineLeading(detect []float64, coarseStart, fineGrain, fineHop int, threshold float64, numFrames int) int {
	searchStart := coarseStart - fineGrain
	if searchStart < 0 {
		searchStart = 0
	}
	searchEnd := coarseStart + fineGrain
	if searchEnd > numFrames {
		searchEnd = numFrames
	}
	window := detect[searchStart:searchEnd]
	if len(window) == 0 {
		return coarseStart
	}
	offset := 0
	for i := 0; i < len(window)-fineHop; i += fineHop {
		if RMSEnergy(window[i:i+fineHop]) > threshold {
			offset = i
			break
		}
	}
	return searchStart + offset
}

// refineTrailing scans backward through the window just before the coarse
// end and returns the frame after the last block still above threshold.
func refineTrailing(detect []float64, coarseEnd, fineGrain, fineHop int, threshold float64) int {
	searchStart := coarseEnd - fineGrain
	if searchStart < 0 {
		searchStart = 0
	}
	window := detect[searchStart:coarseEnd]
	if len(window) == 0 {
		return coarseEnd
	}
	offset := len(window)
	for i := len(window) - fineHop; i >= 0; i -= fineHop {
		lo := i
		if lo < 0 {
			lo = 0
		}
		if RMSEnergy(window[lo:i+fineHop]) > threshold {
			offset = i + fineHop
			break
		}
	}
	end := searchStart + offset
	if end > coarseEnd {
		end = coarseEnd
	}
	return end
}
