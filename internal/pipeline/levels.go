// Package pipeline implements the loop-mastering stages: silence trimming,
// noise gating, crossfade blending, loudness normalisation, and seam
// stabilisation for loopable audio assets.
package pipeline

import "math"

// Character classification constants.
const (
	characterWindowMs  = 10.0 // ms - analysis window for crest factor
	crestTransient     = 5.0  // peak/RMS ratio above which a window is percussive
	classifyMinWindows = 10   // fewer windows than this reads as sustained
)

// RMSEnergy returns the root-mean-square level of samples.
// An empty slice measures 0.
func RMSEnergy(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// ToDBFS converts a linear RMS or peak level to decibels relative to full
// scale. Non-positive input maps to -Inf.
func ToDBFS(level float64) float64 {
	if level <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(level)
}

// DbToLinear converts decibels to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDb converts linear amplitude to decibels. Non-positive input
// maps to -Inf.
func LinearToDb(v float64) float64 {
	return ToDBFS(v)
}

// Character describes the dominant temporal texture of a clip.
type Character int

const (
	// Sustained marks pads, drones and other steady material.
	Sustained Character = iota
	// Transient marks percussive, tick-like material.
	Transient
)

func (c Character) String() string {
	if c == Transient {
		return "transient"
	}
	return "sustained"
}

// ClassifyCharacter measures RMS and peak levels over 10 ms windows and
// reports Transient when the ratio of the average peak to the average RMS
// exceeds 5. Clips too short to fill ten windows read as Sustained.
func ClassifyCharacter(mono []float64, sampleRate int) Character {
	win := int(float64(sampleRate) * characterWindowMs / 1000)
	if win < 1 {
		win = 1
	}
	numWindows := len(mono) / win
	if numWindows < classifyMinWindows {
		return Sustained
	}

	var rmsSum, peakSum float64
	for w := 0; w < numWindows; w++ {
		seg := mono[w*win : (w+1)*win]
		var peak float64
		for _, v := range seg {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
		rmsSum += RMSEnergy(seg)
		peakSum += peak
	}
	avgRMS := rmsSum / float64(numWindows)
	avgPeak := peakSum / float64(numWindows)
	if avgRMS > 0 && avgPeak/(avgRMS+1e-10) > crestTransient {
		return Transient
	}
	return Sustained
}
