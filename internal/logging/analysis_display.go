// Package logging handles generation of processing reports for mastered loops.
// This file provides console display for analyze-only mode.

package logging

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/loopsmith/loopsmith/internal/pipeline"
)

// DisplayAnalysisResults outputs clip measurements to the console.
// Used by --analyze mode for rapid inspection without writing output files.
func DisplayAnalysisResults(w io.Writer, inputPath string, a pipeline.Analysis) {
	// Header
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	// File info
	fmt.Fprintf(w, "Duration:    %.2f s (%d frames)\n", a.DurationSec, a.Frames)
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", a.SampleRate)
	fmt.Fprintf(w, "Channels:    %s\n", channelName(a.Channels))
	fmt.Fprintln(w)

	// Levels section
	writeAnalysisSection(w, "LEVELS")
	fmt.Fprintf(w, "  Sample Peak:    %s dBFS\n", formatMetricDB(a.PeakDbfs, 1))
	fmt.Fprintf(w, "  RMS Level:      %s dBFS\n", formatMetricDB(a.RMSDbfs, 1))
	if math.IsNaN(a.Loudness) {
		fmt.Fprintln(w, "  Integrated:     - (clip too short to measure)")
	} else {
		fmt.Fprintf(w, "  Integrated:     %s LUFS\n", formatMetricLUFS(a.Loudness, 1))
	}
	crest := a.PeakDbfs - a.RMSDbfs
	if !math.IsNaN(crest) && !math.IsInf(crest, 0) {
		fmt.Fprintf(w, "  Crest Factor:   %.1f dB\n", crest)
	}
	fmt.Fprintln(w)

	// Character section
	writeAnalysisSection(w, "CHARACTER")
	fmt.Fprintf(w, "  Classified:     %s\n", a.Character)
	switch a.Character {
	case pipeline.Transient:
		fmt.Fprintln(w, "  Loop fades will use a short crossfade to keep attacks crisp")
	default:
		fmt.Fprintln(w, "  Loop fades will use a long crossfade for a smooth seam")
	}
	fmt.Fprintln(w)
}

// writeAnalysisSection writes a section header for analysis display
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}
