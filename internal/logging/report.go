// Package logging handles generation of processing reports for mastered loops

package logging

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loopsmith/loopsmith/internal/pipeline"
)

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate a processing report
type ReportData struct {
	InputPath  string
	OutputPath string
	StartTime  time.Time
	EndTime    time.Time

	Result *pipeline.Result
	Config pipeline.Config
	Input  *pipeline.Analysis // measurements before processing
	Output *pipeline.Analysis // measurements after processing
}

// GenerateReport creates a processing report and saves it alongside the output
// file. The report filename will be <output>.log
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - timing and configuration
// 3. Stage Trace - frames and peak after each stage
// 4. Level Measurements - Input/Output comparison table
func GenerateReport(data ReportData) error {
	logPath := strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"

	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeProcessingSummary(f, data)
	writeStageTrace(f, data.Result)
	writeLevelTable(f, data.Input, data.Output)

	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(f *os.File, data ReportData) {
	fmt.Fprintln(f, "Loopsmith Processing Report")
	fmt.Fprintln(f, "===========================")
	fmt.Fprintf(f, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(f, "Output: %s\n", filepath.Base(data.OutputPath))
	fmt.Fprintf(f, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	if data.Input != nil {
		fmt.Fprintf(f, "Format: %d Hz, %s\n", data.Input.SampleRate, channelName(data.Input.Channels))
	}
	fmt.Fprintln(f, "")
}

// writeProcessingSummary outputs the timing and configuration summary.
func writeProcessingSummary(f *os.File, data ReportData) {
	writeSection(f, "Processing Summary")

	fmt.Fprintf(f, "Total time: %s", formatDuration(data.EndTime.Sub(data.StartTime)))
	if data.Input != nil && data.Input.DurationSec > 0 {
		audioDuration := time.Duration(data.Input.DurationSec * float64(time.Second))
		elapsed := data.EndTime.Sub(data.StartTime)
		if elapsed > 0 {
			rtf := float64(audioDuration) / float64(elapsed)
			fmt.Fprintf(f, " (%.0fx real-time)", rtf)
		}
	}
	fmt.Fprintln(f, "")

	cfg := data.Config
	fmt.Fprintf(f, "Trim threshold:  %.1f dBFS\n", cfg.TrimThresholdDB)
	if cfg.EnableNoiseReduction {
		fmt.Fprintf(f, "Noise gate:      threshold %.1f dB, reduction %.1f dB\n",
			cfg.GateThresholdDB, cfg.GateReductionDB)
	} else {
		fmt.Fprintln(f, "Noise gate:      disabled")
	}
	if cfg.XfadeDurationMs > 0 {
		mode := "legacy"
		if cfg.EnforceSeamlessLoop {
			mode = "seamless"
		}
		fmt.Fprintf(f, "Crossfade:       %d ms (%s)\n", cfg.XfadeDurationMs, mode)
	} else {
		fmt.Fprintln(f, "Crossfade:       disabled")
	}
	if cfg.UsePeakNorm {
		fmt.Fprintf(f, "Normalisation:   peak to %.1f dBFS, ceiling %.1f dBFS\n",
			cfg.TargetLevel, cfg.MaxPeakDbfs)
	} else {
		fmt.Fprintf(f, "Normalisation:   %.1f LUFS, ceiling %.1f dBFS\n",
			cfg.TargetLevel, cfg.MaxPeakDbfs)
	}
	if cfg.EnableStabilization {
		if cfg.TargetDurationSec > 0 {
			fmt.Fprintf(f, "Stabilisation:   enabled, forced duration %.2f s\n", cfg.TargetDurationSec)
		} else {
			fmt.Fprintln(f, "Stabilisation:   enabled")
		}
	} else {
		fmt.Fprintln(f, "Stabilisation:   disabled")
	}
	fmt.Fprintln(f, "")
}

// writeStageTrace outputs one line per pipeline stage with frame count and peak.
func writeStageTrace(f *os.File, res *pipeline.Result) {
	if res == nil || len(res.Stages) == 0 {
		return
	}

	writeSection(f, "Stage Trace")

	labelWidth := 0
	for _, st := range res.Stages {
		if len(st.Name) > labelWidth {
			labelWidth = len(st.Name)
		}
	}

	for _, st := range res.Stages {
		duration := 0.0
		if res.SampleRate > 0 {
			duration = float64(st.Frames) / float64(res.SampleRate)
		}
		fmt.Fprintf(f, "%-*s  %8d frames  %7.3f s  peak %s dBFS\n",
			labelWidth, st.Name, st.Frames, duration, formatMetricDB(st.PeakDbfs, 1))
	}
	fmt.Fprintln(f, "")
}

// writeLevelTable outputs an Input/Output comparison table for level metrics.
func writeLevelTable(f *os.File, input, output *pipeline.Analysis) {
	if input == nil && output == nil {
		return
	}

	writeSection(f, "Level Measurements")

	table := NewMetricTable()

	inDur, outDur := math.NaN(), math.NaN()
	inPeak, outPeak := math.NaN(), math.NaN()
	inRMS, outRMS := math.NaN(), math.NaN()
	inLUFS, outLUFS := math.NaN(), math.NaN()
	if input != nil {
		inDur = input.DurationSec
		inPeak = input.PeakDbfs
		inRMS = input.RMSDbfs
		inLUFS = input.Loudness
	}
	if output != nil {
		outDur = output.DurationSec
		outPeak = output.PeakDbfs
		outRMS = output.RMSDbfs
		outLUFS = output.Loudness
	}

	table.AddMetricRow("Duration", inDur, outDur, 2, "s", "")
	table.AddRow("Sample Peak",
		[]string{formatMetricDB(inPeak, 1), formatMetricDB(outPeak, 1)}, "dBFS", "")
	table.AddRow("RMS Level",
		[]string{formatMetricDB(inRMS, 1), formatMetricDB(outRMS, 1)}, "dBFS", "")
	table.AddRow("Integrated Loudness",
		[]string{formatMetricLUFS(inLUFS, 1), formatMetricLUFS(outLUFS, 1)}, "LUFS", "")

	if !math.IsNaN(inLUFS) && !math.IsNaN(outLUFS) &&
		!math.IsInf(inLUFS, 0) && !math.IsInf(outLUFS, 0) {
		table.AddRow("Loudness Change",
			[]string{MissingValue, formatMetricSigned(outLUFS-inLUFS, 1)}, "LU", "")
	}

	if output != nil {
		table.AddRow("Character",
			[]string{MissingValue, output.Character.String()}, "", "")
	}

	fmt.Fprint(f, table.String())
	fmt.Fprintln(f, "")
}
