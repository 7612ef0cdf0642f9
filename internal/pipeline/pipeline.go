package pipeline

import (
	"github.com/loopsmith/loopsmith/internal/audio"
)

// Config is an immutable snapshot of every stage parameter. Build one with
// DefaultConfig and adjust fields before handing it to Process; stages
// never mutate it.
type Config struct {
	// Silence trimmer
	TrimThresholdDB float64
	MinSilenceMs    int

	// Noise gate
	EnableNoiseReduction bool
	GateThresholdDB      float64
	GateReductionDB      float64
	GateWindowMs         float64
	GateAttackMs         float64
	GateReleaseMs        float64

	// Crossfade engine; 0 disables the stage
	XfadeDurationMs     int
	PreNormalize        bool
	EnforceSeamlessLoop bool
	MirrorLoopStart     bool

	// Normalizer. TargetLevel is LUFS, or peak dBFS when UsePeakNorm.
	TargetLevel  float64
	MaxPeakDbfs  float64
	UsePeakNorm  bool

	// Loop stabilizer
	EnableStabilization bool
	TargetDurationSec   float64

	// Observer, when non-nil, is called after each stage completes with the
	// stage name and how many of the run's stages are done.
	Observer func(stage string, done, total int)
}

// stageCount reports how many stages Process will record for this config,
// including the initial input snapshot.
func (c Config) stageCount() int {
	n := 3 // input, trim, normalize
	if c.EnableNoiseReduction {
		n++
	}
	if c.XfadeDurationMs > 0 {
		n++
	}
	if c.EnableStabilization {
		n++
	}
	return n
}

// DefaultConfig returns the stock mastering parameters. This is the single
// place defaults are defined.
func DefaultConfig() Config {
	return Config{
		TrimThresholdDB: -60.0,
		MinSilenceMs:    2000,

		EnableNoiseReduction: true,
		GateThresholdDB:      -50.0,
		GateReductionDB:      24.0,
		GateWindowMs:         12.0,
		GateAttackMs:         2.0,
		GateReleaseMs:        40.0,

		XfadeDurationMs:     100,
		PreNormalize:        false,
		EnforceSeamlessLoop: true,
		MirrorLoopStart:     false,

		TargetLevel: -12.0,
		MaxPeakDbfs: -1.0,
		UsePeakNorm: false,

		EnableStabilization: true,
		TargetDurationSec:   0,
	}
}

// StageResult records what one stage did to the buffer, for reporting.
type StageResult struct {
	Name     string
	Frames   int
	PeakDbfs float64
}

// Result summarises a full pipeline run.
type Result struct {
	Stages     []StageResult
	Character  Character
	SampleRate int
}

// Process runs the mastering chain over buf:
//
//	Trim -> [NoiseGate] -> [Crossfade] -> Normalize -> [Stabilize]
//
// The bracketed stages honour their config toggles; the order is fixed.
// An empty buffer passes straight through. Stages degrade gracefully on
// degenerate input rather than failing, so Process itself never errors;
// the caller only deals with I/O failures.
func Process(buf *audio.Buffer, sampleRate int, cfg Config) (*audio.Buffer, *Result) {
	res := &Result{SampleRate: sampleRate}
	total := cfg.stageCount()
	record := func(name string, b *audio.Buffer) {
		res.Stages = append(res.Stages, StageResult{
			Name:     name,
			Frames:   b.Frames(),
			PeakDbfs: ToDBFS(b.Peak()),
		})
		if cfg.Observer != nil {
			cfg.Observer(name, len(res.Stages), total)
		}
	}

	if buf.Frames() == 0 {
		record("input", buf)
		return buf.Clone(), res
	}
	record("input", buf)

	out := TrimSilence(buf, sampleRate, cfg.TrimThresholdDB, cfg.MinSilenceMs)
	record("trim", out)

	if cfg.EnableNoiseReduction {
		out = ApplyNoiseReduction(out, sampleRate, GateOptions{
			ThresholdDB: cfg.GateThresholdDB,
			ReductionDB: cfg.GateReductionDB,
			WindowMs:    cfg.GateWindowMs,
			AttackMs:    cfg.GateAttackMs,
			ReleaseMs:   cfg.GateReleaseMs,
		})
		record("gate", out)
	}

	if cfg.XfadeDurationMs > 0 {
		out = ApplyCrossfade(out, sampleRate, CrossfadeOptions{
			DurationMs:          cfg.XfadeDurationMs,
			PreNormalize:        cfg.PreNormalize,
			EnforceSeamlessLoop: cfg.EnforceSeamlessLoop,
			MirrorLoopStart:     cfg.MirrorLoopStart,
		})
		record("crossfade", out)
	}

	if cfg.UsePeakNorm {
		out = NormalizePeak(out, cfg.TargetLevel, cfg.MaxPeakDbfs)
	} else {
		out = NormalizeLoudness(out, sampleRate, cfg.TargetLevel, cfg.MaxPeakDbfs)
	}
	record("normalize", out)

	if cfg.EnableStabilization {
		out = StabilizeLoop(out, sampleRate, StabilizeOptions{
			TargetDurationSec: cfg.TargetDurationSec,
		})
		record("stabilize", out)
	}

	res.Character = ClassifyCharacter(out.MonoMix(), sampleRate)
	return out, res
}
