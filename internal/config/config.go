// Package config provides the YAML configuration schema and loader for the
// loopsmith batch processor.
package config

import "github.com/loopsmith/loopsmith/internal/pipeline"

// Config is the on-disk configuration. Every field is optional; zero
// values fall back to the stock pipeline defaults when converted with
// Pipeline.
type Config struct {
	// Paths
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	// Silence trimming
	TrimThresholdDB *float64 `yaml:"trim_threshold_db"`
	MinSilenceMs    *int     `yaml:"min_silence_ms"`

	// Noise gate
	NoiseReduction   *bool    `yaml:"noise_reduction"`
	GateThresholdDB  *float64 `yaml:"gate_threshold_db"`
	GateReductionDB  *float64 `yaml:"gate_reduction_db"`
	GateWindowMs     *float64 `yaml:"gate_window_ms"`
	GateAttackMs     *float64 `yaml:"gate_attack_ms"`
	GateReleaseMs    *float64 `yaml:"gate_release_ms"`

	// Crossfade
	XfadeDurationMs *int  `yaml:"xfade_duration_ms"`
	SeamlessLoop    *bool `yaml:"seamless_loop"`
	MirrorHead      *bool `yaml:"mirror_head"`

	// Normalization
	TargetLufs  *float64 `yaml:"target_lufs"`
	MaxPeakDbfs *float64 `yaml:"max_peak_dbfs"`
	PeakNorm    *bool    `yaml:"peak_norm"`

	// Loop stabilization
	Stabilize         *bool    `yaml:"stabilize"`
	TargetDurationSec *float64 `yaml:"target_duration_sec"`
}

// Pipeline converts the file config into a pipeline.Config, starting from
// the stock defaults and overriding only the fields present in the file.
func (c *Config) Pipeline() pipeline.Config {
	out := pipeline.DefaultConfig()
	if c == nil {
		return out
	}
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setB := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setF(&out.TrimThresholdDB, c.TrimThresholdDB)
	setI(&out.MinSilenceMs, c.MinSilenceMs)
	setB(&out.EnableNoiseReduction, c.NoiseReduction)
	setF(&out.GateThresholdDB, c.GateThresholdDB)
	setF(&out.GateReductionDB, c.GateReductionDB)
	setF(&out.GateWindowMs, c.GateWindowMs)
	setF(&out.GateAttackMs, c.GateAttackMs)
	setF(&out.GateReleaseMs, c.GateReleaseMs)
	setI(&out.XfadeDurationMs, c.XfadeDurationMs)
	setB(&out.EnforceSeamlessLoop, c.SeamlessLoop)
	setB(&out.MirrorLoopStart, c.MirrorHead)
	setF(&out.TargetLevel, c.TargetLufs)
	setF(&out.MaxPeakDbfs, c.MaxPeakDbfs)
	setB(&out.UsePeakNorm, c.PeakNorm)
	setB(&out.EnableStabilization, c.Stabilize)
	setF(&out.TargetDurationSec, c.TargetDurationSec)
	return out
}
