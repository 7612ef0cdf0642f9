package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration at path and returns a validated
// Config. It is a convenience wrapper around LoadFromReader.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown keys are rejected so typos fail loudly instead of silently
// falling back to defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: all defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values, returning a
// joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.XfadeDurationMs != nil && *cfg.XfadeDurationMs < 0 {
		errs = append(errs, fmt.Errorf("xfade_duration_ms must not be negative, got %d", *cfg.XfadeDurationMs))
	}
	if cfg.GateReductionDB != nil && *cfg.GateReductionDB < 0 {
		errs = append(errs, fmt.Errorf("gate_reduction_db must not be negative, got %g", *cfg.GateReductionDB))
	}
	if cfg.GateWindowMs != nil && *cfg.GateWindowMs <= 0 {
		errs = append(errs, fmt.Errorf("gate_window_ms must be positive, got %g", *cfg.GateWindowMs))
	}
	if cfg.TargetDurationSec != nil && *cfg.TargetDurationSec < 0 {
		errs = append(errs, fmt.Errorf("target_duration_sec must not be negative, got %g", *cfg.TargetDurationSec))
	}
	if cfg.MaxPeakDbfs != nil && *cfg.MaxPeakDbfs > 0 {
		errs = append(errs, fmt.Errorf("max_peak_dbfs must not exceed 0 dBFS, got %g", *cfg.MaxPeakDbfs))
	}

	return errors.Join(errs...)
}
