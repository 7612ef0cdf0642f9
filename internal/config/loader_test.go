package config

import (
	"strings"
	"testing"
)

func TestLoadFromReaderOverrides(t *testing.T) {
	yml := `
input_dir: /audio/raw
output_dir: /audio/loops
trim_threshold_db: -48
xfade_duration_ms: 60
peak_norm: true
target_lufs: -16
stabilize: false
`
	cfg, err := LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	p := cfg.Pipeline()
	if p.TrimThresholdDB != -48 {
		t.Errorf("TrimThresholdDB = %v, want -48", p.TrimThresholdDB)
	}
	if p.XfadeDurationMs != 60 {
		t.Errorf("XfadeDurationMs = %v, want 60", p.XfadeDurationMs)
	}
	if !p.UsePeakNorm {
		t.Error("UsePeakNorm not set")
	}
	if p.TargetLevel != -16 {
		t.Errorf("TargetLevel = %v, want -16", p.TargetLevel)
	}
	if p.EnableStabilization {
		t.Error("EnableStabilization not disabled")
	}
	// Untouched fields keep their defaults.
	if p.MaxPeakDbfs != -1 {
		t.Errorf("MaxPeakDbfs = %v, want default -1", p.MaxPeakDbfs)
	}
	if !p.EnableNoiseReduction {
		t.Error("EnableNoiseReduction lost its default")
	}
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	p := cfg.Pipeline()
	if p.TargetLevel != -12 || p.XfadeDurationMs != 100 {
		t.Errorf("empty config lost defaults: %+v", p)
	}
}

func TestLoadFromReaderUnknownKey(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("xfade_durationms: 10\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"negative crossfade", "xfade_duration_ms: -5"},
		{"negative reduction", "gate_reduction_db: -3"},
		{"zero gate window", "gate_window_ms: 0"},
		{"negative duration", "target_duration_sec: -1"},
		{"ceiling above full scale", "max_peak_dbfs: 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromReader(strings.NewReader(tt.yml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPipelineNilConfig(t *testing.T) {
	var c *Config
	p := c.Pipeline()
	if p.TargetLevel != -12 {
		t.Errorf("nil config defaults broken: %+v", p)
	}
}
