package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing-but-explicit.yaml"))
	if err == nil {
		t.Fatal("expected error for explicit missing file")
	}

	cfg = Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
	if cfg.Pitch.Algorithm != "autocorrelation" {
		t.Errorf("default algorithm = %q, want autocorrelation", cfg.Pitch.Algorithm)
	}
	if cfg.Progress.UnlockFloor != 3 {
		t.Errorf("default unlock floor = %d, want 3", cfg.Progress.UnlockFloor)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
pitch:
  algorithm: yin
  min_frequency: 70
  max_frequency: 1000
  fundamental_min: 70
  fundamental_max: 350
progress:
  required_streak: 5
session:
  clef: bass
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pitch.Algorithm != "yin" {
		t.Errorf("algorithm = %q, want yin", cfg.Pitch.Algorithm)
	}
	if cfg.Progress.RequiredStreak != 5 {
		t.Errorf("required streak = %d, want 5", cfg.Progress.RequiredStreak)
	}
	if cfg.Session.Clef != "bass" {
		t.Errorf("clef = %q, want bass", cfg.Session.Clef)
	}
	// Untouched sections keep their defaults.
	if cfg.Progress.FastThresholdMs != 2500 {
		t.Errorf("fast threshold = %d, want default 2500", cfg.Progress.FastThresholdMs)
	}
}

func TestLoad_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad sample rate", func(c *Config) { c.Audio.SampleRate = 100 }},
		{"non power-of-two frame", func(c *Config) { c.Audio.FramesPerBuffer = 1000 }},
		{"inverted pitch band", func(c *Config) { c.Pitch.MaxFrequency = 10 }},
		{"fundamental outside band", func(c *Config) { c.Pitch.FundamentalMax = 5000 }},
		{"zero tolerance", func(c *Config) { c.Pitch.HarmonicTolerance = 0 }},
		{"zero streak", func(c *Config) { c.Progress.RequiredStreak = 0 }},
		{"empty intervals", func(c *Config) { c.Progress.IntervalsMinutes = nil }},
		{"unknown clef", func(c *Config) { c.Session.Clef = "alto" }},
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "redis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIGHTREAD_PITCH_ALGORITHM", "yin")
	t.Setenv("SIGHTREAD_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.applyEnvOverrides()

	if cfg.Pitch.Algorithm != "yin" {
		t.Errorf("algorithm = %q, want env override yin", cfg.Pitch.Algorithm)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
}
