// Package config defines the trainer configuration: defaults, YAML file
// loading, environment overrides and validation. Every tunable of the
// pitch estimator and the progression engine lives here so components
// are constructed from explicit values, never ambient globals.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"sightread/pkg/bitint"
)

// Core limits and defaults for the capture and analysis path.
const (
	DefaultSampleRate      = 44100 // CD-quality audio
	DefaultFramesPerBuffer = 4096  // Analysis frame; power of 2
	DefaultChannels        = 1     // Mono capture
	DefaultDeviceID        = MinDeviceID

	MinDeviceID     = -1     // -1 selects the system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 16384  // Maximum frames per buffer (power of 2)
)

// Config is the root application configuration, loaded from YAML.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
	Command  string `yaml:"command,omitempty"` // One-off command (e.g. "list") instead of running the trainer.

	Audio     AudioConfig     `yaml:"audio"`
	Pitch     PitchConfig     `yaml:"pitch"`
	Progress  ProgressConfig  `yaml:"progress"`
	Session   SessionConfig   `yaml:"session"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
}

// AudioConfig holds microphone capture settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Samples per analysis frame (power of 2).
	InputChannels   int     `yaml:"input_channels"`    // 1 for mono, 2 for stereo (folded to mono).
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Amplitude gate, 0 disables.
}

// PitchConfig holds pitch estimator settings. The harmonic tolerance and
// band bounds are empirically tuned for plucked strings; treat them as
// tunables, not invariants.
type PitchConfig struct {
	Algorithm         string  `yaml:"algorithm"`          // "autocorrelation" or "yin".
	MinFrequency      float64 `yaml:"min_frequency"`      // Lower edge of the search band (Hz).
	MaxFrequency      float64 `yaml:"max_frequency"`      // Upper edge of the search band (Hz).
	FundamentalMin    float64 `yaml:"fundamental_min"`    // Expected fundamental band lower edge (Hz).
	FundamentalMax    float64 `yaml:"fundamental_max"`    // Expected fundamental band upper edge (Hz).
	NoiseFloor        float64 `yaml:"noise_floor"`        // RMS below this is treated as silence.
	HarmonicTolerance float64 `yaml:"harmonic_tolerance"` // Subharmonic correlation ratio vs best peak.
	PeakDecay         float64 `yaml:"peak_decay"`         // Early-peak acceptance ratio vs global peak.
	YinThreshold      float64 `yaml:"yin_threshold"`      // YIN absolute threshold.
}

// ProgressConfig holds the spaced-repetition progression settings.
type ProgressConfig struct {
	RequiredStreak   int   `yaml:"required_streak"`     // Fast-correct streak that counts as mastered.
	FastThresholdMs  int64 `yaml:"fast_threshold_ms"`   // Response time boundary between fast and slow.
	SlowLevelCap     int   `yaml:"slow_level_cap"`      // Max level reachable through slow answers.
	IntervalsMinutes []int `yaml:"intervals_minutes"`   // Review interval per level.
	ShortDelaySec    int   `yaml:"short_delay_sec"`     // Re-review delay after a slow answer.
	VeryShortDelay   int   `yaml:"very_short_delay_sec"` // Re-review delay after a wrong answer.
	UnlockFloor      int   `yaml:"unlock_floor"`        // Minimum unlocked curriculum prefix.
	HistorySize      int   `yaml:"history_size"`        // Rolling attempt history length.
}

// SessionConfig holds round orchestration settings.
type SessionConfig struct {
	Clef         string `yaml:"clef"`          // "treble" or "bass".
	KeySignature string `yaml:"key_signature"` // e.g. "C", "G", "F".
	RoundSize    int    `yaml:"round_size"`    // Cards per round.
}

// RecordingConfig holds practice-session recording settings.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"`
}

// TransportConfig holds event publishing settings for external UIs.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddr    string `yaml:"websocket_addr"`
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"`
}

// StorageConfig selects the key-value persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory".
	Path   string `yaml:"path"`   // SQLite database file.
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			LowLatency:      false,
			GateThreshold:   0.0,
		},
		Pitch: PitchConfig{
			Algorithm:         "autocorrelation",
			MinFrequency:      60,
			MaxFrequency:      1200,
			FundamentalMin:    60,
			FundamentalMax:    400,
			NoiseFloor:        0.01,
			HarmonicTolerance: 0.65,
			PeakDecay:         0.9,
			YinThreshold:      0.15,
		},
		Progress: ProgressConfig{
			RequiredStreak:   20,
			FastThresholdMs:  2500,
			SlowLevelCap:     2,
			IntervalsMinutes: []int{1, 5, 30, 120, 720, 2880},
			ShortDelaySec:    60,
			VeryShortDelay:   30,
			UnlockFloor:      3,
			HistorySize:      50,
		},
		Session: SessionConfig{
			Clef:         "treble",
			KeySignature: "C",
			RoundSize:    8,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    "127.0.0.1:8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "sightread.db",
		},
	}
}

// Load reads configuration from the YAML file at path. If path is empty
// it probes "config.yaml" and falls back to built-in defaults when no
// file exists. Environment overrides apply after file loading, then the
// result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field consistency of the configuration.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be a power of 2 <= %d, got %d", MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if c.Audio.InputChannels < 1 || c.Audio.InputChannels > 2 {
		return fmt.Errorf("audio.input_channels must be 1 or 2, got %d", c.Audio.InputChannels)
	}
	if c.Pitch.MinFrequency <= 0 || c.Pitch.MaxFrequency <= c.Pitch.MinFrequency {
		return fmt.Errorf("pitch band [%.1f, %.1f] is invalid", c.Pitch.MinFrequency, c.Pitch.MaxFrequency)
	}
	if c.Pitch.FundamentalMin < c.Pitch.MinFrequency || c.Pitch.FundamentalMax > c.Pitch.MaxFrequency {
		return fmt.Errorf("fundamental band [%.1f, %.1f] must sit inside the search band", c.Pitch.FundamentalMin, c.Pitch.FundamentalMax)
	}
	if c.Pitch.HarmonicTolerance <= 0 || c.Pitch.HarmonicTolerance > 1 {
		return fmt.Errorf("pitch.harmonic_tolerance must be in (0, 1], got %.2f", c.Pitch.HarmonicTolerance)
	}
	if c.Progress.RequiredStreak < 1 {
		return fmt.Errorf("progress.required_streak must be >= 1, got %d", c.Progress.RequiredStreak)
	}
	if len(c.Progress.IntervalsMinutes) == 0 {
		return fmt.Errorf("progress.intervals_minutes must not be empty")
	}
	if c.Progress.UnlockFloor < 1 {
		return fmt.Errorf("progress.unlock_floor must be >= 1, got %d", c.Progress.UnlockFloor)
	}
	if c.Session.Clef != "treble" && c.Session.Clef != "bass" {
		return fmt.Errorf("session.clef must be \"treble\" or \"bass\", got %q", c.Session.Clef)
	}
	if c.Session.RoundSize < 1 {
		return fmt.Errorf("session.round_size must be >= 1, got %d", c.Session.RoundSize)
	}
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("storage.driver must be \"sqlite\" or \"memory\", got %q", c.Storage.Driver)
	}
	return nil
}

// applyEnvOverrides applies SIGHTREAD_* environment variables on top of
// whatever was loaded from defaults or file.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SIGHTREAD_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("SIGHTREAD_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("SIGHTREAD_STORAGE_PATH"); ok {
		c.Storage.Path = val
	}
	if val, ok := os.LookupEnv("SIGHTREAD_WS_ADDR"); ok {
		c.Transport.WebSocketAddr = val
		c.Transport.WebSocketEnabled = true
	}
	if val, ok := os.LookupEnv("SIGHTREAD_PITCH_ALGORITHM"); ok {
		c.Pitch.Algorithm = val
	}
}
