package pitch

import (
	"fmt"
	"math"
	"testing"

	"sightread/pkg/utils"
)

const (
	testSampleRate = 44100.0
	testFrameSize  = 4096
)

func newDetector(t *testing.T, algorithm string) Estimator {
	t.Helper()
	est, err := New(algorithm, DefaultConfig())
	if err != nil {
		t.Fatalf("New(%q): %v", algorithm, err)
	}
	return est
}

func withinPercent(got, want, pct float64) bool {
	return got > 0 && math.Abs(got-want)/want <= pct/100
}

func TestEstimate_PureSines(t *testing.T) {
	freqs := []float64{80, 85, 100, 110, 130, 150, 180, 220, 250, 287, 310, 330, 350}

	for _, algorithm := range []string{AlgorithmAutoCorrelation, AlgorithmYIN} {
		est := newDetector(t, algorithm)
		for _, f := range freqs {
			t.Run(fmt.Sprintf("%s/%.0fHz", algorithm, f), func(t *testing.T) {
				buf := utils.GenerateSineWave(testFrameSize, testSampleRate, f)
				got := est.Estimate(buf, testSampleRate)
				if !withinPercent(got, f, 1) {
					t.Errorf("Estimate = %.3f Hz, want within 1%% of %.1f", got, f)
				}
			})
		}
	}
}

// A second harmonic at equal or greater amplitude is the classic
// overtone trap; the estimator must still land on the fundamental.
func TestEstimate_DominantSecondHarmonic(t *testing.T) {
	fundamentals := []float64{90, 110, 150, 220, 300, 350}
	ratios := []float64{1.0, 1.5}

	for _, algorithm := range []string{AlgorithmAutoCorrelation, AlgorithmYIN} {
		est := newDetector(t, algorithm)
		for _, f := range fundamentals {
			for _, ratio := range ratios {
				t.Run(fmt.Sprintf("%s/%.0fHz/x%.1f", algorithm, f, ratio), func(t *testing.T) {
					buf := utils.GenerateHarmonicWave(testFrameSize, testSampleRate, f, []float64{1, ratio})
					got := est.Estimate(buf, testSampleRate)
					if !withinPercent(got, f, 1) {
						t.Errorf("Estimate = %.3f Hz, want within 1%% of %.1f (not %.1f)", got, f, 2*f)
					}
				})
			}
		}
	}
}

func TestEstimate_PluckedString(t *testing.T) {
	// Open-string fundamentals of a standard-tuned guitar.
	freqs := []float64{82.41, 110, 146.83, 196, 246.94, 329.63}

	for _, algorithm := range []string{AlgorithmAutoCorrelation, AlgorithmYIN} {
		est := newDetector(t, algorithm)
		for _, f := range freqs {
			t.Run(fmt.Sprintf("%s/%.2fHz", algorithm, f), func(t *testing.T) {
				buf := utils.GeneratePluckedString(testFrameSize, testSampleRate, f)
				got := est.Estimate(buf, testSampleRate)
				if !withinPercent(got, f, 1) {
					t.Errorf("Estimate = %.3f Hz, want within 1%% of %.2f", got, f)
				}
			})
		}
	}
}

func TestEstimate_QuietNoiseFails(t *testing.T) {
	// Uniform noise at 0.015 peak has RMS ~0.0087, under the 0.01 floor.
	buf := utils.GenerateNoise(testFrameSize, 0.015, 1)

	for _, algorithm := range []string{AlgorithmAutoCorrelation, AlgorithmYIN} {
		est := newDetector(t, algorithm)
		if got := est.Estimate(buf, testSampleRate); got != NoPitch {
			t.Errorf("%s: Estimate = %.3f, want NoPitch for sub-floor noise", algorithm, got)
		}
	}
}

func TestEstimate_DegenerateInputs(t *testing.T) {
	for _, algorithm := range []string{AlgorithmAutoCorrelation, AlgorithmYIN} {
		est := newDetector(t, algorithm)
		if got := est.Estimate(nil, testSampleRate); got != NoPitch {
			t.Errorf("%s: empty buffer = %.3f, want NoPitch", algorithm, got)
		}
		if got := est.Estimate(make([]float64, testFrameSize), testSampleRate); got != NoPitch {
			t.Errorf("%s: silent buffer = %.3f, want NoPitch", algorithm, got)
		}
		buf := utils.GenerateSineWave(testFrameSize, testSampleRate, 220)
		if got := est.Estimate(buf, 0); got != NoPitch {
			t.Errorf("%s: zero sample rate = %.3f, want NoPitch", algorithm, got)
		}
	}
}

// A 500 Hz tone sits above the expected fundamental band, so the
// correction pass must fold it down an octave into the band.
func TestAutoCorrelation_OvertoneFoldsIntoBand(t *testing.T) {
	est := newDetector(t, AlgorithmAutoCorrelation)
	buf := utils.GenerateSineWave(testFrameSize, testSampleRate, 500)
	got := est.Estimate(buf, testSampleRate)
	if !withinPercent(got, 250, 1) {
		t.Errorf("Estimate = %.3f Hz, want within 1%% of 250", got)
	}
}

// With the tolerance maxed out no subharmonic candidate can qualify, so
// an out-of-band lock is rejected rather than folded.
func TestAutoCorrelation_OutOfBandRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HarmonicTolerance = 1.0
	est := NewAutoCorrelation(cfg)

	buf := utils.GenerateSineWave(testFrameSize, testSampleRate, 880)
	if got := est.Estimate(buf, testSampleRate); got != NoPitch {
		t.Errorf("Estimate = %.3f, want NoPitch for unfoldable out-of-band tone", got)
	}
}

// YIN carries no correction pass: an out-of-band fundamental is a
// sentinel, never reported as signal.
func TestYIN_OutOfBandRejected(t *testing.T) {
	est := newDetector(t, AlgorithmYIN)
	buf := utils.GenerateSineWave(testFrameSize, testSampleRate, 880)
	if got := est.Estimate(buf, testSampleRate); got != NoPitch {
		t.Errorf("Estimate = %.3f, want NoPitch", got)
	}
}

func TestEstimate_IsPure(t *testing.T) {
	est := newDetector(t, AlgorithmAutoCorrelation)
	buf := utils.GenerateSineWave(testFrameSize, testSampleRate, 220)
	snapshot := make([]float64, len(buf))
	copy(snapshot, buf)

	first := est.Estimate(buf, testSampleRate)
	second := est.Estimate(buf, testSampleRate)

	if first != second {
		t.Errorf("repeat estimates differ: %.6f vs %.6f", first, second)
	}
	for i := range buf {
		if buf[i] != snapshot[i] {
			t.Fatalf("input buffer mutated at sample %d", i)
		}
	}
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	if _, err := New("cepstrum", DefaultConfig()); err == nil {
		t.Error("expected error for unknown algorithm, got nil")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted band", func(c *Config) { c.MaxFrequency = 10 }},
		{"fundamental outside band", func(c *Config) { c.FundamentalMax = 5000 }},
		{"zero tolerance", func(c *Config) { c.HarmonicTolerance = 0 }},
		{"peak decay above one", func(c *Config) { c.PeakDecay = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(AlgorithmAutoCorrelation, cfg); err == nil {
				t.Error("expected config error, got nil")
			}
		})
	}
}

func BenchmarkEstimate(b *testing.B) {
	buf := utils.GenerateSineWave(testFrameSize, testSampleRate, 220)

	for _, algorithm := range []string{AlgorithmAutoCorrelation, AlgorithmYIN} {
		est, err := New(algorithm, DefaultConfig())
		if err != nil {
			b.Fatal(err)
		}
		b.Run(algorithm, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				est.Estimate(buf, testSampleRate)
			}
		})
	}
}
