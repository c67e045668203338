/*
Package pitch implements real-time fundamental-frequency estimation from
time-domain sample buffers.

Two estimators are provided behind one interface: a normalized
autocorrelation detector with harmonic-rejection heuristics (the
default) and a spectral YIN detector. Both are pure functions of
(buffer, sample rate, configuration): no state is carried between
calls, so an estimator may be invoked from any goroutine.

All failure paths return the NoPitch sentinel rather than an error so
the per-frame polling loop never needs error handling.
*/
package pitch

import (
	"fmt"
	"math"
)

// NoPitch is returned when no fundamental could be estimated: silence,
// no periodicity, or a result outside the expected fundamental band.
const NoPitch = -1

// Estimator maps a buffer of time-domain samples to a fundamental
// frequency in Hz, or NoPitch.
type Estimator interface {
	Estimate(buf []float64, sampleRate float64) float64
}

// Algorithm names accepted by New.
const (
	AlgorithmAutoCorrelation = "autocorrelation"
	AlgorithmYIN             = "yin"
)

// Config carries the tunables shared by the estimator variants. The
// search band bounds the correlation lag range; the fundamental band is
// the range a reported pitch must finally fall into. Harmonic tolerance
// and the YIN threshold are empirically tuned values, not invariants.
type Config struct {
	MinFrequency      float64 // Search band lower edge (Hz); defines the maximum lag.
	MaxFrequency      float64 // Search band upper edge (Hz); defines the minimum lag.
	FundamentalMin    float64 // Expected fundamental band lower edge (Hz).
	FundamentalMax    float64 // Expected fundamental band upper edge (Hz).
	NoiseFloor        float64 // RMS below this fails immediately.
	HarmonicTolerance float64 // Correlation ratio a subharmonic candidate must reach.
	PeakDecay         float64 // Fraction of the global peak an earlier peak must reach to win.
	YinThreshold      float64 // YIN cumulative-difference acceptance threshold.
}

// DefaultConfig returns the tuning used by the trainer out of the box:
// a guitar/voice-friendly search band with fundamentals expected in
// [60, 400] Hz.
func DefaultConfig() Config {
	return Config{
		MinFrequency:      60,
		MaxFrequency:      1200,
		FundamentalMin:    60,
		FundamentalMax:    400,
		NoiseFloor:        0.01,
		HarmonicTolerance: 0.65,
		PeakDecay:         0.9,
		YinThreshold:      0.15,
	}
}

// New constructs the estimator named by algorithm. Unknown names are a
// construction-time error; there is no runtime fallback chain.
func New(algorithm string, cfg Config) (Estimator, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	switch algorithm {
	case AlgorithmAutoCorrelation, "":
		return &AutoCorrelation{cfg: cfg}, nil
	case AlgorithmYIN:
		return &YIN{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown pitch algorithm %q", algorithm)
	}
}

func (c Config) check() error {
	if c.MinFrequency <= 0 || c.MaxFrequency <= c.MinFrequency {
		return fmt.Errorf("search band [%.1f, %.1f] is invalid", c.MinFrequency, c.MaxFrequency)
	}
	if c.FundamentalMin < c.MinFrequency || c.FundamentalMax > c.MaxFrequency || c.FundamentalMax <= c.FundamentalMin {
		return fmt.Errorf("fundamental band [%.1f, %.1f] must sit inside the search band", c.FundamentalMin, c.FundamentalMax)
	}
	if c.HarmonicTolerance <= 0 || c.HarmonicTolerance > 1 {
		return fmt.Errorf("harmonic tolerance %.2f outside (0, 1]", c.HarmonicTolerance)
	}
	if c.PeakDecay <= 0 || c.PeakDecay > 1 {
		return fmt.Errorf("peak decay %.2f outside (0, 1]", c.PeakDecay)
	}
	return nil
}

// inFundamentalBand reports whether f lies inside the expected
// fundamental band.
func (c Config) inFundamentalBand(f float64) bool {
	return f >= c.FundamentalMin && f <= c.FundamentalMax
}

// lagRange converts the search band to a lag range for the given sample
// rate, clamped to the buffer length. Returns ok=false when the buffer
// is too short to cover the band.
func (c Config) lagRange(n int, sampleRate float64) (minLag, maxLag int, ok bool) {
	minLag = int(sampleRate / c.MaxFrequency)
	maxLag = int(sampleRate / c.MinFrequency)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	return minLag, maxLag, minLag < maxLag
}

// rms returns the root mean square of the buffer.
func rms(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// refineLag applies parabolic interpolation around a peak (or valley)
// at lag using its two neighbors, returning the lag refined to
// sub-sample precision. Falls back to the integer lag at the edges or
// on a degenerate parabola.
func refineLag(values []float64, lag, minLag, maxLag int) float64 {
	if lag <= minLag || lag >= maxLag {
		return float64(lag)
	}
	left, mid, right := values[lag-1], values[lag], values[lag+1]
	denom := left - 2*mid + right
	if denom == 0 {
		return float64(lag)
	}
	delta := 0.5 * (left - right) / denom
	// A well-formed fit keeps the refinement within one sample.
	if delta < -1 || delta > 1 {
		return float64(lag)
	}
	return float64(lag) + delta
}
