package pitch

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"sightread/pkg/bitint"
)

// YIN estimates the fundamental with the spectral variant of the YIN
// algorithm: the difference function is derived from an FFT-based
// autocorrelation, normalized into the cumulative mean normalized
// difference, and the first lag dipping under the absolute threshold is
// refined by parabolic interpolation.
//
// YIN prefers the smallest qualifying lag, so it resists the
// subharmonic drift that plain autocorrelation needs a correction pass
// for. It is the closed second variant behind the Estimator interface.
type YIN struct {
	cfg Config
}

// NewYIN constructs the detector with the given tuning.
func NewYIN(cfg Config) *YIN {
	return &YIN{cfg: cfg}
}

// Estimate returns the fundamental frequency of buf in Hz, or NoPitch.
func (y *YIN) Estimate(buf []float64, sampleRate float64) float64 {
	n := len(buf)
	if n == 0 || sampleRate <= 0 {
		return NoPitch
	}
	if rms(buf) < y.cfg.NoiseFloor {
		return NoPitch
	}

	minLag, maxLag, ok := y.cfg.lagRange(n, sampleRate)
	if !ok {
		return NoPitch
	}

	r := autocorrelateFFT(buf)

	// Difference function d(tau) = r(0) - r(tau), then the cumulative
	// mean normalized difference d'(tau) = d(tau) * tau / sum(d(1..tau)).
	cmnd := make([]float64, maxLag+2)
	cmnd[0] = 1
	runningSum := 0.0
	for tau := 1; tau <= maxLag+1 && tau < len(r); tau++ {
		d := r[0] - r[tau]
		if d < 0 {
			d = 0
		}
		runningSum += d
		if runningSum == 0 {
			cmnd[tau] = 1
			continue
		}
		cmnd[tau] = d * float64(tau) / runningSum
	}

	// Absolute threshold: take the first lag under the threshold, then
	// follow the dip to its local minimum.
	tau := -1
	for t := minLag; t <= maxLag; t++ {
		if cmnd[t] < y.cfg.YinThreshold {
			for t+1 <= maxLag && cmnd[t+1] < cmnd[t] {
				t++
			}
			tau = t
			break
		}
	}
	if tau == -1 {
		return NoPitch
	}

	freq := sampleRate / refineLag(cmnd, tau, minLag, maxLag)
	if !y.cfg.inFundamentalBand(freq) {
		return NoPitch
	}
	return freq
}

// autocorrelateFFT computes the linear autocorrelation of buf via the
// Wiener-Khinchin route: zero-pad to at least twice the length, forward
// FFT, power spectrum, inverse. Returns r where r[tau] is the
// unnormalized correlation at that lag.
func autocorrelateFFT(buf []float64) []float64 {
	n := len(buf)
	m := bitint.NextPowerOfTwo(2 * n)

	padded := make([]float64, m)
	copy(padded, buf)

	fft := fourier.NewFFT(m)
	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		coeff[i] = c * cmplx.Conj(c)
	}
	seq := fft.Sequence(nil, coeff)

	// The round trip through Coefficients and Sequence scales by m.
	r := make([]float64, n)
	inv := 1 / float64(m)
	for i := range r {
		r[i] = seq[i] * inv
	}
	return r
}
