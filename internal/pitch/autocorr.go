package pitch

import "math"

// AutoCorrelation estimates the fundamental by scanning normalized
// dot-product correlations over the lag range of the search band,
// refining the best lag with parabolic interpolation, then correcting
// overtone locks by testing subharmonic candidates.
//
// Naive autocorrelation reliably mis-locks onto harmonics for
// instruments richer in overtones than voice (plucked strings above
// all), which is why the subharmonic pass exists.
type AutoCorrelation struct {
	cfg Config
}

// NewAutoCorrelation constructs the detector with the given tuning.
func NewAutoCorrelation(cfg Config) *AutoCorrelation {
	return &AutoCorrelation{cfg: cfg}
}

// Estimate returns the fundamental frequency of buf in Hz, or NoPitch.
func (a *AutoCorrelation) Estimate(buf []float64, sampleRate float64) float64 {
	n := len(buf)
	if n == 0 || sampleRate <= 0 {
		return NoPitch
	}
	if rms(buf) < a.cfg.NoiseFloor {
		return NoPitch
	}

	x := normalizeByPeak(buf)

	minLag, maxLag, ok := a.cfg.lagRange(n, sampleRate)
	if !ok {
		return NoPitch
	}

	// Normalized correlation per lag. Dividing by the overlap count
	// keeps long lags comparable to short ones.
	corr := make([]float64, maxLag+2)
	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		count := n - lag
		var sum float64
		for i := 0; i < count; i++ {
			sum += x[i] * x[i+lag]
		}
		c := sum / float64(count)
		corr[lag] = c
		if c > bestCorr {
			bestCorr = c
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr <= 0 {
		return NoPitch
	}

	lag := a.earliestStrongPeak(corr, bestLag, bestCorr, minLag, maxLag)
	freq := sampleRate / refineLag(corr, lag, minLag, maxLag)
	freq = a.correctOvertoneLock(freq, bestCorr, corr, minLag, maxLag, sampleRate)

	if !a.cfg.inFundamentalBand(freq) {
		return NoPitch
	}
	return freq
}

// earliestStrongPeak picks the lag to report from the correlation scan.
// Count normalization makes peaks at period multiples near-ties with
// the true period, so the global maximum alone drifts onto subharmonic
// lags. Instead: skip the zero-lag shoulder by descending to the first
// valley, then take the first local peak whose correlation reaches the
// peak-decay fraction of the global maximum. The global maximum is the
// fallback if nothing qualifies.
func (a *AutoCorrelation) earliestStrongPeak(corr []float64, bestLag int, bestCorr float64, minLag, maxLag int) int {
	floor := a.cfg.PeakDecay * bestCorr

	lag := minLag
	for lag+1 <= maxLag && corr[lag+1] <= corr[lag] {
		lag++
	}
	for ; lag <= maxLag; lag++ {
		if corr[lag] >= floor {
			for lag+1 <= maxLag && corr[lag+1] > corr[lag] {
				lag++
			}
			return lag
		}
	}
	return bestLag
}

// correctOvertoneLock walks an out-of-band estimate down through
// subharmonic candidates freq/k, k in 2..6. A candidate wins when it
// lands inside the expected fundamental band and its own correlation
// holds up against the best peak within the configured tolerance ratio.
// The pass repeats on the adjusted estimate until it is in band or no
// candidate qualifies; estimates already inside the band are left
// alone, since the correlation scan itself favors the true period
// there.
func (a *AutoCorrelation) correctOvertoneLock(freq, bestCorr float64, corr []float64, minLag, maxLag int, sampleRate float64) float64 {
	for iter := 0; iter < 4 && freq > a.cfg.FundamentalMax; iter++ {
		adjusted := false
		for k := 2; k <= 6; k++ {
			cand := freq / float64(k)
			if !a.cfg.inFundamentalBand(cand) {
				continue
			}
			lag := int(math.Round(sampleRate / cand))
			if lag < minLag || lag > maxLag {
				continue
			}
			if corr[lag] >= a.cfg.HarmonicTolerance*bestCorr {
				freq = cand
				adjusted = true
				break
			}
		}
		if !adjusted {
			break
		}
	}
	return freq
}

// normalizeByPeak returns a copy of buf scaled so the peak absolute
// sample is 1. The copy keeps Estimate pure with respect to its input.
func normalizeByPeak(buf []float64) []float64 {
	var peak float64
	for _, s := range buf {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	x := make([]float64, len(buf))
	if peak == 0 {
		return x
	}
	inv := 1 / peak
	for i, s := range buf {
		x[i] = s * inv
	}
	return x
}
