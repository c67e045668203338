// Package utils holds test helpers shared by the pitch and trainer
// packages: synthetic waveform generators with known fundamentals and a
// mock event publisher.
package utils

import (
	"math"
	"math/rand"
)

// MockPublisher implements the transport.Publisher interface for testing.
type MockPublisher struct {
	Events []interface{}
}

// Publish stores the event for later inspection instead of transmitting.
func (m *MockPublisher) Publish(event interface{}) error {
	m.Events = append(m.Events, event)
	return nil
}

// Close is a no-op for the mock.
func (m *MockPublisher) Close() error { return nil }

// GenerateSineWave returns size samples of a pure sine at frequency Hz,
// peak amplitude 0.8.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = 0.8 * math.Sin(2*math.Pi*frequency*t)
	}
	return buffer
}

// GenerateHarmonicWave returns a fundamental plus overtones. amplitudes[0]
// scales the fundamental, amplitudes[k] the (k+1)-th harmonic. A dominant
// second harmonic reproduces the overtone-lock failure mode of plucked
// strings.
func GenerateHarmonicWave(size int, sampleRate, fundamental float64, amplitudes []float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		var s float64
		for k, a := range amplitudes {
			s += a * math.Sin(2*math.Pi*fundamental*float64(k+1)*t)
		}
		buffer[i] = s
	}
	normalizePeak(buffer)
	return buffer
}

// GeneratePluckedString approximates a plucked-string tone: harmonics at
// 1/n amplitude with an exponential decay envelope and a touch of phase
// offset so the waveform is not pathologically symmetric.
func GeneratePluckedString(size int, sampleRate, fundamental float64) []float64 {
	buffer := make([]float64, size)
	const partials = 6
	for i := range buffer {
		t := float64(i) / sampleRate
		env := math.Exp(-2.0 * t)
		var s float64
		for n := 1; n <= partials; n++ {
			s += math.Sin(2*math.Pi*fundamental*float64(n)*t+0.3*float64(n)) / float64(n)
		}
		buffer[i] = s * env
	}
	normalizePeak(buffer)
	return buffer
}

// GenerateNoise returns uniform noise with the given peak amplitude,
// deterministic for a fixed seed.
func GenerateNoise(size int, amplitude float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	buffer := make([]float64, size)
	for i := range buffer {
		buffer[i] = amplitude * (2*rng.Float64() - 1)
	}
	return buffer
}

func normalizePeak(buffer []float64) {
	var peak float64
	for _, s := range buffer {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	scale := 0.8 / peak
	for i := range buffer {
		buffer[i] *= scale
	}
}
