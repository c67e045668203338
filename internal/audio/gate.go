// SPDX-License-Identifier: MIT
package audio

import "math"

// EnableGate turns the amplitude gate on. Frames whose peak stays at
// or below the threshold reach the handler as empty frames.
func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

// DisableGate passes every frame through regardless of amplitude.
func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold sets the gate threshold on a normalized [0, 1]
// scale; out-of-range values are clamped. The threshold is stored as
// an int32 so the hot path compares raw samples without conversion.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	e.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// GetGateThreshold reports the threshold back on the normalized scale.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold) / float64(math.MaxInt32)
}
