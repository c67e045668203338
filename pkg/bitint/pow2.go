// Package bitint provides power-of-two helpers for sizing audio
// analysis buffers. The estimator requires power-of-two frame sizes so
// FFT-based variants and the capture engine can share one buffer length.
//
// All operations are O(1), allocation-free and real-time safe.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
// The size-1 subtraction keeps exact powers of two from doubling:
// for 8, bits.Len64(7)=3 so 1<<3 = 8; without it, bits.Len64(8)=4
// would yield 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return int(1 << bits.Len64(uint64(size-1)))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of two have exactly one bit set, so n&(n-1) clears it.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
