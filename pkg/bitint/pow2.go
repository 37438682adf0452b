// SPDX-License-Identifier: MIT
//
// Package bitint provides power-of-two helpers used for audio buffer
// sizing. All operations are constant time and allocation free.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of two
// are returned unchanged; zero and negative inputs return 1.
//
// The size-1 subtraction keeps exact powers of two from being doubled:
// for 8, bits.Len64(7) = 3 and 1<<3 = 8.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of two
// have exactly one bit set, so n & (n-1) is zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
