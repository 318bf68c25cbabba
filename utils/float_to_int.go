// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Float32ToPCM16 maps a sample in [-1,1] onto the full unsigned 16-bit range
// and shifts it back to signed: round(((x + 1) / 2) * 65535 - 32768).
// Out of range input is clamped. The result is bit-exact across platforms.
func Float32ToPCM16(x float32) int16 {
	v := math.Round(((float64(x)+1)/2)*65535 - 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}

	return int16(v)
}

// Float32SliceToPCM16 converts src into dst and returns the number of samples
// written, min(len(dst), len(src)).
func Float32SliceToPCM16(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = Float32ToPCM16(src[i])
	}

	return n
}
