// SPDX-License-Identifier: EPL-2.0

// Package flac provides FLAC decoding on top of github.com/mewkiz/flac.
//
// Each FLAC frame carries one subframe per channel; the decoder interleaves
// them and scales by the frame's bit depth, so 16 and 24-bit files both come
// out in [-1, 1].
package flac
