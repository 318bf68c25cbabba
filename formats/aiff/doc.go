// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff. AIFF is Apple's uncompressed
// audio format, commonly found on macOS.
//
// # Supported Formats
//
// Currently supported:
//   - 8, 16, 24 and 32-bit PCM, big-endian as the format requires
//   - Mono and stereo (the stream layer rejects more channels)
//   - Any sample rate
//
// go-audio seeks while reading chunks. When the source reader cannot seek,
// Open reads the whole file into memory first; sources opened from disk are
// streamed.
package aiff
