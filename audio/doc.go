// SPDX-License-Identifier: EPL-2.0

// Package audio defines the decoder capability the streaming engine is built on.
//
// A Codec hands out one Decoder per decode session. Decoders come in two
// shapes:
//
//   - PushDecoder: the caller owns a staging buffer of raw bytes and feeds it
//     in. The decoder returns ErrNeedMoreData whenever it cannot make progress
//     with what it was given, and reports how many bytes it consumed.
//   - PullDecoder: for libraries that insist on reading an io.Reader
//     themselves. Open reads the header, ReadFrame returns samples until io.EOF.
//
// Both are forward-only. Going backward means starting a new decoder on a
// fresh reader.
//
// # Sample Format
//
// Decoders produce float32 samples in the range [-1.0, 1.0], interleaved by
// channel:
//   - 0.0 represents silence
//   - 1.0 represents maximum positive amplitude
//   - -1.0 represents maximum negative amplitude
//
// # Format Registry
//
// The registry maps format keys, usually file extensions, to codecs:
//
//	registry := audio.NewRegistry()
//	registry.Register("ogg", vorbis.Codec{})
//	codec, err := registry.Lookup("music/theme.ogg")
//
// # Error Handling
//
// ErrNeedMoreData is not a failure; it only asks for more input. Any other
// error returned by a decoder is fatal to the session that owns it.
package audio
