// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 decoding on top of github.com/hajimehoshi/go-mp3.
//
// Codec builds a pull decoder, so a decode session hands it the source reader
// and lets it read at its own pace. Output is always interleaved stereo at the
// file's sample rate; mono files come out with both channels equal.
//
//	dec, _ := mp3.Codec{}.NewDecoder()
//	s := decode.NewSession(file, dec)
//	if err := s.Start(); err != nil {
//	    return err
//	}
//
// Only decoding is supported.
package mp3
