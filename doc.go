// SPDX-License-Identifier: EPL-2.0

// Package audstream streams compressed audio into playback buffers.
//
// A source is decoded on a background goroutine a little ahead of playback,
// converted to 16-bit PCM and handed to a backend chunk by chunk. Streams can
// loop, seek and be restarted without holding the whole file in memory.
//
// # Supported Formats
//
//   - Ogg Vorbis via formats/vorbis
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - AIFF via formats/aiff
//   - FLAC via formats/flac
//
// Only mono and stereo sources can be streamed.
//
// # Quick Start
//
//	a, err := audstream.OpenFile("music.ogg")
//	if err != nil {
//		return err
//	}
//
//	backend := memory.New()
//	s := a.OpenStream(backend, stream.WithBuffers(4))
//	p := player.New(s, backend.NewVoice())
//	p.Play()
//
// The player is then driven with Update from the goroutine that owns the
// backend. See the stream package for driving a stream by hand.
//
// # Probing
//
// Audio.Info decodes a source once to report its format and exact length:
//
//	info, _ := a.Info()
//	fmt.Println(info.Format.Channels, info.Duration())
package audstream
