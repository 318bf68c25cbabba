// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV decoding and encoding.
//
// # Supported Formats
//
// Currently supported:
//   - PCM 16-bit, plain or WAVE_FORMAT_EXTENSIBLE
//   - Mono and stereo
//   - Any sample rate
//
// # Decoding
//
// Codec builds a push decoder: it is fed whatever bytes have arrived and
// asks for more with audio.ErrNeedMoreData, so it never blocks on the source.
// Unknown chunks before "data" are skipped, and anything after the data chunk
// is ignored. A data chunk with a placeholder length is read until the source
// ends.
//
//	dec, _ := wav.Codec{}.NewDecoder()
//	s := decode.NewSession(file, dec)
//	if err := s.Start(); err != nil {
//	    return err
//	}
//	pcm, err := s.ReadSamples(4096)
//
// # Encoding
//
// WriteWAV16 writes a complete file in one call to any io.Writer. Writer
// encodes incrementally through github.com/go-audio/wav and patches the
// header on Close, so it needs an io.WriteSeeker:
//
//	w, _ := wav.NewWriter(file, audio.Format{Channels: 2, SampleRate: 44100})
//	w.Write(pcm)
//	w.Close()
package wav
