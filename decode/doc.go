// SPDX-License-Identifier: EPL-2.0

// Package decode implements a decode session: one decoder over one byte
// stream, read incrementally into 16-bit interleaved PCM chunks.
//
// A session is forward-only. Skip moves ahead cheaply by decoding and
// discarding; to go back, close the session and open a new one on a fresh
// reader.
//
//	s := decode.NewSession(reader, decoder)
//	if err := s.Start(); err != nil {
//	    // header could not be read
//	}
//	defer s.Close()
//
//	for {
//	    chunk, err := s.ReadSamples(4096)
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// Push decoders are fed from a growable staging buffer that the session
// refills 8 KiB at a time whenever the decoder asks for more data. Pull
// decoders read the source themselves.
package decode
