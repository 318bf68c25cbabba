// SPDX-License-Identifier: EPL-2.0

/*
Package stream decodes audio ahead of playback on a background goroutine.

A Stream owns one decode goroutine. It keeps up to Options.Buffers chunks of
PCM queued, each holding BufferedDuration/Buffers worth of audio, and waits
for the consumer to drain them. The consumer is usually a render or game loop
that must never block:

	s := stream.New(src, vorbis.Codec{}, backend)
	s.Start()
	if err := s.Join(); err != nil {
		return err
	}

	for frame := range ticks {
		buf, ok, err := s.NextBuffer()
		if err != nil {
			return err
		}
		if ok {
			voice.Queue(buf)
		}
		...
		s.ReturnBuffer(played)
	}

Buffers handed out by NextBuffer are recycled once returned, so a steady
consumer never needs more handles than it keeps in flight.

# Seeking

Seek takes an interleaved sample index. A target ahead of the decoder is
reached by decoding and discarding; a target behind it reopens the source
and decodes forward from the start. Only the latest request is honored.
Chunks decoded before a Seek call are never handed out after it.

# Failure

Any decode error stops the stream for good. Join reports it, and every later
NextBuffer call returns it wrapped in ErrStreamFailed.
*/
package stream
