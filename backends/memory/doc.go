// SPDX-License-Identifier: EPL-2.0

/*
Package memory is a software playback backend for audio streams.

A Backend stores uploaded PCM in memory and implements stream.Backend. Buffer
teardown requested by a closing stream is deferred until the owning goroutine
calls RunPending:

	b := memory.New()
	s := stream.New(src, codec, b)
	...
	s.Close()
	b.RunPending() // buffers are deleted here

A Voice plays queued buffers in order and reports processed ones back through
Unqueue. It can be read as a byte stream of 16-bit little-endian samples,
which is what the oto backend pulls from.
*/
package memory
