// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"io"

	"github.com/ik5/audstream/audio"
)

// Buffer is an opaque playback buffer handle issued by a Backend.
type Buffer uint32

// SourceFactory produces a fresh reader positioned at the start of the
// compressed data on every call. A stream calls it once per pass, so it must
// be callable any number of times.
type SourceFactory interface {
	NewReader() (io.ReadCloser, error)
}

// SourceFunc adapts a function to SourceFactory.
type SourceFunc func() (io.ReadCloser, error)

func (f SourceFunc) NewReader() (io.ReadCloser, error) { return f() }

// Backend owns the playback buffers. NewBuffer and Upload are called from the
// consumer goroutine, inside NextBuffer.
type Backend interface {
	// NewBuffer allocates a buffer handle.
	NewBuffer() (Buffer, error)
	// Upload replaces the contents of buf with interleaved 16-bit samples.
	Upload(buf Buffer, format audio.Format, samples []int16) error
	// Release hands over every buffer a stream created, once, when the stream
	// is closed. Teardown must run on whatever goroutine owns the playback
	// context, so implementations queue it rather than doing it inline.
	Release(bufs []Buffer)
}
