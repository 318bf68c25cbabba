// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrStreamFailed wraps the decode error captured by the background
	// goroutine. Once returned, every later NextBuffer returns it again.
	ErrStreamFailed = errors.New("audio stream failed")

	// ErrNotStarted is returned by Join before Start.
	ErrNotStarted = errors.New("audio stream not started")

	// ErrClosed is returned by Join when the stream was closed before its
	// format was known.
	ErrClosed = errors.New("audio stream closed")

	// ErrForeignBuffer is returned by ReturnBuffer for a handle this stream
	// never created.
	ErrForeignBuffer = errors.New("buffer not owned by this stream")

	// ErrFormatChanged is returned when a later pass over the source reports
	// a different channel count or sample rate than the first one.
	ErrFormatChanged = errors.New("audio format changed between passes")
)
