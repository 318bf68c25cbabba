// SPDX-License-Identifier: EPL-2.0

package decode

import "errors"

var (
	// ErrClosed is returned by any use of a session after Close, including a
	// second Close.
	ErrClosed = errors.New("decode session closed")

	// ErrNotStarted is returned when reading before Start succeeded.
	ErrNotStarted = errors.New("decode session not started")

	// ErrUnexpectedEOF indicates the source ended before the header was complete.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")

	// ErrUnsupportedDecoder indicates a decoder that is neither push nor pull.
	ErrUnsupportedDecoder = errors.New("decoder implements neither PushDecoder nor PullDecoder")
)
