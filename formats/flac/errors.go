// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	// ErrNotFlacFile is returned when the signature or STREAMINFO is unreadable.
	ErrNotFlacFile = errors.New("not a FLAC file")
	// ErrChannelMismatch is returned for a frame whose channel count differs
	// from STREAMINFO.
	ErrChannelMismatch = errors.New("flac frame channel count mismatch")
)
