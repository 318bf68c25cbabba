// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	// ErrNeedMoreData is returned by push decoders that cannot progress
	// without more input bytes.
	ErrNeedMoreData = errors.New("need more data")

	// ErrUnsupportedFormat indicates a stream that is not mono or stereo, or
	// has no usable sample rate.
	ErrUnsupportedFormat = errors.New("unsupported format: only mono and stereo are supported")

	// ErrUnknownFormat indicates no codec is registered for a format key.
	ErrUnknownFormat = errors.New("unknown audio format")
)
