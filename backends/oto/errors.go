// SPDX-License-Identifier: EPL-2.0

package oto

import "errors"

var (
	// ErrDevice is returned when the audio device cannot be opened.
	ErrDevice = errors.New("cannot open audio device")

	// ErrFormatMismatch is returned by Open when the device was already
	// opened with another format.
	ErrFormatMismatch = errors.New("audio device format mismatch")
)
