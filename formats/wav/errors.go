// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	// ErrNotWavFile is returned when the data does not open with RIFF/WAVE.
	ErrNotWavFile = errors.New("not a WAV file")
	// ErrUnsupportedWavLayout covers a data chunk ahead of the fmt chunk and
	// a format with no channels.
	ErrUnsupportedWavLayout  = errors.New("unsupported WAV layout")
	ErrOnlyPCM16bitSupported = errors.New("only PCM 16-bit supported")
	// ErrUnsupportedWavChunks is returned for a fmt chunk too short to parse.
	ErrUnsupportedWavChunks = errors.New("unsupported WAV chunks")
)
