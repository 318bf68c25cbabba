// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

// ErrNotMP3File is returned when no valid frame header could be found.
var ErrNotMP3File = errors.New("not an MP3 file")
