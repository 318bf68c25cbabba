// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

var (
	ErrNotOggStream          = errors.New("not an Ogg stream")
	ErrUnsupportedOggVersion = errors.New("unsupported Ogg version")
	ErrBadChecksum           = errors.New("ogg page checksum mismatch")
	ErrLostSync              = errors.New("ogg capture pattern missing")
	ErrBadHeader             = errors.New("invalid Vorbis header")
)
