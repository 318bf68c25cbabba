// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis decoding.
//
// Codec builds a push decoder. It is handed whatever bytes have arrived,
// splits complete Ogg pages into packets and decodes each audio packet with
// github.com/jfreymuth/vorbis. An incomplete page makes it ask for more data
// without consuming anything, so the source is never read ahead of need.
//
// Page checksums are verified. Only the first logical stream in the data is
// decoded; pages of other streams and anything after its last page are
// skipped.
//
// Probe and Length use github.com/jfreymuth/oggvorbis to read the format and
// duration of a file without decoding audio.
package vorbis
