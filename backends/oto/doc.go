// SPDX-License-Identifier: EPL-2.0

// Package oto plays a memory voice on the system audio device through
// github.com/ebitengine/oto/v3.
//
// The device pulls 16-bit little-endian PCM from the voice on its own
// goroutine; the voice renders silence while it has nothing queued.
package oto
