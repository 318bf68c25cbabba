// SPDX-License-Identifier: EPL-2.0

package main

import "errors"

var (
	// ErrBadConfig is returned for non-positive buffer settings.
	ErrBadConfig = errors.New("invalid buffer configuration")

	// ErrBadLoops is returned by export for a loop count under one.
	ErrBadLoops = errors.New("loops must be at least 1")
)
