// SPDX-License-Identifier: EPL-2.0

package memory

import "errors"

// ErrUnknownBuffer is returned for handles this backend did not create or
// already tore down.
var ErrUnknownBuffer = errors.New("unknown buffer")
