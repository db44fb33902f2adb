package sparsemat

import "errors"

// ErrNonFinite is returned alongside a (possibly partially valid) solution
// when a solve produced a NaN/Inf entry — the trigger for the pseudo-inverse
// or smaller-step fallback paths described in spec §7.
var ErrNonFinite = errors.New("sparsemat: solve produced a non-finite value")
