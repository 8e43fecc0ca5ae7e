package lattice

import "errors"

// ErrInvalidParameter indicates p ≤ 0, q ≤ 0, N < 0 or a non-finite period.
var ErrInvalidParameter = errors.New("lattice: invalid parameter")
