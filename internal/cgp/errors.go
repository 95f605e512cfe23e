package cgp

import "errors"

// ErrInput marks structurally invalid caller input: bad shape parameters,
// incompatible chromosomes, out-of-range gene indices, wrong weight or bias
// vector lengths, unknown loss kinds. Callers test with errors.Is.
var ErrInput = errors.New("invalid input")
