package assembly

import "errors"

// Error classes of an assembly call. Concrete errors wrap one of these, so
// callers test with errors.Is.
var (
	// ErrConfiguration marks an operator/PDE combination without a kernel,
	// an output of the wrong scalar type, or invalid options
	ErrConfiguration = errors.New("configuration error")

	// ErrDimensionMismatch marks an output whose shape is not
	// [test.GlobalSize(), trial.GlobalSize()]
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNumericalDegeneracy marks a zero-area cell or a kernel evaluated at
	// coincident points
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")
)
