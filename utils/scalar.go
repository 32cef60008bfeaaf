package utils

import "math/cmplx"

// Scalar is the element type of assembled operators: real for Laplace,
// complex for Helmholtz
type Scalar interface {
	float64 | complex128
}

// FromReal converts a real value into the scalar type T
func FromReal[T Scalar](x float64) T {
	var z T
	switch p := any(&z).(type) {
	case *float64:
		*p = x
	case *complex128:
		*p = complex(x, 0)
	}
	return z
}

// RealConverter returns a conversion function resolved once for T, for use
// in inner loops
func RealConverter[T Scalar]() func(float64) T {
	var z T
	switch any(z).(type) {
	case complex128:
		return func(x float64) T { return any(complex(x, 0)).(T) }
	default:
		return func(x float64) T { return any(x).(T) }
	}
}

// IsComplex reports whether T is a complex type
func IsComplex[T Scalar]() bool {
	var z T
	_, ok := any(z).(complex128)
	return ok
}

// Abs returns the modulus of a scalar
func Abs[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float64:
		if x < 0 {
			return -x
		}
		return x
	case complex128:
		return cmplx.Abs(x)
	}
	return 0
}
