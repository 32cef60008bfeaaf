package kernel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/notargets/BEMKernel/utils"
)

// ErrCoincidentPoints reports a target and source closer than the kernel
// tolerance, where the Green's function has no finite value
var ErrCoincidentPoints = errors.New("coincident target and source points")

// DefaultTolerance is the distance below which points count as coincident
const DefaultTolerance = 1.e-12

// Variant selects which derivative of the Green's function a kernel returns
type Variant uint8

const (
	SingleLayer Variant = iota
	DoubleLayer
	AdjointDoubleLayer
)

func (v Variant) String() string {
	switch v {
	case SingleLayer:
		return "SingleLayer"
	case DoubleLayer:
		return "DoubleLayer"
	case AdjointDoubleLayer:
		return "AdjointDoubleLayer"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// Kernel evaluates a Green's function on batches of point pairs. Pair q joins
// target x = targets[3q:3q+3] (test side) with source y = sources[3q:3q+3]
// (trial side). Normals are read only when the kernel asks for them.
type Kernel[T utils.Scalar] interface {
	Name() string
	NeedsTargetNormal() bool
	NeedsSourceNormal() bool
	Eval(targets, sources, targetNormals, sourceNormals []float64, out []T) error
}

// base carries what all kernels share. Tol is the coincidence distance.
type base struct {
	name    string
	variant Variant
	Tol     float64
}

func (k *base) Name() string             { return k.name }
func (k *base) Variant() Variant         { return k.variant }
func (k *base) NeedsTargetNormal() bool  { return k.variant == AdjointDoubleLayer }
func (k *base) NeedsSourceNormal() bool  { return k.variant == DoubleLayer }
func (k *base) SetTolerance(tol float64) { k.Tol = tol }

type pairGeometry struct {
	diff [3]float64 // x - y
	r    float64
}

func checkBatch(n int, targets, sources, targetNormals, sourceNormals []float64, needTarget, needSource bool) error {
	if len(targets) < 3*n || len(sources) < 3*n {
		return fmt.Errorf("batch of %d pairs needs %d coordinates, have %d targets and %d sources",
			n, 3*n, len(targets), len(sources))
	}
	if needTarget && len(targetNormals) < 3*n {
		return fmt.Errorf("batch of %d pairs has %d target normal components", n, len(targetNormals))
	}
	if needSource && len(sourceNormals) < 3*n {
		return fmt.Errorf("batch of %d pairs has %d source normal components", n, len(sourceNormals))
	}
	return nil
}

func (k *base) pair(q int, targets, sources []float64) (pg pairGeometry, err error) {
	for d := 0; d < 3; d++ {
		pg.diff[d] = targets[3*q+d] - sources[3*q+d]
	}
	pg.r = math.Sqrt(pg.diff[0]*pg.diff[0] + pg.diff[1]*pg.diff[1] + pg.diff[2]*pg.diff[2])
	if pg.r < k.Tol {
		err = fmt.Errorf("%s pair %d at distance %g: %w", k.name, q, pg.r, ErrCoincidentPoints)
	}
	return
}

// normalProjection returns (x-y)·n for the normal the variant differentiates
// along, with the sign of the adjoint double layer folded in
func (k *base) normalProjection(pg pairGeometry, q int, targetNormals, sourceNormals []float64) float64 {
	switch k.variant {
	case DoubleLayer:
		n := sourceNormals[3*q : 3*q+3]
		return pg.diff[0]*n[0] + pg.diff[1]*n[1] + pg.diff[2]*n[2]
	case AdjointDoubleLayer:
		n := targetNormals[3*q : 3*q+3]
		return -(pg.diff[0]*n[0] + pg.diff[1]*n[1] + pg.diff[2]*n[2])
	}
	return 0
}

// Laplace is the Green's function 1/(4πr) of the Laplace equation and its
// normal derivatives, evaluated in the scalar type T
type Laplace[T utils.Scalar] struct {
	base
	convert func(float64) T
}

func NewLaplace[T utils.Scalar](v Variant) *Laplace[T] {
	return &Laplace[T]{
		base:    base{name: "Laplace " + v.String(), variant: v, Tol: DefaultTolerance},
		convert: utils.RealConverter[T](),
	}
}

func (k *Laplace[T]) Eval(targets, sources, targetNormals, sourceNormals []float64, out []T) error {
	n := len(out)
	if err := checkBatch(n, targets, sources, targetNormals, sourceNormals,
		k.NeedsTargetNormal(), k.NeedsSourceNormal()); err != nil {
		return err
	}
	for q := 0; q < n; q++ {
		pg, err := k.pair(q, targets, sources)
		if err != nil {
			return err
		}
		var v float64
		if k.variant == SingleLayer {
			v = 1 / (4 * math.Pi * pg.r)
		} else {
			v = k.normalProjection(pg, q, targetNormals, sourceNormals) / (4 * math.Pi * pg.r * pg.r * pg.r)
		}
		out[q] = k.convert(v)
	}
	return nil
}

// Helmholtz is the Green's function e^{ikr}/(4πr) of the Helmholtz equation
// with wavenumber k and its normal derivatives
type Helmholtz struct {
	base
	k float64
}

func NewHelmholtz(v Variant, wavenumber float64) *Helmholtz {
	return &Helmholtz{
		base: base{name: fmt.Sprintf("Helmholtz(k=%g) %v", wavenumber, v), variant: v, Tol: DefaultTolerance},
		k:    wavenumber,
	}
}

func (k *Helmholtz) Wavenumber() float64 { return k.k }

func (k *Helmholtz) Eval(targets, sources, targetNormals, sourceNormals []float64, out []complex128) error {
	n := len(out)
	if err := checkBatch(n, targets, sources, targetNormals, sourceNormals,
		k.NeedsTargetNormal(), k.NeedsSourceNormal()); err != nil {
		return err
	}
	for q := 0; q < n; q++ {
		pg, err := k.pair(q, targets, sources)
		if err != nil {
			return err
		}
		ikr := complex(0, k.k*pg.r)
		g := cmplx.Exp(ikr) / complex(4*math.Pi*pg.r, 0)
		if k.variant == SingleLayer {
			out[q] = g
			continue
		}
		proj := k.normalProjection(pg, q, targetNormals, sourceNormals)
		out[q] = g * (1 - ikr) * complex(proj/(pg.r*pg.r), 0)
	}
	return nil
}
