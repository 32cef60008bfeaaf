package kernel

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	targets = []float64{1, 0, 0, 0, 2, 0}
	sources = []float64{0, 0, 0, 0, 0, 0}
	normals = []float64{1, 0, 0, 0, 0, 1}
)

func TestLaplaceKernels(t *testing.T) {
	out := make([]float64, 2)
	require.NoError(t, NewLaplace[float64](SingleLayer).Eval(targets, sources, nil, nil, out))
	assert.InDelta(t, 1/(4*math.Pi), out[0], 1.e-14)
	assert.InDelta(t, 1/(8*math.Pi), out[1], 1.e-14)

	// Source normals: (x-y)·n_y = 1 for the first pair, 0 for the second
	dl := NewLaplace[float64](DoubleLayer)
	assert.True(t, dl.NeedsSourceNormal())
	assert.False(t, dl.NeedsTargetNormal())
	require.NoError(t, dl.Eval(targets, sources, nil, normals, out))
	assert.InDelta(t, 1/(4*math.Pi), out[0], 1.e-14)
	assert.InDelta(t, 0., out[1], 1.e-14)

	adl := NewLaplace[float64](AdjointDoubleLayer)
	assert.True(t, adl.NeedsTargetNormal())
	require.NoError(t, adl.Eval(targets, sources, normals, nil, out))
	assert.InDelta(t, -1/(4*math.Pi), out[0], 1.e-14)

	// The complex rendition has no imaginary part
	cout := make([]complex128, 2)
	require.NoError(t, NewLaplace[complex128](SingleLayer).Eval(targets, sources, nil, nil, cout))
	assert.Equal(t, complex(1/(4*math.Pi), 0), cout[0])
	assert.Equal(t, "Laplace SingleLayer", NewLaplace[complex128](SingleLayer).Name())
}

func TestHelmholtzKernels(t *testing.T) {
	k := 3.
	out := make([]complex128, 2)
	sl := NewHelmholtz(SingleLayer, k)
	assert.Equal(t, k, sl.Wavenumber())
	require.NoError(t, sl.Eval(targets, sources, nil, nil, out))
	assert.InDelta(t, 0., cmplx.Abs(out[1]-cmplx.Exp(complex(0, 2*k))/(8*math.Pi)), 1.e-14)

	dl := NewHelmholtz(DoubleLayer, k)
	require.NoError(t, dl.Eval(targets, sources, nil, normals, out))
	want := cmplx.Exp(complex(0, k)) * complex(1, -k) / complex(4*math.Pi, 0)
	assert.InDelta(t, 0., cmplx.Abs(out[0]-want), 1.e-14)

	adl := NewHelmholtz(AdjointDoubleLayer, k)
	require.NoError(t, adl.Eval(targets, sources, normals, nil, out))
	assert.InDelta(t, 0., cmplx.Abs(out[0]+want), 1.e-14)

	// k -> 0 recovers the Laplace kernels
	lap := make([]float64, 2)
	require.NoError(t, NewLaplace[float64](DoubleLayer).Eval(targets, sources, nil, normals, lap))
	require.NoError(t, NewHelmholtz(DoubleLayer, 0).Eval(targets, sources, nil, normals, out))
	assert.InDelta(t, lap[0], real(out[0]), 1.e-14)
	assert.Zero(t, imag(out[0]))
}

func TestCoincidentPoints(t *testing.T) {
	out := make([]float64, 1)
	err := NewLaplace[float64](SingleLayer).Eval(sources, sources, nil, nil, out)
	assert.ErrorIs(t, err, ErrCoincidentPoints)

	h := NewHelmholtz(SingleLayer, 1)
	h.SetTolerance(2)
	err = h.Eval(targets, sources, nil, nil, make([]complex128, 1))
	assert.ErrorIs(t, err, ErrCoincidentPoints)
}

func TestShortBatches(t *testing.T) {
	out := make([]float64, 3)
	assert.Error(t, NewLaplace[float64](SingleLayer).Eval(targets, sources, nil, nil, out))
	assert.Error(t, NewLaplace[float64](DoubleLayer).Eval(targets, sources, nil, nil, out[:2]))
	assert.Error(t, NewHelmholtz(AdjointDoubleLayer, 1).Eval(targets, sources, nil, normals, make([]complex128, 2)))
}
