package quadrature

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGQ computes the N+1 point Gauss quadrature for the Jacobi weight
// (1-x)^alpha (1+x)^beta on [-1,1] by the Golub-Welsch eigenvalue method
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		fac        float64
		h1, d0, d1 []float64
		VVr        *mat.Dense
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		if alpha != 0 || beta != 0 {
			W[0] = Gamma0(alpha, beta)
		}
		return
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: d0[i] = -(β²-α²)/((2i+α+β)*(2i+α+β+2))
	d0 = make([]float64, N+1)
	fac = (beta*beta - alpha*alpha)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}

	// Handle division by zero
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}

	// 1st upper diagonal
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := h1[i]
		d1[i] = 2.0 / (val + 2.0) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(val+1)/(val+3),
		)
	}

	JJ := NewSymTriDiagonal(d0, d1)

	var eig mat.EigenSym
	ok := eig.Factorize(JJ, true)
	if !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	VVr = mat.NewDense(len(X), len(X), nil)
	eig.VectorsTo(VVr)
	W = make([]float64, len(X))
	copy(W, VVr.RawRowView(0))
	for i := range W {
		W[i] *= W[i] * Gamma0(alpha, beta)
	}
	return X, W
}

// Gamma0 is the integral of the Jacobi weight over [-1,1]
func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func NewSymTriDiagonal(d0, d1 []float64) (Tri *mat.SymDense) {
	n := len(d0)
	Tri = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		Tri.SetSym(i, i, d0[i])
		if i < n-1 {
			Tri.SetSym(i, i+1, d1[i])
		}
	}
	return
}

// GaussLegendre01 returns the n point Gauss-Legendre rule mapped to [0,1]
func GaussLegendre01(n int) (x, w []float64) {
	xi, wi := JacobiGQ(0, 0, n-1)
	x = make([]float64, n)
	w = make([]float64, n)
	for i := range xi {
		x[i] = 0.5 * (1 + xi[i])
		w[i] = 0.5 * wi[i]
	}
	return
}
