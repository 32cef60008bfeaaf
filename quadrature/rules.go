package quadrature

import (
	"fmt"

	"github.com/notargets/BEMKernel/utils"
)

// Rule is a quadrature rule on a reference cell. Weights include the
// reference measure, so Σ W equals the reference area.
type Rule struct {
	R, S, W []float64
}

func (r *Rule) Npts() int { return len(r.W) }

// RegularRule returns the tensor rule of n points per direction for a cell
// type: Gauss-Legendre squared on the quadrilateral, collapsed Gauss-Jacobi
// on the triangle
func RegularRule(ct utils.GeometryType, n int) *Rule {
	switch ct {
	case utils.Triangle:
		return TriangleRule(n)
	case utils.Quadrilateral:
		return QuadrilateralRule(n)
	default:
		panic(fmt.Sprintf("no regular rule for %v", ct))
	}
}

// QuadrilateralRule is the n×n Gauss-Legendre rule on [0,1]^2
func QuadrilateralRule(n int) *Rule {
	x, w := GaussLegendre01(n)
	rule := &Rule{
		R: make([]float64, 0, n*n),
		S: make([]float64, 0, n*n),
		W: make([]float64, 0, n*n),
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			rule.R = append(rule.R, x[i])
			rule.S = append(rule.S, x[j])
			rule.W = append(rule.W, w[i]*w[j])
		}
	}
	return rule
}

// TriangleRule is the collapsed-coordinate rule on the triangle
// (0,0),(1,0),(0,1): Gauss-Legendre in a, Gauss-Jacobi(1,0) in b, with
// r = a(1-b), s = b absorbing the (1-b) Jacobian into the Jacobi weight
func TriangleRule(n int) *Rule {
	xa, wa := GaussLegendre01(n)
	xb, wb := JacobiGQ(1, 0, n-1)
	rule := &Rule{
		R: make([]float64, 0, n*n),
		S: make([]float64, 0, n*n),
		W: make([]float64, 0, n*n),
	}
	for j := 0; j < n; j++ {
		b := 0.5 * (1 + xb[j])
		for i := 0; i < n; i++ {
			rule.R = append(rule.R, xa[i]*(1-b))
			rule.S = append(rule.S, b)
			rule.W = append(rule.W, wa[i]*0.25*wb[j])
		}
	}
	return rule
}

// SubTriangle is a triangle in the reference coordinates of a cell given by
// three corner points
type SubTriangle [3][2]float64

// Det returns twice the reference area of the sub-triangle
func (t SubTriangle) Det() float64 {
	ax, ay := t[1][0]-t[0][0], t[1][1]-t[0][1]
	bx, by := t[2][0]-t[0][0], t[2][1]-t[0][1]
	d := ax*by - ay*bx
	if d < 0 {
		return -d
	}
	return d
}

// FromStandard maps a point of the triangle (0,0),(1,0),(0,1)
func (t SubTriangle) FromStandard(r, s float64) (float64, float64) {
	return t[0][0] + r*(t[1][0]-t[0][0]) + s*(t[2][0]-t[0][0]),
		t[0][1] + r*(t[1][1]-t[0][1]) + s*(t[2][1]-t[0][1])
}

// FromCanonical maps a point (x1, x2) of the canonical triangle
// {0 <= x2 <= x1 <= 1}, whose corners (0,0),(1,0),(1,1) go to t[0],t[1],t[2]
func (t SubTriangle) FromCanonical(x1, x2 float64) (float64, float64) {
	return t[0][0] + x1*(t[1][0]-t[0][0]) + x2*(t[2][0]-t[1][0]),
		t[0][1] + x1*(t[1][1]-t[0][1]) + x2*(t[2][1]-t[1][1])
}
