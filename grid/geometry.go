package grid

import (
	"fmt"

	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/utils"
	"gonum.org/v1/gonum/floats"
)

// CellGeometry maps the reference cell to physical space with the degree 1
// Lagrange map: affine on triangles, bilinear on quadrilaterals
type CellGeometry struct {
	Type     utils.GeometryType
	Vertices [][3]float64
}

// GeometryTable holds the geometry of a cell at a set of reference points.
// Vector quantities are stored point by point as flat xyz triples.
type GeometryTable struct {
	X  []float64 // Physical points [3*Npts]
	Tr []float64 // ∂x/∂r [3*Npts]
	Ts []float64 // ∂x/∂s [3*Npts]
	N  []float64 // Unit normal (Tr × Ts)/|Tr × Ts| [3*Npts]
	J  []float64 // Integration element |Tr × Ts| [Npts]
}

// Resize prepares the table for n points, reusing storage when possible
func (gt *GeometryTable) Resize(n int) {
	grow := func(a []float64, size int) []float64 {
		if cap(a) < size {
			return make([]float64, size)
		}
		return a[:size]
	}
	gt.X = grow(gt.X, 3*n)
	gt.Tr = grow(gt.Tr, 3*n)
	gt.Ts = grow(gt.Ts, 3*n)
	gt.N = grow(gt.N, 3*n)
	gt.J = grow(gt.J, n)
}

func (gt *GeometryTable) Npts() int { return len(gt.J) }

func shapeFunctions(ct utils.GeometryType, r, s float64) (phi, dr, ds [4]float64) {
	switch ct {
	case utils.Triangle:
		phi = [4]float64{1 - r - s, r, s}
		dr = [4]float64{-1, 1, 0}
		ds = [4]float64{-1, 0, 1}
	case utils.Quadrilateral:
		phi = [4]float64{(1 - r) * (1 - s), r * (1 - s), (1 - r) * s, r * s}
		dr = [4]float64{-(1 - s), 1 - s, -s, s}
		ds = [4]float64{-(1 - r), -r, 1 - r, r}
	default:
		panic(fmt.Sprintf("no geometry map for %v", ct))
	}
	return
}

// Evaluate fills the table at the reference points (r[q], s[q])
func (cg *CellGeometry) Evaluate(r, s []float64, gt *GeometryTable) {
	gt.Resize(len(r))
	for q := range r {
		phi, dr, ds := shapeFunctions(cg.Type, r[q], s[q])
		x, tr, ts := gt.X[3*q:3*q+3], gt.Tr[3*q:3*q+3], gt.Ts[3*q:3*q+3]
		for d := 0; d < 3; d++ {
			x[d], tr[d], ts[d] = 0, 0, 0
		}
		for v, vx := range cg.Vertices {
			for d := 0; d < 3; d++ {
				x[d] += phi[v] * vx[d]
				tr[d] += dr[v] * vx[d]
				ts[d] += ds[v] * vx[d]
			}
		}
		n := gt.N[3*q : 3*q+3]
		n[0] = tr[1]*ts[2] - tr[2]*ts[1]
		n[1] = tr[2]*ts[0] - tr[0]*ts[2]
		n[2] = tr[0]*ts[1] - tr[1]*ts[0]
		gt.J[q] = floats.Norm(n, 2)
		if gt.J[q] > 0 {
			floats.Scale(1/gt.J[q], n)
		}
	}
}

// Map returns the physical image of one reference point
func (cg *CellGeometry) Map(r, s float64) (x [3]float64) {
	phi, _, _ := shapeFunctions(cg.Type, r, s)
	for v, vx := range cg.Vertices {
		for d := 0; d < 3; d++ {
			x[d] += phi[v] * vx[d]
		}
	}
	return
}

// Centroid returns the image of the reference cell centroid
func (cg *CellGeometry) Centroid() [3]float64 {
	if cg.Type == utils.Triangle {
		return cg.Map(1./3., 1./3.)
	}
	return cg.Map(0.5, 0.5)
}

// Area integrates the integration element over the reference cell
func (cg *CellGeometry) Area() float64 {
	rule := quadrature.RegularRule(cg.Type, 4)
	var gt GeometryTable
	cg.Evaluate(rule.R, rule.S, &gt)
	return floats.Dot(rule.W, gt.J)
}
