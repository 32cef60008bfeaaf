package element

import (
	"fmt"

	"github.com/notargets/BEMKernel/utils"
	"gonum.org/v1/gonum/mat"
)

// LagrangeFamily describes Lagrange elements of one degree and continuity.
// A function space instantiates one element per cell type of its grid.
type LagrangeFamily struct {
	Degree     int
	Continuity Continuity
}

func NewLagrangeFamily(degree int, continuity Continuity) LagrangeFamily {
	return LagrangeFamily{Degree: degree, Continuity: continuity}
}

// Validate rejects degrees that have no Lagrange element
func (f LagrangeFamily) Validate() error {
	if f.Degree < 0 {
		return fmt.Errorf("negative Lagrange degree %d", f.Degree)
	}
	if f.Degree == 0 && f.Continuity == Continuous {
		return fmt.Errorf("degree 0 Lagrange elements must be discontinuous")
	}
	return nil
}

// Element creates the family member living on the given cell type
func (f LagrangeFamily) Element(ct utils.GeometryType) (*LagrangeElement, error) {
	return NewLagrangeElement(ct, f.Degree, f.Continuity)
}

// LagrangeElement is a nodal element with equispaced nodes ordered
// vertices, then edge interiors, then the cell interior. The nodal basis is
// obtained by inverting the monomial Vandermonde matrix at the nodes.
type LagrangeElement struct {
	props      ElementProperties
	geom       ReferenceGeometry
	continuity Continuity
	exponents  [][2]int   // Monomial exponents (a, b) of r^a s^b
	coeffs     *mat.Dense // Inverse Vandermonde [nmono × Np]
}

func NewLagrangeElement(ct utils.GeometryType, degree int, continuity Continuity) (*LagrangeElement, error) {
	if err := (LagrangeFamily{Degree: degree, Continuity: continuity}).Validate(); err != nil {
		return nil, err
	}
	if ct != utils.Triangle && ct != utils.Quadrilateral {
		return nil, fmt.Errorf("no Lagrange element on %v", ct)
	}

	le := &LagrangeElement{continuity: continuity}
	le.geom = buildNodes(ct, degree)
	le.exponents = monomialExponents(ct, degree)

	Np := len(le.geom.R)
	if Np != len(le.exponents) {
		panic(fmt.Sprintf("%v degree %d: %d nodes for %d monomials", ct, degree, Np, len(le.exponents)))
	}

	V := mat.NewDense(Np, Np, nil)
	for i := 0; i < Np; i++ {
		for m, e := range le.exponents {
			V.Set(i, m, ipow(le.geom.R[i], e[0])*ipow(le.geom.S[i], e[1]))
		}
	}
	le.coeffs = mat.NewDense(Np, Np, nil)
	if err := le.coeffs.Inverse(V); err != nil {
		return nil, fmt.Errorf("singular Vandermonde for %v degree %d: %w", ct, degree, err)
	}

	prefix, short := "Lagrange", ""
	if continuity == Discontinuous {
		prefix, short = "Discontinuous Lagrange", "D"
	}
	nEp := 0
	if degree > 1 {
		nEp = degree - 1
	}
	le.props = ElementProperties{
		Name:       fmt.Sprintf("%s %v Order %d", prefix, ct, degree),
		ShortName:  fmt.Sprintf("%s%s%d", short, shortCellName(ct), degree),
		Type:       ct,
		Order:      degree,
		Np:         Np,
		NEp:        nEp,
		NVp:        len(le.geom.VertexPoints),
		NIp:        len(le.geom.InteriorPoints),
		NEdges:     ct.NumEdges(),
		Dimensions: D2,
	}
	return le, nil
}

func shortCellName(ct utils.GeometryType) string {
	if ct == utils.Triangle {
		return "Tri"
	}
	return "Quad"
}

func buildNodes(ct utils.GeometryType, degree int) (g ReferenceGeometry) {
	edges := ReferenceEdges(ct)
	g.EdgePoints = make([][]int, len(edges))
	if degree == 0 {
		c := 0.5
		if ct == utils.Triangle {
			c = 1. / 3.
		}
		g.R, g.S = []float64{c}, []float64{c}
		g.InteriorPoints = []int{0}
		return
	}

	add := func(r, s float64) int {
		g.R = append(g.R, r)
		g.S = append(g.S, s)
		return len(g.R) - 1
	}
	verts := ReferenceVertices(ct)
	for _, v := range verts {
		g.VertexPoints = append(g.VertexPoints, add(v[0], v[1]))
	}
	p := float64(degree)
	for e, ab := range edges {
		va, vb := verts[ab[0]], verts[ab[1]]
		for k := 1; k < degree; k++ {
			t := float64(k) / p
			g.EdgePoints[e] = append(g.EdgePoints[e],
				add(va[0]+t*(vb[0]-va[0]), va[1]+t*(vb[1]-va[1])))
		}
	}
	switch ct {
	case utils.Triangle:
		for j := 1; j < degree-1; j++ {
			for i := 1; i+j < degree; i++ {
				g.InteriorPoints = append(g.InteriorPoints, add(float64(i)/p, float64(j)/p))
			}
		}
	case utils.Quadrilateral:
		for j := 1; j < degree; j++ {
			for i := 1; i < degree; i++ {
				g.InteriorPoints = append(g.InteriorPoints, add(float64(i)/p, float64(j)/p))
			}
		}
	}
	return
}

func monomialExponents(ct utils.GeometryType, degree int) (exps [][2]int) {
	switch ct {
	case utils.Triangle:
		for d := 0; d <= degree; d++ {
			for b := 0; b <= d; b++ {
				exps = append(exps, [2]int{d - b, b})
			}
		}
	case utils.Quadrilateral:
		for b := 0; b <= degree; b++ {
			for a := 0; a <= degree; a++ {
				exps = append(exps, [2]int{a, b})
			}
		}
	}
	return
}

// ipow computes x^n for integer n >= 0
func ipow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

func (le *LagrangeElement) Name() string                 { return le.props.Name }
func (le *LagrangeElement) ShortName() string            { return le.props.ShortName }
func (le *LagrangeElement) CellType() utils.GeometryType { return le.props.Type }
func (le *LagrangeElement) Degree() int                  { return le.props.Order }
func (le *LagrangeElement) Continuity() Continuity       { return le.continuity }
func (le *LagrangeElement) Np() int                      { return le.props.Np }
func (le *LagrangeElement) R() []float64                 { return le.geom.R }
func (le *LagrangeElement) S() []float64                 { return le.geom.S }

func (le *LagrangeElement) GetProperties() ElementProperties        { return le.props }
func (le *LagrangeElement) GetReferenceGeometry() ReferenceGeometry { return le.geom }

func (le *LagrangeElement) EntityDofs(dim, index int) []int {
	switch dim {
	case 0:
		if index < len(le.geom.VertexPoints) {
			return []int{le.geom.VertexPoints[index]}
		}
	case 1:
		if index < len(le.geom.EdgePoints) {
			return le.geom.EdgePoints[index]
		}
	case 2:
		if index == 0 {
			return le.geom.InteriorPoints
		}
	}
	return nil
}

func (le *LagrangeElement) Tabulate(r, s []float64) (phi, dr, ds *mat.Dense) {
	var (
		Nq    = len(r)
		Nm    = len(le.exponents)
		M     = mat.NewDense(Nq, Nm, nil)
		Mr    = mat.NewDense(Nq, Nm, nil)
		Ms    = mat.NewDense(Nq, Nm, nil)
		tmp   mat.Dense
		trans = func(a *mat.Dense) *mat.Dense {
			tmp.Reset()
			tmp.Mul(a, le.coeffs)
			return mat.DenseCopyOf(tmp.T())
		}
	)
	for q := 0; q < Nq; q++ {
		for m, e := range le.exponents {
			a, b := e[0], e[1]
			M.Set(q, m, ipow(r[q], a)*ipow(s[q], b))
			if a > 0 {
				Mr.Set(q, m, float64(a)*ipow(r[q], a-1)*ipow(s[q], b))
			}
			if b > 0 {
				Ms.Set(q, m, float64(b)*ipow(r[q], a)*ipow(s[q], b-1))
			}
		}
	}
	return trans(M), trans(Mr), trans(Ms)
}
