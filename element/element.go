package element

import (
	"github.com/notargets/BEMKernel/utils"
	"gonum.org/v1/gonum/mat"
)

// Continuity selects whether basis functions are shared across cell
// boundaries (Continuous) or owned by a single cell (Discontinuous)
type Continuity uint8

const (
	Continuous Continuity = iota
	Discontinuous
)

func (c Continuity) String() string {
	if c == Continuous {
		return "Continuous"
	}
	return "Discontinuous"
}

type Element interface {
	Name() string
	ShortName() string
	CellType() utils.GeometryType
	Degree() int
	Continuity() Continuity
	Np() int // Number of basis functions

	// Reference Geometry Definition
	R() []float64
	S() []float64

	// EntityDofs returns the local basis indices attached to sub-entity
	// (dim, index) of the reference cell. For dim 1 the indices run from the
	// first to the second vertex of the reference edge.
	EntityDofs(dim, index int) []int

	// Tabulate evaluates the basis and its reference derivatives at the
	// points (r[q], s[q]). Each result is [Np × len(r)]: row i holds basis
	// function i, column q holds point q.
	Tabulate(r, s []float64) (phi, dr, ds *mat.Dense)
}
