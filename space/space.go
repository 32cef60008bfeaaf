package space

import (
	"fmt"

	"github.com/notargets/BEMKernel/element"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/utils"
)

// FunctionSpace is the discrete space capability consumed by the assembler:
// a grid, one element per cell type, and the local to global dof map
type FunctionSpace interface {
	Grid() grid.Grid
	Element(ct utils.GeometryType) element.Element
	CellDofs(c int) []int // Global dof of each local basis function of cell c
	GlobalSize() int
}

// SerialFunctionSpace numbers the dofs of a Lagrange family on a serial grid.
//
// Discontinuous spaces number cell by cell. Continuous spaces walk the cells
// in order and hand out a new number the first time a vertex, edge or
// interior dof is met; edge dofs are shared in the direction running from the
// lower to the higher point id of the edge.
type SerialFunctionSpace struct {
	grid     grid.Grid
	family   element.LagrangeFamily
	elements map[utils.GeometryType]*element.LagrangeElement
	cellDofs [][]int
	size     int
}

func NewSerialFunctionSpace(g grid.Grid, family element.LagrangeFamily) (fs *SerialFunctionSpace, err error) {
	if err = family.Validate(); err != nil {
		return
	}
	fs = &SerialFunctionSpace{
		grid:     g,
		family:   family,
		elements: make(map[utils.GeometryType]*element.LagrangeElement),
		cellDofs: make([][]int, g.NumCells()),
	}
	for _, ct := range g.CellTypes() {
		if fs.elements[ct], err = family.Element(ct); err != nil {
			return nil, err
		}
	}
	if family.Continuity == element.Discontinuous {
		fs.numberDiscontinuous()
	} else {
		fs.numberContinuous()
	}
	return
}

func (fs *SerialFunctionSpace) numberDiscontinuous() {
	for c := range fs.cellDofs {
		Np := fs.elements[fs.grid.CellType(c)].Np()
		fs.cellDofs[c] = make([]int, Np)
		for i := range fs.cellDofs[c] {
			fs.cellDofs[c][i] = fs.size
			fs.size++
		}
	}
}

type edgeKey struct{ lo, hi int }

func (fs *SerialFunctionSpace) numberContinuous() {
	var (
		vertexDofs = make(map[int]int)
		edgeDofs   = make(map[edgeKey][]int)
		next       = func() int { fs.size++; return fs.size - 1 }
	)
	for c := range fs.cellDofs {
		var (
			ct    = fs.grid.CellType(c)
			el    = fs.elements[ct]
			verts = fs.grid.CellVertices(c)
			dofs  = make([]int, el.Np())
		)
		for lv, v := range verts {
			id := fs.grid.PointID(v)
			d, ok := vertexDofs[id]
			if !ok {
				d = next()
				vertexDofs[id] = d
			}
			dofs[el.EntityDofs(0, lv)[0]] = d
		}
		for e, ab := range element.ReferenceEdges(ct) {
			local := el.EntityDofs(1, e)
			if len(local) == 0 {
				continue
			}
			a, b := fs.grid.PointID(verts[ab[0]]), fs.grid.PointID(verts[ab[1]])
			key, reversed := edgeKey{a, b}, false
			if a > b {
				key, reversed = edgeKey{b, a}, true
			}
			shared, ok := edgeDofs[key]
			if !ok {
				shared = make([]int, len(local))
				for i := range shared {
					shared[i] = next()
				}
				edgeDofs[key] = shared
			}
			for i, li := range local {
				if reversed {
					dofs[li] = shared[len(shared)-1-i]
				} else {
					dofs[li] = shared[i]
				}
			}
		}
		for _, li := range el.EntityDofs(2, 0) {
			dofs[li] = next()
		}
		fs.cellDofs[c] = dofs
	}
}

func (fs *SerialFunctionSpace) Grid() grid.Grid                { return fs.grid }
func (fs *SerialFunctionSpace) CellDofs(c int) []int           { return fs.cellDofs[c] }
func (fs *SerialFunctionSpace) GlobalSize() int                { return fs.size }
func (fs *SerialFunctionSpace) Family() element.LagrangeFamily { return fs.family }

// Element returns the element used on cells of type ct. It panics for a cell
// type absent from the grid.
func (fs *SerialFunctionSpace) Element(ct utils.GeometryType) element.Element {
	el, ok := fs.elements[ct]
	if !ok {
		panic(fmt.Sprintf("space has no element on %v", ct))
	}
	return el
}

func (fs *SerialFunctionSpace) String() string {
	return fmt.Sprintf("%v Lagrange degree %d: %d dofs on %d cells",
		fs.family.Continuity, fs.family.Degree, fs.size, len(fs.cellDofs))
}

// DofCells inverts the dof map: for every global dof the (cell, local index)
// pairs that carry it, in cell order
func DofCells(fs FunctionSpace) [][][2]int {
	out := make([][][2]int, fs.GlobalSize())
	for c := 0; c < fs.Grid().NumCells(); c++ {
		for i, d := range fs.CellDofs(c) {
			out[d] = append(out[d], [2]int{c, i})
		}
	}
	return out
}
