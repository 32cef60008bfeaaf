package grid

import (
	"fmt"
	"sort"

	"github.com/notargets/BEMKernel/utils"
)

// Grid is the surface mesh capability consumed by function spaces and the
// assembler. Cells and points are addressed by a stable local index; user ids
// are kept so that equivalent grids built from different point sets agree.
type Grid interface {
	NumCells() int
	NumPoints() int
	CellType(c int) utils.GeometryType
	CellTypes() []utils.GeometryType
	CellVertices(c int) []int // Point indices of the cell corners, reference order
	CellID(c int) int
	PointID(v int) int
	Point(v int) [3]float64
	PointCells(v int) []int // Cells having point v as a corner
	Geometry(c int) *CellGeometry
}

// SerialGrid is a grid held entirely by one process. It covers the mixed,
// single-element and flat-triangle variants; the builder enforces the
// restrictions of each variant.
type SerialGrid struct {
	points     [][3]float64
	pointIDs   []int
	cellIDs    []int
	cellTypes  []utils.GeometryType
	cellVerts  [][]int
	pointCells [][]int
	geometries []*CellGeometry
	types      []utils.GeometryType
	cellIndex  map[int]int
}

func (g *SerialGrid) NumCells() int                     { return len(g.cellIDs) }
func (g *SerialGrid) NumPoints() int                    { return len(g.points) }
func (g *SerialGrid) CellType(c int) utils.GeometryType { return g.cellTypes[c] }
func (g *SerialGrid) CellTypes() []utils.GeometryType   { return g.types }
func (g *SerialGrid) CellVertices(c int) []int          { return g.cellVerts[c] }
func (g *SerialGrid) CellID(c int) int                  { return g.cellIDs[c] }
func (g *SerialGrid) PointID(v int) int                 { return g.pointIDs[v] }
func (g *SerialGrid) Point(v int) [3]float64            { return g.points[v] }
func (g *SerialGrid) PointCells(v int) []int            { return g.pointCells[v] }
func (g *SerialGrid) Geometry(c int) *CellGeometry      { return g.geometries[c] }

// CellIndex returns the local index of the cell with the given id
func (g *SerialGrid) CellIndex(id int) (int, bool) {
	c, ok := g.cellIndex[id]
	return c, ok
}

// SharedVertices returns the point indices that cells a and b have in common
func SharedVertices(g Grid, a, b int) []int {
	var shared []int
	for _, va := range g.CellVertices(a) {
		for _, vb := range g.CellVertices(b) {
			if va == vb {
				shared = append(shared, va)
			}
		}
	}
	return shared
}

// TouchingCells returns, in ascending order, the cells sharing at least one
// vertex with c, c included
func TouchingCells(g Grid, c int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range g.CellVertices(c) {
		for _, nbr := range g.PointCells(v) {
			if !seen[nbr] {
				seen[nbr] = true
				out = append(out, nbr)
			}
		}
	}
	sort.Ints(out)
	return out
}

// CellToCell lists the vertex neighbours of every cell, excluding itself
func CellToCell(g Grid) [][]int {
	CToC := make([][]int, g.NumCells())
	for c := range CToC {
		for _, nbr := range TouchingCells(g, c) {
			if nbr != c {
				CToC[c] = append(CToC[c], nbr)
			}
		}
	}
	return CToC
}

func (g *SerialGrid) String() string {
	counts := make(map[utils.GeometryType]int)
	for _, ct := range g.cellTypes {
		counts[ct]++
	}
	s := fmt.Sprintf("SerialGrid: %d points, %d cells", len(g.points), len(g.cellIDs))
	for _, ct := range g.types {
		s += fmt.Sprintf(", %d %v", counts[ct], ct)
	}
	return s
}
