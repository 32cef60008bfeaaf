package grid

import (
	"fmt"
	"sort"

	"github.com/notargets/BEMKernel/utils"
)

// Restrict builds the grid made of the given cells of g. Point and cell ids
// carry over, so entities keep their identity across the two grids. When all
// selected cells share one type a single element grid is built.
func Restrict(g Grid, cells []int) (*SerialGrid, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("empty cell selection")
	}
	sorted := append([]int(nil), cells...)
	sort.Ints(sorted)

	ct := g.CellType(sorted[0])
	single := true
	for _, c := range sorted {
		if g.CellType(c) != ct {
			single = false
		}
	}
	var gb *GridBuilder
	if single {
		gb = NewSingleElementGridBuilder(ct)
	} else {
		gb = NewMixedGridBuilder()
	}

	added := make(map[int]bool)
	for _, c := range sorted {
		verts := g.CellVertices(c)
		ids := make([]int, len(verts))
		for i, v := range verts {
			ids[i] = g.PointID(v)
			if !added[v] {
				added[v] = true
				gb.AddPoint(ids[i], g.Point(v))
			}
		}
		if err := gb.AddCell(g.CellID(c), ids); err != nil {
			return nil, err
		}
	}
	return gb.CreateGrid()
}

// MixedUnitSquare returns the unit square split into a column of two
// quadrilaterals on the left and four triangles on the right, on a 3×3
// lattice of points numbered row by row.
func MixedUnitSquare() (*SerialGrid, error) {
	gb := NewMixedGridBuilder()
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			gb.AddPoint(3*j+i, [3]float64{0.5 * float64(i), 0.5 * float64(j), 0})
		}
	}
	cells := [][]int{
		{0, 1, 3, 4}, {3, 4, 6, 7},
		{1, 2, 5}, {1, 5, 4}, {4, 5, 8}, {4, 8, 7},
	}
	for id, verts := range cells {
		if err := gb.AddCell(id, verts); err != nil {
			return nil, err
		}
	}
	return gb.CreateGrid()
}

// CellsOfType lists the cells of g with the given type, ascending
func CellsOfType(g Grid, ct utils.GeometryType) (cells []int) {
	for c := 0; c < g.NumCells(); c++ {
		if g.CellType(c) == ct {
			cells = append(cells, c)
		}
	}
	return
}

// Checkerboard returns an n×n lattice over the unit square whose squares
// alternate between one quadrilateral and a pair of triangles. The lattice is
// lifted to z = 0.1x² - 0.2xy so that no two cells are coplanar. Cell ids
// step by three and are not contiguous.
func Checkerboard(n int) (*SerialGrid, error) {
	if n < 1 {
		return nil, fmt.Errorf("checkerboard needs n >= 1, got %d", n)
	}
	gb := NewMixedGridBuilder()
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			x, y := float64(i)/float64(n), float64(j)/float64(n)
			gb.AddPoint(j*(n+1)+i, [3]float64{x, y, 0.1*x*x - 0.2*x*y})
		}
	}
	id := 1
	add := func(verts ...int) (err error) {
		err = gb.AddCell(id, verts)
		id += 3
		return
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v0 := j*(n+1) + i
			v1, v2, v3 := v0+1, v0+n+1, v0+n+2
			var err error
			if (i+j)%2 == 0 {
				err = add(v0, v1, v2, v3)
			} else if err = add(v0, v1, v3); err == nil {
				err = add(v0, v3, v2)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return gb.CreateGrid()
}
