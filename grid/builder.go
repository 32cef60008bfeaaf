package grid

import (
	"fmt"
	"sort"

	"github.com/notargets/BEMKernel/utils"
)

type builderKind uint8

const (
	mixedGrid builderKind = iota
	singleElementGrid
	flatTriangleGrid
)

// GridBuilder collects points and cells by user id. Cells refer to their
// corner points by id in reference vertex order; the cell type follows from
// the number of corners.
type GridBuilder struct {
	kind     builderKind
	cellType utils.GeometryType // Only for single element grids
	points   map[int][3]float64
	cells    map[int][]int
	errs     []error
}

// NewMixedGridBuilder accepts triangles and quadrilaterals in any mixture
func NewMixedGridBuilder() *GridBuilder {
	return &GridBuilder{
		kind:   mixedGrid,
		points: make(map[int][3]float64),
		cells:  make(map[int][]int),
	}
}

// NewSingleElementGridBuilder accepts cells of one type only
func NewSingleElementGridBuilder(ct utils.GeometryType) *GridBuilder {
	gb := NewMixedGridBuilder()
	gb.kind = singleElementGrid
	gb.cellType = ct
	return gb
}

// NewFlatTriangleGridBuilder accepts straight-sided triangles only
func NewFlatTriangleGridBuilder() *GridBuilder {
	gb := NewSingleElementGridBuilder(utils.Triangle)
	gb.kind = flatTriangleGrid
	return gb
}

func (gb *GridBuilder) AddPoint(id int, x [3]float64) {
	if _, dup := gb.points[id]; dup {
		gb.errs = append(gb.errs, fmt.Errorf("duplicate point id %d", id))
		return
	}
	gb.points[id] = x
}

func (gb *GridBuilder) AddCell(id int, vertices []int) (err error) {
	var ct utils.GeometryType
	if ct, err = utils.CellTypeFromVertexCount(len(vertices)); err != nil {
		return fmt.Errorf("cell %d: %w", id, err)
	}
	if gb.kind != mixedGrid && ct != gb.cellType {
		return fmt.Errorf("cell %d is a %v, grid only accepts %v", id, ct, gb.cellType)
	}
	if _, dup := gb.cells[id]; dup {
		return fmt.Errorf("duplicate cell id %d", id)
	}
	seen := make(map[int]bool, len(vertices))
	for _, v := range vertices {
		if seen[v] {
			return fmt.Errorf("cell %d repeats vertex %d", id, v)
		}
		seen[v] = true
	}
	gb.cells[id] = append([]int(nil), vertices...)
	return
}

// CreateGrid validates the collected entities and builds the grid. Points and
// cells are stored in ascending id order.
func (gb *GridBuilder) CreateGrid() (g *SerialGrid, err error) {
	if len(gb.errs) != 0 {
		return nil, gb.errs[0]
	}
	if len(gb.cells) == 0 {
		return nil, fmt.Errorf("grid has no cells")
	}
	g = &SerialGrid{cellIndex: make(map[int]int, len(gb.cells))}

	g.pointIDs = make([]int, 0, len(gb.points))
	for id := range gb.points {
		g.pointIDs = append(g.pointIDs, id)
	}
	sort.Ints(g.pointIDs)
	pointIndex := make(map[int]int, len(g.pointIDs))
	g.points = make([][3]float64, len(g.pointIDs))
	for v, id := range g.pointIDs {
		pointIndex[id] = v
		g.points[v] = gb.points[id]
	}

	g.cellIDs = make([]int, 0, len(gb.cells))
	for id := range gb.cells {
		g.cellIDs = append(g.cellIDs, id)
	}
	sort.Ints(g.cellIDs)

	K := len(g.cellIDs)
	g.cellTypes = make([]utils.GeometryType, K)
	g.cellVerts = make([][]int, K)
	g.geometries = make([]*CellGeometry, K)
	g.pointCells = make([][]int, len(g.points))
	present := make(map[utils.GeometryType]bool)
	for c, id := range g.cellIDs {
		g.cellIndex[id] = c
		verts := gb.cells[id]
		g.cellTypes[c], _ = utils.CellTypeFromVertexCount(len(verts))
		present[g.cellTypes[c]] = true
		g.cellVerts[c] = make([]int, len(verts))
		geom := &CellGeometry{Type: g.cellTypes[c], Vertices: make([][3]float64, len(verts))}
		for i, vid := range verts {
			v, ok := pointIndex[vid]
			if !ok {
				return nil, fmt.Errorf("cell %d refers to unknown point %d", id, vid)
			}
			g.cellVerts[c][i] = v
			geom.Vertices[i] = g.points[v]
			g.pointCells[v] = append(g.pointCells[v], c)
		}
		if area := geom.Area(); !(area > 0) {
			return nil, fmt.Errorf("cell %d is degenerate (area %g)", id, area)
		}
		g.geometries[c] = geom
	}
	for _, ct := range []utils.GeometryType{utils.Triangle, utils.Quadrilateral} {
		if present[ct] {
			g.types = append(g.types, ct)
		}
	}
	return
}
