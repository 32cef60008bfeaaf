package grid

import (
	"math"
	"testing"

	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadrilateralHalf(t *testing.T) *SerialGrid {
	gb := NewSingleElementGridBuilder(utils.Quadrilateral)
	for _, id := range []int{0, 1, 3, 4, 6, 7} {
		gb.AddPoint(id, [3]float64{0.5 * float64(id%3), 0.5 * float64(id/3), 0})
	}
	require.NoError(t, gb.AddCell(0, []int{0, 1, 3, 4}))
	require.NoError(t, gb.AddCell(1, []int{3, 4, 6, 7}))
	g, err := gb.CreateGrid()
	require.NoError(t, err)
	return g
}

func triangleHalf(t *testing.T) *SerialGrid {
	gb := NewFlatTriangleGridBuilder()
	for _, id := range []int{1, 2, 4, 5, 7, 8} {
		gb.AddPoint(id, [3]float64{0.5 * float64(id%3), 0.5 * float64(id/3), 0})
	}
	require.NoError(t, gb.AddCell(2, []int{1, 2, 5}))
	require.NoError(t, gb.AddCell(3, []int{1, 5, 4}))
	require.NoError(t, gb.AddCell(4, []int{4, 5, 8}))
	require.NoError(t, gb.AddCell(5, []int{4, 8, 7}))
	g, err := gb.CreateGrid()
	require.NoError(t, err)
	return g
}

func TestMixedUnitSquare(t *testing.T) {
	g, err := MixedUnitSquare()
	require.NoError(t, err)
	assert.Equal(t, 6, g.NumCells())
	assert.Equal(t, 9, g.NumPoints())
	assert.Equal(t, []utils.GeometryType{utils.Triangle, utils.Quadrilateral}, g.CellTypes())
	assert.Equal(t, []int{0, 1}, CellsOfType(g, utils.Quadrilateral))
	assert.Equal(t, []int{2, 3, 4, 5}, CellsOfType(g, utils.Triangle))

	var total float64
	for c := 0; c < g.NumCells(); c++ {
		total += g.Geometry(c).Area()
	}
	assert.InDelta(t, 1., total, 1.e-14)
	assert.InDelta(t, 0.25, g.Geometry(0).Area(), 1.e-14)
	assert.InDelta(t, 0.125, g.Geometry(3).Area(), 1.e-14)

	// Point 4 is a corner of every cell but cell 2
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, TouchingCells(g, 3))
	assert.Equal(t, []int{0, 2, 3, 4}, TouchingCells(g, 2))
	assert.Len(t, SharedVertices(g, 0, 1), 2)
	assert.Len(t, SharedVertices(g, 1, 2), 0)
	assert.Len(t, SharedVertices(g, 0, 2), 1)
	assert.Len(t, SharedVertices(g, 3, 4), 2)

	for c, nbrs := range CellToCell(g) {
		assert.NotContains(t, nbrs, c)
	}
	desc := g.String()
	assert.Contains(t, desc, "2 Quadrilateral")
	assert.Contains(t, desc, "4 Triangle")
}

func TestRestrictKeepsIdentity(t *testing.T) {
	g, err := MixedUnitSquare()
	require.NoError(t, err)
	quads, err := Restrict(g, CellsOfType(g, utils.Quadrilateral))
	require.NoError(t, err)
	direct := quadrilateralHalf(t)
	require.Equal(t, direct.NumCells(), quads.NumCells())
	require.Equal(t, direct.NumPoints(), quads.NumPoints())
	for c := 0; c < direct.NumCells(); c++ {
		assert.Equal(t, direct.CellID(c), quads.CellID(c))
		for i, v := range direct.CellVertices(c) {
			w := quads.CellVertices(c)[i]
			assert.Equal(t, direct.PointID(v), quads.PointID(w))
			assert.Equal(t, direct.Point(v), quads.Point(w))
		}
	}
	assert.Equal(t, []utils.GeometryType{utils.Quadrilateral}, quads.CellTypes())

	tris := triangleHalf(t)
	c, ok := tris.CellIndex(4)
	require.True(t, ok)
	assert.Equal(t, 2, c)
	_, ok = tris.CellIndex(0)
	assert.False(t, ok)
}

func TestBuilderRejectsInvalidInput(t *testing.T) {
	gb := NewFlatTriangleGridBuilder()
	assert.Error(t, gb.AddCell(0, []int{0, 1, 2, 3}))
	assert.Error(t, gb.AddCell(0, []int{0, 1}))
	assert.Error(t, gb.AddCell(0, []int{0, 1, 1}))

	gb = NewMixedGridBuilder()
	gb.AddPoint(0, [3]float64{})
	gb.AddPoint(1, [3]float64{1, 0, 0})
	require.NoError(t, gb.AddCell(0, []int{0, 1, 2}))
	assert.Error(t, gb.AddCell(0, []int{0, 1, 2}))
	_, err := gb.CreateGrid()
	assert.Error(t, err, "unknown point 2")

	gb.AddPoint(2, [3]float64{2, 0, 0})
	_, err = gb.CreateGrid()
	assert.Error(t, err, "collinear points")

	gb.AddPoint(2, [3]float64{0, 1, 0})
	_, err = gb.CreateGrid()
	assert.Error(t, err, "duplicate point id")

	_, err = NewMixedGridBuilder().CreateGrid()
	assert.Error(t, err)
}

func TestGeometryTable(t *testing.T) {
	// A tilted bilinear quadrilateral
	cg := &CellGeometry{
		Type: utils.Quadrilateral,
		Vertices: [][3]float64{
			{0, 0, 0}, {2, 0, 0}, {0, 1, 1}, {2, 1, 1},
		},
	}
	var gt GeometryTable
	cg.Evaluate([]float64{0.25, 0.5}, []float64{0.5, 1}, &gt)
	require.Equal(t, 2, gt.Npts())
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, gt.X[:3], 1.e-15)
	assert.InDeltaSlice(t, []float64{2, 0, 0}, gt.Tr[:3], 1.e-15)
	assert.InDeltaSlice(t, []float64{0, 1, 1}, gt.Ts[:3], 1.e-15)
	s2 := 1 / math.Sqrt2
	assert.InDeltaSlice(t, []float64{0, -s2, s2}, gt.N[3:6], 1.e-15)
	assert.InDelta(t, 2*math.Sqrt2, gt.J[1], 1.e-14)
	assert.InDelta(t, 2*math.Sqrt2, cg.Area(), 1.e-13)
	assert.Equal(t, [3]float64{1, 0.5, 0.5}, cg.Centroid())

	tri := &CellGeometry{Type: utils.Triangle, Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	x := tri.Map(0.25, 0.5)
	assert.Equal(t, [3]float64{0.25, 0.5, 0}, x)
	assert.InDelta(t, 0.5, tri.Area(), 1.e-14)
	assert.Panics(t, func() {
		(&CellGeometry{Type: utils.Line}).Map(0, 0)
	})
}

func TestCheckerboard(t *testing.T) {
	g, err := Checkerboard(2)
	require.NoError(t, err)
	assert.Equal(t, 6, g.NumCells())
	assert.Equal(t, 9, g.NumPoints())
	assert.Len(t, CellsOfType(g, utils.Quadrilateral), 2)
	ids := make([]int, g.NumCells())
	for c := range ids {
		ids[c] = g.CellID(c)
	}
	assert.Equal(t, []int{1, 4, 7, 10, 13, 16}, ids)
	// The centre point is shared by every cell
	centre := -1
	for v := 0; v < g.NumPoints(); v++ {
		if g.PointID(v) == 4 {
			centre = v
		}
	}
	require.GreaterOrEqual(t, centre, 0)
	assert.Len(t, g.PointCells(centre), 6)

	_, err = Checkerboard(0)
	assert.Error(t, err)
}
