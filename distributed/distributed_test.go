package distributed

import (
	"context"
	"math/rand"
	"testing"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/element"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/partitions"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func checkerboard(t *testing.T, n int) *grid.SerialGrid {
	g, err := grid.Checkerboard(n)
	require.NoError(t, err)
	return g
}

func testConfig(ranks int, strategy partitions.PartitionStrategy) Config {
	opts := assembly.DefaultOptions()
	opts.Workers = 2
	return Config{Ranks: ranks, Strategy: strategy, Options: opts}
}

func compareWithSerial[T utils.Scalar](t *testing.T, g *grid.SerialGrid, family element.LagrangeFamily,
	pde assembly.PDE, op assembly.Operator, cfg Config) {
	ctx := context.Background()
	dist, n, err := AssembleSingular[T](ctx, g, family, pde, op, cfg)
	require.NoError(t, err)

	fs, err := space.NewSerialFunctionSpace(g, family)
	require.NoError(t, err)
	a, err := assembly.NewAssemblerFor[T](pde, op, cfg.Options)
	require.NoError(t, err)
	serial, err := a.AssembleSingular(ctx, fs, fs)
	require.NoError(t, err)

	require.Equal(t, fs.GlobalSize(), n.Size)
	toSerial := make([]int, n.Size)
	for c := 0; c < g.NumCells(); c++ {
		for i, d := range fs.CellDofs(c) {
			gd, ok := n.Global(DofKey{CellID: g.CellID(c), Local: i})
			require.True(t, ok)
			toSerial[gd] = d
		}
	}
	assert.Equal(t, serial.Len(), dist.Len(), "%v %v %v", pde, op, family)
	for k, v := range dist.Vals {
		want := serial.At(toSerial[dist.Rows[k]], toSerial[dist.Cols[k]])
		if d := utils.Abs(want - v); d > 1.e-12 {
			t.Errorf("%v %v %v: entry (%d,%d) differs by %g", pde, op, family, dist.Rows[k], dist.Cols[k], d)
		}
	}
}

func TestDistributedMatchesSerial(t *testing.T) {
	g := checkerboard(t, 4)
	families := []element.LagrangeFamily{
		element.NewLagrangeFamily(1, element.Continuous),
		element.NewLagrangeFamily(1, element.Discontinuous),
		element.NewLagrangeFamily(2, element.Continuous),
	}
	for _, strategy := range []partitions.PartitionStrategy{
		partitions.BlockPartition, partitions.RoundRobin, partitions.GraphPartition} {
		cfg := testConfig(3, strategy)
		for _, family := range families {
			for _, op := range []assembly.Operator{assembly.SingleLayer, assembly.DoubleLayer, assembly.Hypersingular} {
				compareWithSerial[float64](t, g, family, assembly.Laplace(), op, cfg)
			}
		}
		compareWithSerial[complex128](t, g, families[0], assembly.Helmholtz(2.), assembly.Hypersingular, cfg)
	}
	// One rank is the serial assembly
	compareWithSerial[float64](t, g, families[0], assembly.Laplace(), assembly.SingleLayer,
		testConfig(1, partitions.BlockPartition))
}

func rankReports(t *testing.T, g grid.Grid, ranks int, family element.LagrangeFamily) []DofReport {
	d, err := Decompose(g, ranks, partitions.GraphPartition)
	require.NoError(t, err)
	reports := make([]DofReport, d.NumRanks())
	for p := range reports {
		r, err := d.NewRank(p, family)
		require.NoError(t, err)
		require.NotEmpty(t, r.Owned)
		reports[p] = r.Report()
	}
	return reports
}

func TestReconcileIgnoresReportOrder(t *testing.T) {
	g := checkerboard(t, 3)
	reports := rankReports(t, g, 4, element.NewLagrangeFamily(2, element.Continuous))
	want, err := Reconcile(reports)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]DofReport, len(reports))
		for i, p := range rng.Perm(len(reports)) {
			rep := reports[p]
			rep.Entries = append([]DofEntry(nil), rep.Entries...)
			rng.Shuffle(len(rep.Entries), func(a, b int) {
				rep.Entries[a], rep.Entries[b] = rep.Entries[b], rep.Entries[a]
			})
			shuffled[i] = rep
		}
		got, err := Reconcile(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want.Size, got.Size)
		assert.Equal(t, want.global, got.global)
	}
}

func TestReconcileNumbersByCellID(t *testing.T) {
	// Two ranks share the dof of local function 1 of cell 10 and local
	// function 0 of cell 20
	reports := []DofReport{
		{Rank: 1, Size: 2, Entries: []DofEntry{
			{DofKey{20, 0}, 1}, {DofKey{20, 1}, 0},
		}},
		{Rank: 0, Size: 2, Entries: []DofEntry{
			{DofKey{10, 0}, 0}, {DofKey{10, 1}, 1}, {DofKey{20, 0}, 1},
		}},
	}
	n, err := Reconcile(reports)
	require.NoError(t, err)
	assert.Equal(t, 3, n.Size)
	for key, want := range map[DofKey]int{{10, 0}: 0, {10, 1}: 1, {20, 0}: 1, {20, 1}: 2} {
		got, ok := n.Global(key)
		require.True(t, ok)
		assert.Equal(t, want, got, "%+v", key)
	}
	l2g, err := n.LocalToGlobal(reports[0])
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, l2g)

	// A key reported as two local dofs by one rank
	reports[0].Entries = append(reports[0].Entries, DofEntry{DofKey{20, 0}, 0})
	_, err = Reconcile(reports)
	assert.Error(t, err)

	_, err = Reconcile([]DofReport{{Size: 1, Entries: []DofEntry{{DofKey{1, 0}, 3}}}})
	assert.Error(t, err)
}

func TestMergeChecksShapes(t *testing.T) {
	reports := []DofReport{{Rank: 0, Size: 2, Entries: []DofEntry{{DofKey{1, 0}, 0}, {DofKey{1, 1}, 1}}}}
	n, err := Reconcile(reports)
	require.NoError(t, err)

	m := assembly.NewTriplets[float64](2, 2)
	m.AddAt(0, 1, 2.5)
	out, err := Merge(n, []Part[float64]{{Report: reports[0], Matrix: m}, {Report: reports[0], Matrix: m}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5., out.At(0, 1))

	_, err = Merge(n, []Part[float64]{{Report: reports[0], Matrix: assembly.NewTriplets[float64](3, 3)}}, nil)
	assert.ErrorIs(t, err, assembly.ErrDimensionMismatch)
}

type DecompositionSuite struct {
	suite.Suite
	grid *grid.SerialGrid
	dp0  element.LagrangeFamily
}

func (s *DecompositionSuite) SetupSuite() {
	g, err := grid.Checkerboard(4)
	s.Require().NoError(err)
	s.grid = g
	s.dp0 = element.NewLagrangeFamily(0, element.Discontinuous)
}

func (s *DecompositionSuite) TestGhostLayerClosesNeighbourhoods() {
	d, err := Decompose(s.grid, 3, partitions.BlockPartition)
	s.Require().NoError(err)
	for p := 0; p < d.NumRanks(); p++ {
		r, err := d.NewRank(p, s.dp0)
		s.Require().NoError(err)
		for _, c := range r.Owned {
			gc, ok := s.grid.CellIndex(r.Grid.CellID(c))
			s.Require().True(ok)
			for _, nbr := range grid.TouchingCells(s.grid, gc) {
				_, ok := r.Grid.CellIndex(s.grid.CellID(nbr))
				s.True(ok, "rank %d misses neighbour %d of cell %d", p, s.grid.CellID(nbr), r.Grid.CellID(c))
			}
			// Singular neighbourhoods are the same on the rank
			s.Len(grid.TouchingCells(r.Grid, c), len(grid.TouchingCells(s.grid, gc)))
		}
	}
	_, err = d.NewRank(3, s.dp0)
	s.Error(err)
}

func (s *DecompositionSuite) TestRanksOwnEveryCellOnce() {
	for _, strategy := range []partitions.PartitionStrategy{
		partitions.BlockPartition, partitions.RoundRobin, partitions.GraphPartition} {
		d, err := Decompose(s.grid, 4, strategy)
		s.Require().NoError(err)
		owners := make(map[int]int)
		for p := 0; p < d.NumRanks(); p++ {
			r, err := d.NewRank(p, s.dp0)
			s.Require().NoError(err)
			for _, c := range r.Owned {
				owners[r.Grid.CellID(c)]++
			}
		}
		s.Len(owners, s.grid.NumCells(), strategy.String())
		for id, n := range owners {
			s.Equal(1, n, "%v cell %d", strategy, id)
		}
	}
}

func TestDecompositionSuite(t *testing.T) {
	suite.Run(t, new(DecompositionSuite))
}
