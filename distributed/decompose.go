package distributed

import (
	"fmt"
	"sort"

	"github.com/notargets/BEMKernel/element"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/partitions"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
)

// Decomposition distributes the cells of a grid over ranks. Every rank owns
// the test rows of its partition and sees the ghost layer of cells touching
// them.
type Decomposition struct {
	Grid      grid.Grid
	Layout    *partitions.PartitionLayout
	Connector *utils.CellConnector
}

func Decompose(g grid.Grid, ranks int, strategy partitions.PartitionStrategy) (*Decomposition, error) {
	mesh := partitions.ConnectivityFromGrid(g)
	pb := &partitions.PartitionBuilder{Mesh: mesh, NumPartitions: ranks, Strategy: strategy}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return nil, err
	}
	cc, err := utils.NewCellConnector(mesh.NumCells, layout.CToP, mesh.CToC)
	if err != nil {
		return nil, err
	}
	if err = cc.Verify(); err != nil {
		return nil, err
	}
	return &Decomposition{Grid: g, Layout: layout, Connector: cc}, nil
}

func (d *Decomposition) NumRanks() int { return d.Layout.NumPartitions }

// Rank is the view one process has of the decomposed problem: a grid of its
// owned and ghost cells carrying the global ids, and a function space
// numbered independently of every other rank
type Rank struct {
	ID    int
	Grid  *grid.SerialGrid
	Space *space.SerialFunctionSpace
	Owned []int // Local indices of the owned cells, ascending
}

// NewRank builds rank p with a space of the given family
func (d *Decomposition) NewRank(p int, family element.LagrangeFamily) (*Rank, error) {
	if p < 0 || p >= d.NumRanks() {
		return nil, fmt.Errorf("rank %d outside [0,%d)", p, d.NumRanks())
	}
	cells := d.Connector.GetLocalCells(p)
	local, err := grid.Restrict(d.Grid, cells)
	if err != nil {
		return nil, fmt.Errorf("rank %d: %w", p, err)
	}
	fs, err := space.NewSerialFunctionSpace(local, family)
	if err != nil {
		return nil, fmt.Errorf("rank %d: %w", p, err)
	}
	r := &Rank{ID: p, Grid: local, Space: fs}
	for l, k := range cells {
		if !d.Connector.IsOwned(p, l) {
			break
		}
		c, ok := local.CellIndex(d.Grid.CellID(k))
		if !ok {
			return nil, fmt.Errorf("rank %d lost cell %d", p, d.Grid.CellID(k))
		}
		r.Owned = append(r.Owned, c)
	}
	sort.Ints(r.Owned)
	return r, nil
}

// Report lists, for every local cell, which local dof each of its basis
// functions received
func (r *Rank) Report() DofReport {
	rep := DofReport{Rank: r.ID, Size: r.Space.GlobalSize()}
	for c := 0; c < r.Grid.NumCells(); c++ {
		for i, dof := range r.Space.CellDofs(c) {
			rep.Entries = append(rep.Entries, DofEntry{
				DofKey: DofKey{CellID: r.Grid.CellID(c), Local: i},
				Dof:    dof,
			})
		}
	}
	return rep
}
