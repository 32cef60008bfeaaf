package partitions

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/utils"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// PartitionBuilder constructs partitions from grid connectivity
type PartitionBuilder struct {
	Mesh *CellConnectivity

	// Partitioning parameters
	NumPartitions       int // Partitions to build, derived from TargetPartitionSize when zero
	TargetPartitionSize int // Desired cells per partition
	Strategy            PartitionStrategy
}

// CellConnectivity provides the grid topology needed for partitioning
type CellConnectivity struct {
	NumCells  int
	CellTypes []utils.GeometryType

	// Cells sharing at least one vertex, ascending and excluding the cell
	CToC [][]int
}

// ConnectivityFromGrid extracts the vertex adjacency of the cells of g
func ConnectivityFromGrid(g grid.Grid) *CellConnectivity {
	cm := &CellConnectivity{
		NumCells:  g.NumCells(),
		CellTypes: make([]utils.GeometryType, g.NumCells()),
		CToC:      grid.CellToCell(g),
	}
	for k := range cm.CellTypes {
		cm.CellTypes[k] = g.CellType(k)
	}
	return cm
}

// PartitionStrategy defines how cells are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive cells
	RoundRobin                              // Distribute cyclically
	GraphPartition                          // Consecutive cells of a breadth first walk of the cell graph
)

func (ps PartitionStrategy) String() string {
	switch ps {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	case GraphPartition:
		return "graph"
	default:
		return fmt.Sprintf("PartitionStrategy(%d)", int(ps))
	}
}

// ParseStrategy is the inverse of PartitionStrategy.String
func ParseStrategy(name string) (PartitionStrategy, error) {
	for _, ps := range []PartitionStrategy{BlockPartition, RoundRobin, GraphPartition} {
		if ps.String() == name {
			return ps, nil
		}
	}
	return 0, fmt.Errorf("unknown partition strategy %q", name)
}

// BuildPartitions creates a partition layout from grid connectivity
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.Mesh == nil || pb.Mesh.NumCells <= 0 {
		return nil, fmt.Errorf("partition builder has no cells")
	}
	if err := pb.checkConnectivity(); err != nil {
		return nil, err
	}
	numPartitions := pb.calculateNumPartitions()

	cToP, err := pb.partitionCells(numPartitions)
	if err != nil {
		return nil, err
	}

	layout := &PartitionLayout{
		Partitions:    pb.createPartitions(cToP, numPartitions),
		TotalCells:    pb.Mesh.NumCells,
		NumPartitions: numPartitions,
		CToP:          cToP,
	}
	if err = layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

func (pb *PartitionBuilder) checkConnectivity() error {
	m := pb.Mesh
	if len(m.CToC) != m.NumCells {
		return fmt.Errorf("CToC length %d does not match %d cells", len(m.CToC), m.NumCells)
	}
	if m.CellTypes != nil && len(m.CellTypes) != m.NumCells {
		return fmt.Errorf("CellTypes length %d does not match %d cells", len(m.CellTypes), m.NumCells)
	}
	for k, nbrs := range m.CToC {
		for _, n := range nbrs {
			if n < 0 || n >= m.NumCells || n == k {
				return fmt.Errorf("cell %d has invalid neighbour %d", k, n)
			}
		}
	}
	return nil
}

// calculateNumPartitions never returns more partitions than cells
func (pb *PartitionBuilder) calculateNumPartitions() int {
	numPartitions := pb.NumPartitions
	if numPartitions <= 0 && pb.TargetPartitionSize > 0 {
		numPartitions = int(math.Ceil(float64(pb.Mesh.NumCells) / float64(pb.TargetPartitionSize)))
	}
	return max(1, min(numPartitions, pb.Mesh.NumCells))
}

// partitionCells assigns cells to partitions
func (pb *PartitionBuilder) partitionCells(numPartitions int) ([]int, error) {
	K := pb.Mesh.NumCells
	cToP := make([]int, K)
	switch pb.Strategy {
	case BlockPartition:
		blocks(cToP, identity(K), numPartitions)
	case RoundRobin:
		for k := range cToP {
			cToP[k] = k % numPartitions
		}
	case GraphPartition:
		blocks(cToP, pb.breadthFirstOrder(), numPartitions)
	default:
		return nil, fmt.Errorf("unsupported partition strategy %v", pb.Strategy)
	}
	return cToP, nil
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// blocks cuts order into numPartitions contiguous runs whose sizes differ by
// at most one
func blocks(cToP, order []int, numPartitions int) {
	pm := utils.NewPartitionMap(numPartitions, len(order))
	for p := 0; p < pm.ParallelDegree; p++ {
		kMin, kMax := pm.GetBucketRange(p)
		for _, k := range order[kMin:kMax] {
			cToP[k] = p
		}
	}
}

// cellGraph presents CToC to gonum's traversals with neighbours in
// ascending order, which keeps walks reproducible
type cellGraph [][]int

func (cg cellGraph) From(id int64) graph.Nodes {
	nodes := make([]graph.Node, len(cg[id]))
	for i, n := range cg[id] {
		nodes[i] = simple.Node(n)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (cg cellGraph) Edge(uid, vid int64) graph.Edge {
	for _, n := range cg[uid] {
		if int64(n) == vid {
			return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
		}
	}
	return nil
}

// breadthFirstOrder lists the cells in breadth first order, starting every
// component at its lowest cell
func (pb *PartitionBuilder) breadthFirstOrder() []int {
	var (
		order = make([]int, 0, pb.Mesh.NumCells)
		cg    = cellGraph(pb.Mesh.CToC)
	)
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { order = append(order, int(n.ID())) },
	}
	for k := 0; k < pb.Mesh.NumCells; k++ {
		if !bf.Visited(simple.Node(k)) {
			bf.Walk(cg, simple.Node(k), nil)
		}
	}
	return order
}

// createPartitions builds partition structures from cell assignments
func (pb *PartitionBuilder) createPartitions(cToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i].ID = i
	}
	for cell, part := range cToP {
		p := &partitions[part]
		p.Cells = append(p.Cells, cell)
		if pb.Mesh.CellTypes != nil {
			p.CellTypes = append(p.CellTypes, pb.Mesh.CellTypes[cell])
		}
		p.NumCells++
	}
	for i := range partitions {
		partitions[i].TypeGroups = createCellGroups(&partitions[i])
	}
	return partitions
}

// createCellGroups organizes cells by type within a partition, groups in
// ascending type order
func createCellGroups(p *Partition) []CellGroup {
	if len(p.CellTypes) == 0 {
		return nil
	}
	byType := make(map[utils.GeometryType][]int)
	for i, ct := range p.CellTypes {
		byType[ct] = append(byType[ct], i)
	}
	groups := make([]CellGroup, 0, len(byType))
	for ct, ids := range byType {
		groups = append(groups, CellGroup{CellType: ct, Count: len(ids), LocalIDs: ids})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CellType < groups[j].CellType })
	return groups
}

// Components counts the connected pieces of every partition of layout,
// neighbours being cells that share a vertex
func (pb *PartitionBuilder) Components(layout *PartitionLayout) []int {
	counts := make([]int, layout.NumPartitions)
	for _, p := range layout.Partitions {
		g := simple.NewUndirectedGraph()
		for _, k := range p.Cells {
			g.AddNode(simple.Node(k))
		}
		for _, k := range p.Cells {
			for _, n := range pb.Mesh.CToC[k] {
				if n > k && layout.CToP[n] == p.ID {
					g.SetEdge(simple.Edge{F: simple.Node(k), T: simple.Node(n)})
				}
			}
		}
		counts[p.ID] = len(topo.ConnectedComponents(g))
	}
	return counts
}
