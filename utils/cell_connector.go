package utils

import (
	"fmt"
	"sort"
)

// CellConnector manages local/global cell numbering for a partitioned
// surface mesh. Every partition owns a set of cells and additionally sees a
// ghost layer: the cells owned elsewhere that share at least one vertex with
// an owned cell. Singular interactions of an owned cell never reach beyond
// that layer.
type CellConnector struct {
	// Mesh dimensions
	NumPartitions int
	K             int // Total cells

	// Input connectivity
	CToP []int   // Cell → partition mapping
	CToC [][]int // Cell → cells sharing at least one vertex

	// Partition mappings
	CellsPerPartition []int         // Owned cells per partition
	GlobalToLocalCell []map[int]int // [partition][globalCell] → localCell, owned and ghost
	LocalToGlobalCell [][]int       // [partition][localCell] → globalCell, owned first then ghosts

	// Ghost cells per partition, in ascending global order
	GhostCells [][]int
}

// NewCellConnector creates a cell connector from mesh connectivity
func NewCellConnector(K int, CToP []int, CToC [][]int) (*CellConnector, error) {
	if K <= 0 {
		return nil, fmt.Errorf("invalid dimensions: K=%d", K)
	}
	if len(CToP) != K {
		return nil, fmt.Errorf("CToP length %d does not match K=%d", len(CToP), K)
	}
	if len(CToC) != K {
		return nil, fmt.Errorf("CToC length %d does not match K=%d", len(CToC), K)
	}

	numPartitions := 0
	for k, p := range CToP {
		if p < 0 {
			return nil, fmt.Errorf("cell %d has negative partition %d", k, p)
		}
		if p+1 > numPartitions {
			numPartitions = p + 1
		}
	}

	cc := &CellConnector{
		NumPartitions: numPartitions,
		K:             K,
		CToP:          CToP,
		CToC:          CToC,
	}

	cc.buildPartitionMappings()

	if err := cc.buildGhostLayers(); err != nil {
		return nil, err
	}

	return cc, nil
}

// buildPartitionMappings creates bidirectional mappings between global and
// local cell numbering for owned cells
func (cc *CellConnector) buildPartitionMappings() {
	cc.CellsPerPartition = make([]int, cc.NumPartitions)
	for _, p := range cc.CToP {
		cc.CellsPerPartition[p]++
	}

	cc.GlobalToLocalCell = make([]map[int]int, cc.NumPartitions)
	cc.LocalToGlobalCell = make([][]int, cc.NumPartitions)
	for p := 0; p < cc.NumPartitions; p++ {
		cc.GlobalToLocalCell[p] = make(map[int]int)
		cc.LocalToGlobalCell[p] = make([]int, 0, cc.CellsPerPartition[p])
	}

	for globalCell := 0; globalCell < cc.K; globalCell++ {
		partition := cc.CToP[globalCell]
		localCell := len(cc.LocalToGlobalCell[partition])

		cc.GlobalToLocalCell[partition][globalCell] = localCell
		cc.LocalToGlobalCell[partition] = append(cc.LocalToGlobalCell[partition], globalCell)
	}
}

// buildGhostLayers appends the vertex neighbours owned by other partitions
// after the owned cells of every partition
func (cc *CellConnector) buildGhostLayers() error {
	cc.GhostCells = make([][]int, cc.NumPartitions)
	for p := 0; p < cc.NumPartitions; p++ {
		seen := make(map[int]bool)
		for _, k := range cc.LocalToGlobalCell[p] {
			for _, nbr := range cc.CToC[k] {
				if nbr < 0 || nbr >= cc.K {
					return fmt.Errorf("cell %d has neighbour %d outside [0,%d)", k, nbr, cc.K)
				}
				if cc.CToP[nbr] != p && !seen[nbr] {
					seen[nbr] = true
					cc.GhostCells[p] = append(cc.GhostCells[p], nbr)
				}
			}
		}
		sort.Ints(cc.GhostCells[p])
		for _, g := range cc.GhostCells[p] {
			cc.GlobalToLocalCell[p][g] = len(cc.LocalToGlobalCell[p])
			cc.LocalToGlobalCell[p] = append(cc.LocalToGlobalCell[p], g)
		}
	}
	return nil
}

// IsOwned reports whether the local cell of a partition is owned by it
func (cc *CellConnector) IsOwned(partition, localCell int) bool {
	return localCell < cc.CellsPerPartition[partition]
}

// GetLocalCells returns owned then ghost global cells of a partition
func (cc *CellConnector) GetLocalCells(partition int) []int {
	if partition < 0 || partition >= cc.NumPartitions {
		return nil
	}
	return cc.LocalToGlobalCell[partition]
}

// Verify checks mapping validity and ownership conservation
func (cc *CellConnector) Verify() error {
	// Verify 1: every cell owned exactly once
	owned := make([]int, cc.K)
	for p := 0; p < cc.NumPartitions; p++ {
		for l := 0; l < cc.CellsPerPartition[p]; l++ {
			owned[cc.LocalToGlobalCell[p][l]]++
		}
	}
	for k, n := range owned {
		if n != 1 {
			return fmt.Errorf("cell %d owned %d times", k, n)
		}
	}

	// Verify 2: bidirectional maps agree
	for p := 0; p < cc.NumPartitions; p++ {
		for l, g := range cc.LocalToGlobalCell[p] {
			if cc.GlobalToLocalCell[p][g] != l {
				return fmt.Errorf("partition %d: local %d -> global %d -> local %d",
					p, l, g, cc.GlobalToLocalCell[p][g])
			}
		}
	}

	// Verify 3: ghost layer closes the neighbourhood of owned cells
	for p := 0; p < cc.NumPartitions; p++ {
		for l := 0; l < cc.CellsPerPartition[p]; l++ {
			for _, nbr := range cc.CToC[cc.LocalToGlobalCell[p][l]] {
				if _, ok := cc.GlobalToLocalCell[p][nbr]; !ok {
					return fmt.Errorf("partition %d misses neighbour %d of cell %d",
						p, nbr, cc.LocalToGlobalCell[p][l])
				}
			}
		}
	}

	return nil
}
