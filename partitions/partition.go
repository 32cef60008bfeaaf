package partitions

import (
	"fmt"
	"math"

	"github.com/notargets/BEMKernel/utils"
)

// Partition is a collection of cells whose test rows are assembled together
// by one rank
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Cell membership
	Cells    []int // Global cell indices in this partition, ascending
	NumCells int

	// Mixed cell support
	CellTypes  []utils.GeometryType // Type of each cell
	TypeGroups []CellGroup          // Grouped by cell type
}

// CellGroup represents cells of the same type within a partition
type CellGroup struct {
	CellType utils.GeometryType
	Count    int
	LocalIDs []int // Indices within the partition
}

// PartitionLayout manages the complete decomposition of a grid
type PartitionLayout struct {
	Partitions []Partition

	TotalCells    int
	NumPartitions int

	// Cell to partition mapping
	CToP []int // Length TotalCells: cell k belongs to partition CToP[k]
}

// GetPartition returns the partition containing cell k
func (pl *PartitionLayout) GetPartition(cell int) int {
	if cell < 0 || cell >= len(pl.CToP) {
		return -1
	}
	return pl.CToP[cell]
}

// ValidateLayout checks partition consistency: every cell belongs to
// exactly one non-empty partition and the membership lists agree with CToP
func (pl *PartitionLayout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("layout has %d partitions, NumPartitions is %d",
			len(pl.Partitions), pl.NumPartitions)
	}
	if len(pl.CToP) != pl.TotalCells {
		return fmt.Errorf("CToP length %d != TotalCells %d", len(pl.CToP), pl.TotalCells)
	}
	seen := make([]bool, pl.TotalCells)
	for id, p := range pl.Partitions {
		if p.ID != id {
			return fmt.Errorf("partition at position %d has ID %d", id, p.ID)
		}
		if p.NumCells == 0 || p.NumCells != len(p.Cells) {
			return fmt.Errorf("partition %d: NumCells %d with %d cells", id, p.NumCells, len(p.Cells))
		}
		for i, k := range p.Cells {
			if k < 0 || k >= pl.TotalCells {
				return fmt.Errorf("partition %d: cell %d outside [0,%d)", id, k, pl.TotalCells)
			}
			if i > 0 && k <= p.Cells[i-1] {
				return fmt.Errorf("partition %d: cells are not ascending at %d", id, i)
			}
			if seen[k] {
				return fmt.Errorf("cell %d is in more than one partition", k)
			}
			seen[k] = true
			if pl.CToP[k] != id {
				return fmt.Errorf("cell %d listed in partition %d, CToP says %d", k, id, pl.CToP[k])
			}
		}
	}
	for k, ok := range seen {
		if !ok {
			return fmt.Errorf("cell %d is in no partition", k)
		}
	}
	return nil
}

type PartitionStats struct {
	NumPartitions int
	MinCells      int
	MaxCells      int
	AvgCells      float64
	Imbalance     float64 // MaxCells / AvgCells
}

// PartitionStatistics computes load balance metrics
func (pl *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: pl.NumPartitions,
		MinCells:      math.MaxInt32,
		AvgCells:      float64(pl.TotalCells) / float64(pl.NumPartitions),
	}
	for _, p := range pl.Partitions {
		stats.MinCells = min(stats.MinCells, p.NumCells)
		stats.MaxCells = max(stats.MaxCells, p.NumCells)
	}
	stats.Imbalance = float64(stats.MaxCells) / stats.AvgCells
	return stats
}
