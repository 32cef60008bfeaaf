package distributed

import (
	"fmt"
	"sort"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/utils"
	"go.uber.org/zap"
)

// DofKey names a basis function independently of any numbering: local basis
// function Local of the cell with id CellID
type DofKey struct {
	CellID, Local int
}

type DofEntry struct {
	DofKey
	Dof int // Rank-local dof
}

// DofReport is what one rank tells the others about its numbering
type DofReport struct {
	Rank    int
	Size    int // Local dofs on the rank
	Entries []DofEntry
}

// Numbering is the global dof numbering agreed on by every rank. Two keys
// share a global dof when any rank gave them the same local dof.
type Numbering struct {
	Size   int
	global map[DofKey]int
}

func (n *Numbering) Global(k DofKey) (int, bool) {
	g, ok := n.global[k]
	return g, ok
}

// LocalToGlobal maps the local dofs of a reporting rank to global dofs
func (n *Numbering) LocalToGlobal(rep DofReport) ([]int, error) {
	l2g := make([]int, rep.Size)
	for i := range l2g {
		l2g[i] = -1
	}
	for _, e := range rep.Entries {
		g, ok := n.global[e.DofKey]
		if !ok {
			return nil, fmt.Errorf("rank %d: %+v was not reconciled", rep.Rank, e.DofKey)
		}
		l2g[e.Dof] = g
	}
	for d, g := range l2g {
		if g < 0 {
			return nil, fmt.Errorf("rank %d: local dof %d has no cell", rep.Rank, d)
		}
	}
	return l2g, nil
}

// unionFind over key indices, joining to the smaller root
type unionFind []int

func (uf unionFind) find(i int) int {
	for uf[i] != i {
		uf[i] = uf[uf[i]]
		i = uf[i]
	}
	return i
}

func (uf unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra < rb {
		uf[rb] = ra
	} else if rb < ra {
		uf[ra] = rb
	}
}

// Reconcile merges the identifications of every report into one global
// numbering. Dofs are numbered in ascending (cell id, local index) order of
// their first key, so the result does not depend on the order of the
// reports or of their entries.
func Reconcile(reports []DofReport) (*Numbering, error) {
	var (
		index = make(map[DofKey]int)
		keys  []DofKey
	)
	for _, rep := range reports {
		for _, e := range rep.Entries {
			if e.Dof < 0 || e.Dof >= rep.Size {
				return nil, fmt.Errorf("rank %d: local dof %d outside [0,%d)", rep.Rank, e.Dof, rep.Size)
			}
			if _, ok := index[e.DofKey]; !ok {
				index[e.DofKey] = len(keys)
				keys = append(keys, e.DofKey)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CellID != keys[j].CellID {
			return keys[i].CellID < keys[j].CellID
		}
		return keys[i].Local < keys[j].Local
	})
	for i, k := range keys {
		index[k] = i
	}

	uf := make(unionFind, len(keys))
	for i := range uf {
		uf[i] = i
	}
	for _, rep := range reports {
		var (
			first = make([]int, rep.Size)
			seen  = make(map[DofKey]int)
		)
		for i := range first {
			first[i] = -1
		}
		for _, e := range rep.Entries {
			if d, ok := seen[e.DofKey]; ok && d != e.Dof {
				return nil, fmt.Errorf("rank %d reports %+v as dofs %d and %d", rep.Rank, e.DofKey, d, e.Dof)
			}
			seen[e.DofKey] = e.Dof
			k := index[e.DofKey]
			if first[e.Dof] < 0 {
				first[e.Dof] = k
			} else {
				uf.union(first[e.Dof], k)
			}
		}
	}

	// Roots are the smallest key of their class, so numbering roots in key
	// order numbers classes by their first key
	n := &Numbering{global: make(map[DofKey]int, len(keys))}
	rootDof := make(map[int]int)
	for i, k := range keys {
		r := uf.find(i)
		g, ok := rootDof[r]
		if !ok {
			g = n.Size
			rootDof[r] = g
			n.Size++
		}
		n.global[k] = g
	}
	return n, nil
}

// Part is the singular block one rank assembled, in its local numbering
type Part[T utils.Scalar] struct {
	Report DofReport
	Matrix *assembly.Triplets[T]
}

// Merge maps every part to the global numbering and accumulates them
func Merge[T utils.Scalar](n *Numbering, parts []Part[T], logger *zap.Logger) (*assembly.Triplets[T], error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := assembly.NewTriplets[T](n.Size, n.Size)
	for _, p := range parts {
		l2g, err := n.LocalToGlobal(p.Report)
		if err != nil {
			return nil, err
		}
		if r, c := p.Matrix.Dims(); r != len(l2g) || c != len(l2g) {
			return nil, fmt.Errorf("%w: rank %d matrix is %d×%d with %d local dofs",
				assembly.ErrDimensionMismatch, p.Report.Rank, r, c, len(l2g))
		}
		for k, v := range p.Matrix.Vals {
			out.AddAt(l2g[p.Matrix.Rows[k]], l2g[p.Matrix.Cols[k]], v)
		}
		logger.Debug("merged rank",
			zap.Int("rank", p.Report.Rank),
			zap.Int("local_dofs", len(l2g)),
			zap.Int("triplets", p.Matrix.Len()))
	}
	logger.Debug("merged singular matrix",
		zap.Int("global_dofs", n.Size),
		zap.Int("triplets", out.Len()))
	return out, nil
}
